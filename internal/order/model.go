package order

import "time"

// Delivery options accepted on order creation.
const (
	DeliveryOptionPickup   = "pickup"
	DeliveryOptionDelivery = "delivery"
)

type Order struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	CustomerID  int64  `json:"customer_id"`
	// Joined from the customers table on reads, empty on writes.
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`

	Status         Status `json:"status"`
	DeliveryOption string `json:"delivery_option"`

	RecipientName       string `json:"recipient_name"`
	RecipientPhone      string `json:"recipient_phone"`
	Address             string `json:"address,omitempty"`
	City                string `json:"city,omitempty"`
	PostalCode          string `json:"postal_code,omitempty"`
	PickupDate          string `json:"pickup_date,omitempty"`
	PickupTimeSlot      string `json:"pickup_time_slot,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	PaymentMethod       string `json:"payment_method,omitempty"`

	// We store money as strings to avoid rounding errors (NUMERIC in Postgres)
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"delivery_fee"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []Item `json:"items,omitempty"`
}

type Item struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
	// Nil for custom items that are not backed by a catalog service.
	ServiceID *int64 `json:"service_id,omitempty"`
	ItemName  string `json:"item_name"`
	Method    string `json:"method,omitempty"`
	UnitType  string `json:"unit_type,omitempty"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}
