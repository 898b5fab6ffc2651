package order

// PlaceOrderItem is one line of an order submission.
// swagger:model PlaceOrderItem
type PlaceOrderItem struct {
	ServiceID *int64 `json:"service_id" example:"3"`
	ItemName  string `json:"item_name"  example:"Wash & Fold"`
	Method    string `json:"method"     example:"Dry Cleaning"`
	UnitType  string `json:"unit_type"  example:"kg"`
	// Ignored when service_id is set; the current catalog price wins.
	Price    string `json:"price"    example:"250.00"`
	Quantity int    `json:"quantity" example:"2"`
	// Optional; trusted as given unless subtotal recomputation is enabled.
	Subtotal string `json:"subtotal" example:"500.00"`
}

// PlaceOrderRequest is the order submission payload.
// swagger:model PlaceOrderRequest
type PlaceOrderRequest struct {
	DeliveryOption      string           `json:"delivery_option" example:"delivery"`
	RecipientName       string           `json:"recipient_name"  example:"Nimal Perera"`
	RecipientPhone      string           `json:"recipient_phone" example:"0771234567"`
	Address             string           `json:"address"`
	City                string           `json:"city"`
	PostalCode          string           `json:"postal_code"`
	PickupDate          string           `json:"pickup_date"      example:"2026-08-30"`
	PickupTimeSlot      string           `json:"pickup_time_slot" example:"09:00-11:00"`
	SpecialInstructions string           `json:"special_instructions"`
	PaymentMethod       string           `json:"payment_method" example:"cash_on_delivery"`
	Items               []PlaceOrderItem `json:"items"`
}

// UpdateStatusRequest carries the target status for an order.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"processing"`
}

// Stats is the owner dashboard summary.
// swagger:model Stats
type Stats struct {
	Pending    int    `json:"pending"`
	Processing int    `json:"processing"`
	Delivered  int    `json:"delivered"`
	Revenue    string `json:"revenue"`
}
