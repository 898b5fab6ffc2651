package order

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/KavishaPerera/Wash-TUB-sub000/internal/auth"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "order").Logger()

var ErrForbidden = errors.New("access denied")

// ValidationError rejects malformed input with a field-level message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// PriceSource resolves the current catalog price for a service. Implemented
// by the catalog manager; orders never trust client-supplied prices for
// catalog-backed items.
type PriceSource interface {
	CurrentPrice(ctx context.Context, serviceID int64) (string, error)
}

// Options tune behavior that the original system left implicit.
type Options struct {
	// Flat fee added when delivery_option is "delivery".
	DeliveryFee decimal.Decimal
	// When true (source behavior) a client-supplied item subtotal is
	// stored as given; when false it is recomputed as price*quantity.
	TrustItemSubtotal bool
	// When true, status updates must also follow the pipeline adjacency.
	StrictTransitions bool
}

type Service struct {
	repo   Repository
	prices PriceSource
	events EventPublisher
	opts   Options
}

func NewService(repo Repository, prices PriceSource, events EventPublisher, opts Options) *Service {
	return &Service{repo: repo, prices: prices, events: events, opts: opts}
}

// PlaceOrder validates the submission, snapshots catalog prices, computes
// totals and persists the order with its items atomically.
func (s *Service) PlaceOrder(ctx context.Context, ident auth.Identity, req PlaceOrderRequest) (*Order, error) {
	if !auth.Can(ident.Role, auth.ActionPlaceOrder) {
		return nil, ErrForbidden
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	if req.RecipientName == "" {
		return nil, &ValidationError{Field: "recipient_name", Reason: "required"}
	}
	if req.RecipientPhone == "" {
		return nil, &ValidationError{Field: "recipient_phone", Reason: "required"}
	}
	if req.DeliveryOption != DeliveryOptionPickup && req.DeliveryOption != DeliveryOptionDelivery {
		return nil, &ValidationError{Field: "delivery_option", Reason: "must be pickup or delivery"}
	}

	items := make([]Item, 0, len(req.Items))
	subtotal := decimal.Zero
	for i, in := range req.Items {
		if in.Quantity < 1 {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("items[%d].quantity", i),
				Reason: "must be a positive integer",
			}
		}
		price, err := s.itemPrice(ctx, i, in)
		if err != nil {
			return nil, err
		}
		lineSubtotal := price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		if s.opts.TrustItemSubtotal && in.Subtotal != "" {
			given, err := decimal.NewFromString(in.Subtotal)
			if err != nil || given.IsNegative() {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("items[%d].subtotal", i),
					Reason: "must be a non-negative decimal",
				}
			}
			lineSubtotal = given
		}
		items = append(items, Item{
			ServiceID: in.ServiceID,
			ItemName:  in.ItemName,
			Method:    in.Method,
			UnitType:  in.UnitType,
			Price:     price.StringFixed(2),
			Quantity:  in.Quantity,
			Subtotal:  lineSubtotal.StringFixed(2),
		})
		subtotal = subtotal.Add(lineSubtotal)
	}

	fee := decimal.Zero
	if req.DeliveryOption == DeliveryOptionDelivery {
		fee = s.opts.DeliveryFee
	}
	discount := decimal.Zero // coupon logic is a future extension point
	total := subtotal.Add(fee).Sub(discount)

	o := &Order{
		CustomerID:          ident.UserID,
		Status:              StatusPending,
		DeliveryOption:      req.DeliveryOption,
		RecipientName:       req.RecipientName,
		RecipientPhone:      req.RecipientPhone,
		Address:             req.Address,
		City:                req.City,
		PostalCode:          req.PostalCode,
		PickupDate:          req.PickupDate,
		PickupTimeSlot:      req.PickupTimeSlot,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
		Subtotal:            subtotal.StringFixed(2),
		DeliveryFee:         fee.StringFixed(2),
		Discount:            discount.StringFixed(2),
		Total:               total.StringFixed(2),
	}
	if err := s.repo.Create(ctx, o, items); err != nil {
		logger.Error().Err(err).Int64("customer_id", ident.UserID).Msg("order creation failed")
		return nil, err
	}
	s.publish(ctx, Event{
		Type:        EventCreated,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		OccurredAt:  time.Now(),
	})
	return o, nil
}

func (s *Service) itemPrice(ctx context.Context, i int, in PlaceOrderItem) (decimal.Decimal, error) {
	if in.ServiceID != nil {
		raw, err := s.prices.CurrentPrice(ctx, *in.ServiceID)
		if err != nil {
			return decimal.Zero, &ValidationError{
				Field:  fmt.Sprintf("items[%d].service_id", i),
				Reason: "no priced catalog service with this id",
			}
		}
		return decimal.NewFromString(raw)
	}
	// Custom item: the submitted price is the snapshot.
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return decimal.Zero, &ValidationError{
			Field:  fmt.Sprintf("items[%d].price", i),
			Reason: "must be a non-negative decimal",
		}
	}
	return price, nil
}

// GetOrder returns one order. Customers may only read their own.
func (s *Service) GetOrder(ctx context.Context, id int64, ident auth.Identity) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ident.Role == auth.RoleCustomer && o.CustomerID != ident.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

// GetOrderByNumber resolves an order by its public number, with the same
// ownership rule as GetOrder.
func (s *Service) GetOrderByNumber(ctx context.Context, number string, ident auth.Identity) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if ident.Role == auth.RoleCustomer && o.CustomerID != ident.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListOrders returns orders across all customers, staff/owner only.
func (s *Service) ListOrders(ctx context.Context, ident auth.Identity, f ListFilter) ([]Order, error) {
	if !auth.Can(ident.Role, auth.ActionListAllOrders) {
		return nil, ErrForbidden
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status value"}
	}
	return s.repo.List(ctx, f)
}

func (s *Service) ListMyOrders(ctx context.Context, customerID int64) ([]Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// UpdateStatus moves an order to a new status. Any role in
// {owner, staff, delivery} may set any of the nine values; strict mode
// additionally enforces the pipeline adjacency.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, newStatus string, ident auth.Identity) error {
	if !auth.Can(ident.Role, auth.ActionUpdateOrderStatus) {
		return ErrForbidden
	}
	st, ok := ParseStatus(newStatus)
	if !ok {
		return &ValidationError{Field: "status", Reason: "unknown status value"}
	}
	if s.opts.StrictTransitions {
		cur, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(cur.Status, st) {
			return &ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("illegal transition %s -> %s", cur.Status, st),
			}
		}
	}
	if err := s.repo.UpdateStatus(ctx, orderID, st); err != nil {
		return err
	}
	s.publish(ctx, Event{
		Type:       EventStatusChanged,
		OrderID:    orderID,
		Status:     st,
		OccurredAt: time.Now(),
	})
	return nil
}

// GetStats builds the owner dashboard summary.
func (s *Service) GetStats(ctx context.Context, ident auth.Identity) (*Stats, error) {
	if !auth.Can(ident.Role, auth.ActionViewStats) {
		return nil, ErrForbidden
	}
	var st Stats
	var err error
	if st.Pending, err = s.repo.CountByStatus(ctx, StatusPending); err != nil {
		return nil, err
	}
	if st.Processing, err = s.repo.CountByStatus(ctx, StatusProcessing); err != nil {
		return nil, err
	}
	if st.Delivered, err = s.repo.CountByStatus(ctx, StatusDelivered); err != nil {
		return nil, err
	}
	if st.Revenue, err = s.repo.TotalRevenue(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

// publish is best-effort: notification delivery is an external concern and
// must not fail an already committed write.
func (s *Service) publish(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("event", ev.Type).Int64("order_id", ev.OrderID).
			Msg("event publish failed")
	}
}
