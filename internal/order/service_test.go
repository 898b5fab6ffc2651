package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KavishaPerera/Wash-TUB-sub000/internal/auth"
)

// stubRepo implements Repository in memory.
type stubRepo struct {
	lastOrder     *Order
	lastItems     []Item
	updateCalls   int
	failNextError error
}

func (s *stubRepo) Create(ctx context.Context, o *Order, items []Item) error {
	if s.failNextError != nil {
		return s.failNextError
	}
	o.ID = 1
	o.OrderNumber = "WT-20260829-0001"
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	o.Items = items
	cp := *o
	s.lastOrder = &cp
	s.lastItems = append([]Item(nil), items...)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	if s.lastOrder == nil || s.lastOrder.ID != id {
		return nil, ErrNotFound
	}
	cp := *s.lastOrder
	cp.Items = append([]Item(nil), s.lastItems...)
	return &cp, nil
}

func (s *stubRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	if s.lastOrder == nil || s.lastOrder.OrderNumber != number {
		return nil, ErrNotFound
	}
	cp := *s.lastOrder
	return &cp, nil
}

func (s *stubRepo) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	if s.lastOrder != nil && s.lastOrder.CustomerID == customerID {
		return []Order{*s.lastOrder}, nil
	}
	return []Order{}, nil
}

func (s *stubRepo) List(ctx context.Context, f ListFilter) ([]Order, error) {
	if s.lastOrder == nil {
		return []Order{}, nil
	}
	return []Order{*s.lastOrder}, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if s.lastOrder == nil || s.lastOrder.ID != id {
		return ErrNotFound
	}
	s.updateCalls++
	s.lastOrder.Status = status
	return nil
}

func (s *stubRepo) CountByStatus(ctx context.Context, status Status) (int, error) {
	if s.lastOrder != nil && s.lastOrder.Status == status {
		return 1, nil
	}
	return 0, nil
}

func (s *stubRepo) TotalRevenue(ctx context.Context) (string, error) {
	if s.lastOrder != nil && s.lastOrder.Status != StatusCancelled {
		return s.lastOrder.Total, nil
	}
	return "0", nil
}

// stubPrices resolves catalog prices from a fixed map.
type stubPrices map[int64]string

func (s stubPrices) CurrentPrice(ctx context.Context, serviceID int64) (string, error) {
	p, ok := s[serviceID]
	if !ok {
		return "", ErrNotFound
	}
	return p, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []Event
}

func (r *recordingPublisher) PublishOrderEvent(ctx context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func i64(v int64) *int64 { return &v }

func defaultOpts() Options {
	return Options{
		DeliveryFee:       decimal.NewFromInt(200),
		TrustItemSubtotal: true,
	}
}

func newTestService(repo Repository, opts Options) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewService(repo, stubPrices{3: "250.00"}, pub, opts), pub
}

var (
	customer = auth.Identity{UserID: 7, Role: auth.RoleCustomer}
	staff    = auth.Identity{UserID: 20, Role: auth.RoleStaff}
	owner    = auth.Identity{UserID: 1, Role: auth.RoleOwner}
	courier  = auth.Identity{UserID: 30, Role: auth.RoleDelivery}
)

func deliveryRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		DeliveryOption: DeliveryOptionDelivery,
		RecipientName:  "Nimal Perera",
		RecipientPhone: "0771234567",
		Address:        "12 Lake Rd",
		City:           "Colombo",
		Items: []PlaceOrderItem{
			{ServiceID: i64(3), ItemName: "Wash & Fold", UnitType: "kg", Quantity: 2},
		},
	}
}

func TestPlaceOrder_DeliveryFee(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())

	o, err := svc.PlaceOrder(context.Background(), customer, deliveryRequest())
	require.NoError(t, err)

	assert.Equal(t, "500.00", o.Subtotal)
	assert.Equal(t, "200.00", o.DeliveryFee)
	assert.Equal(t, "0.00", o.Discount)
	assert.Equal(t, "700.00", o.Total)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "WT-20260829-0001", o.OrderNumber)
	require.Len(t, repo.lastItems, 1)
	assert.Equal(t, "250.00", repo.lastItems[0].Price)
	assert.Equal(t, "500.00", repo.lastItems[0].Subtotal)
}

func TestPlaceOrder_SelfPickup(t *testing.T) {
	svc, _ := newTestService(&stubRepo{}, defaultOpts())

	req := deliveryRequest()
	req.DeliveryOption = DeliveryOptionPickup
	o, err := svc.PlaceOrder(context.Background(), customer, req)
	require.NoError(t, err)

	assert.Equal(t, "0.00", o.DeliveryFee)
	assert.Equal(t, "500.00", o.Total)
}

func TestPlaceOrder_Validation(t *testing.T) {
	svc, _ := newTestService(&stubRepo{}, defaultOpts())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*PlaceOrderRequest)
		field  string
	}{
		{"empty items", func(r *PlaceOrderRequest) { r.Items = nil }, "items"},
		{"missing name", func(r *PlaceOrderRequest) { r.RecipientName = "" }, "recipient_name"},
		{"missing phone", func(r *PlaceOrderRequest) { r.RecipientPhone = "" }, "recipient_phone"},
		{"bad delivery option", func(r *PlaceOrderRequest) { r.DeliveryOption = "drone" }, "delivery_option"},
		{"zero quantity", func(r *PlaceOrderRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := deliveryRequest()
			tc.mutate(&req)
			_, err := svc.PlaceOrder(ctx, customer, req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestPlaceOrder_UnknownServicePrice(t *testing.T) {
	svc, _ := newTestService(&stubRepo{}, defaultOpts())

	req := deliveryRequest()
	req.Items[0].ServiceID = i64(99)
	_, err := svc.PlaceOrder(context.Background(), customer, req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].service_id", verr.Field)
}

func TestPlaceOrder_CustomItemUsesClientPrice(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())

	req := deliveryRequest()
	req.DeliveryOption = DeliveryOptionPickup
	req.Items = []PlaceOrderItem{
		{ItemName: "Curtain set", Price: "1200.00", Quantity: 1},
	}
	o, err := svc.PlaceOrder(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, "1200.00", o.Total)
}

func TestPlaceOrder_SubtotalTrust(t *testing.T) {
	// Source behavior: a client-supplied line subtotal is stored as given.
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())
	req := deliveryRequest()
	req.DeliveryOption = DeliveryOptionPickup
	req.Items[0].Subtotal = "450.00"
	o, err := svc.PlaceOrder(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, "450.00", repo.lastItems[0].Subtotal)
	assert.Equal(t, "450.00", o.Total)

	// Hardened mode recomputes price*quantity.
	opts := defaultOpts()
	opts.TrustItemSubtotal = false
	repo = &stubRepo{}
	svc, _ = newTestService(repo, opts)
	o, err = svc.PlaceOrder(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, "500.00", repo.lastItems[0].Subtotal)
	assert.Equal(t, "500.00", o.Total)
}

func TestPlaceOrder_RoleGate(t *testing.T) {
	svc, _ := newTestService(&stubRepo{}, defaultOpts())
	for _, ident := range []auth.Identity{staff, owner, courier} {
		_, err := svc.PlaceOrder(context.Background(), ident, deliveryRequest())
		assert.ErrorIs(t, err, ErrForbidden, "role %s", ident.Role)
	}
}

func TestPlaceOrder_EmitsEvent(t *testing.T) {
	svc, pub := newTestService(&stubRepo{}, defaultOpts())
	o, err := svc.PlaceOrder(context.Background(), customer, deliveryRequest())
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, EventCreated, pub.events[0].Type)
	assert.Equal(t, o.ID, pub.events[0].OrderID)
	assert.Equal(t, o.OrderNumber, pub.events[0].OrderNumber)
}

func TestGetOrder_Ownership(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())
	ctx := context.Background()
	_, err := svc.PlaceOrder(ctx, customer, deliveryRequest())
	require.NoError(t, err)

	// Owning customer reads fine.
	o, err := svc.GetOrder(ctx, 1, customer)
	require.NoError(t, err)
	assert.Equal(t, customer.UserID, o.CustomerID)

	// A different customer is rejected without detail.
	other := auth.Identity{UserID: 8, Role: auth.RoleCustomer}
	_, err = svc.GetOrder(ctx, 1, other)
	assert.ErrorIs(t, err, ErrForbidden)

	// Staff can read any order.
	_, err = svc.GetOrder(ctx, 1, staff)
	assert.NoError(t, err)

	_, err = svc.GetOrder(ctx, 99, staff)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_CustomerAlwaysForbidden(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())
	ctx := context.Background()
	_, err := svc.PlaceOrder(ctx, customer, deliveryRequest())
	require.NoError(t, err)

	// Even for the customer's own order, every target status is refused.
	for _, st := range AllStatuses {
		err := svc.UpdateStatus(ctx, 1, string(st), customer)
		assert.ErrorIs(t, err, ErrForbidden, "status %q", st)
	}
	assert.Zero(t, repo.updateCalls)
}

func TestUpdateStatus_AuthorizedRoles(t *testing.T) {
	for _, ident := range []auth.Identity{staff, owner, courier} {
		repo := &stubRepo{}
		svc, pub := newTestService(repo, defaultOpts())
		ctx := context.Background()
		_, err := svc.PlaceOrder(ctx, customer, deliveryRequest())
		require.NoError(t, err)

		require.NoError(t, svc.UpdateStatus(ctx, 1, "processing", ident))
		assert.Equal(t, StatusProcessing, repo.lastOrder.Status)
		require.Len(t, pub.events, 2)
		assert.Equal(t, EventStatusChanged, pub.events[1].Type)
	}
}

func TestUpdateStatus_Idempotent(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())
	ctx := context.Background()
	_, err := svc.PlaceOrder(ctx, customer, deliveryRequest())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, 1, "processing", staff))
	require.NoError(t, svc.UpdateStatus(ctx, 1, "processing", staff))
	assert.Equal(t, StatusProcessing, repo.lastOrder.Status)
	assert.Equal(t, 2, repo.updateCalls)
}

func TestUpdateStatus_UnknownValue(t *testing.T) {
	svc, _ := newTestService(&stubRepo{}, defaultOpts())
	err := svc.UpdateStatus(context.Background(), 1, "shipped", staff)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _ := newTestService(&stubRepo{}, defaultOpts())
	err := svc.UpdateStatus(context.Background(), 42, "processing", staff)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_StrictMode(t *testing.T) {
	opts := defaultOpts()
	opts.StrictTransitions = true
	repo := &stubRepo{}
	svc, _ := newTestService(repo, opts)
	ctx := context.Background()
	_, err := svc.PlaceOrder(ctx, customer, deliveryRequest())
	require.NoError(t, err)

	// pending -> processing skips stages.
	err = svc.UpdateStatus(ctx, 1, "processing", staff)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, svc.UpdateStatus(ctx, 1, "confirmed", staff))
	require.NoError(t, svc.UpdateStatus(ctx, 1, "cancelled", staff))

	// Terminal: nothing leaves cancelled.
	err = svc.UpdateStatus(ctx, 1, "confirmed", staff)
	require.ErrorAs(t, err, &verr)
}

func TestListOrders_RoleGate(t *testing.T) {
	svc, _ := newTestService(&stubRepo{}, defaultOpts())
	ctx := context.Background()

	_, err := svc.ListOrders(ctx, customer, ListFilter{})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ListOrders(ctx, courier, ListFilter{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListOrders(ctx, staff, ListFilter{})
	assert.NoError(t, err)
	_, err = svc.ListOrders(ctx, owner, ListFilter{Status: "pending"})
	assert.NoError(t, err)

	_, err = svc.ListOrders(ctx, owner, ListFilter{Status: "bogus"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGetStats_OwnerOnly(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())
	ctx := context.Background()
	_, err := svc.PlaceOrder(ctx, customer, deliveryRequest())
	require.NoError(t, err)

	for _, ident := range []auth.Identity{customer, staff, courier} {
		_, err := svc.GetStats(ctx, ident)
		assert.ErrorIs(t, err, ErrForbidden, "role %s", ident.Role)
	}

	stats, err := svc.GetStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 0, stats.Delivered)
	assert.Equal(t, "700.00", stats.Revenue)
}

func TestRoundTrip(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo, defaultOpts())
	ctx := context.Background()

	req := deliveryRequest()
	placed, err := svc.PlaceOrder(ctx, customer, req)
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, placed.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, placed.OrderNumber, got.OrderNumber)
	assert.Equal(t, req.RecipientName, got.RecipientName)
	assert.Equal(t, req.DeliveryOption, got.DeliveryOption)
	assert.Equal(t, placed.Total, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, req.Items[0].Quantity, got.Items[0].Quantity)
}
