package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")
)

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status     Status
	CustomerID int64
	Limit      int
}

type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	CountByStatus(ctx context.Context, status Status) (int, error)
	TotalRevenue(ctx context.Context) (string, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// createAttempts bounds retries after an order_number unique violation.
// The counter row makes collisions impossible for numbers it issued; the
// retry only covers numbers inserted by other means (imports, backfills).
const createAttempts = 3

// Create writes the order header, reserves an order number and inserts
// every line item in one transaction. On return o.ID, o.OrderNumber,
// timestamps and the item IDs are populated.
func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item) error {
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		err = r.createOnce(ctx, o, items)
		if !isUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *PGRepo) createOnce(ctx context.Context, o *Order, items []Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	var seq int
	if err := tx.QueryRow(ctx, `
		INSERT INTO order_number_counters (day, last_seq) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = order_number_counters.last_seq + 1
		RETURNING last_seq
	`, dayKey(now)).Scan(&seq); err != nil {
		return err
	}
	number, err := FormatNumber(now, seq)
	if err != nil {
		return err
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (
			order_number, customer_id, status, delivery_option,
			recipient_name, recipient_phone, address, city, postal_code,
			pickup_date, pickup_time_slot, special_instructions, payment_method,
			subtotal, delivery_fee, discount, total, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`, number, o.CustomerID, o.Status, o.DeliveryOption,
		o.RecipientName, o.RecipientPhone, o.Address, o.City, o.PostalCode,
		o.PickupDate, o.PickupTimeSlot, o.SpecialInstructions, o.PaymentMethod,
		o.Subtotal, o.DeliveryFee, o.Discount, o.Total,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	o.OrderNumber = number

	for i := range items {
		items[i].OrderID = o.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, service_id, item_name, method, unit_type, price, quantity, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING id
		`, o.ID, items[i].ServiceID, items[i].ItemName, items[i].Method, items[i].UnitType,
			items[i].Price, items[i].Quantity, items[i].Subtotal,
		).Scan(&items[i].ID); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.Items = items
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const orderColumns = `
	o.id, o.order_number, o.customer_id, COALESCE(c.name,''), COALESCE(c.email,''),
	o.status, o.delivery_option,
	o.recipient_name, o.recipient_phone, o.address, o.city, o.postal_code,
	o.pickup_date, o.pickup_time_slot, o.special_instructions, o.payment_method,
	o.subtotal::text, o.delivery_fee::text, o.discount::text, o.total::text,
	o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerEmail,
		&o.Status, &o.DeliveryOption,
		&o.RecipientName, &o.RecipientPhone, &o.Address, &o.City, &o.PostalCode,
		&o.PickupDate, &o.PickupTimeSlot, &o.SpecialInstructions, &o.PaymentMethod,
		&o.Subtotal, &o.DeliveryFee, &o.Discount, &o.Total,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT`+orderColumns+`
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.id=$1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Items, err = r.itemsFor(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT`+orderColumns+`
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.order_number=$1
	`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Items, err = r.itemsFor(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return r.List(ctx, ListFilter{CustomerID: customerID})
}

func (r *PGRepo) List(ctx context.Context, f ListFilter) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT`+orderColumns+`
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE ($1 = '' OR o.status = $1)
		  AND ($2 = 0 OR o.customer_id = $2)
		ORDER BY o.created_at DESC
		LIMIT $3
	`, string(f.Status), f.CustomerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.itemsFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGRepo) itemsFor(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, service_id, item_name, method, unit_type, price::text, quantity, subtotal::text
		FROM order_items
		WHERE order_id=$1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ServiceID, &it.ItemName, &it.Method,
			&it.UnitType, &it.Price, &it.Quantity, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) CountByStatus(ctx context.Context, status Status) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status=$1`, status).Scan(&n)
	return n, err
}

// TotalRevenue sums order totals across every non-cancelled order.
func (r *PGRepo) TotalRevenue(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sum string
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)::text FROM orders WHERE status <> $1
	`, StatusCancelled).Scan(&sum)
	return sum, err
}
