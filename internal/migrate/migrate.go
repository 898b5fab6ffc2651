// Package migrate holds the idempotent schema setup run once at process
// startup, decoupled from request handling.
package migrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The customers table is owned by the external accounts service; a stub
// definition is kept here only so the order read path can join name/email
// in development environments.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		customer_id BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		delivery_option TEXT NOT NULL,
		recipient_name TEXT NOT NULL,
		recipient_phone TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		pickup_date TEXT NOT NULL DEFAULT '',
		pickup_time_slot TEXT NOT NULL DEFAULT '',
		special_instructions TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		subtotal NUMERIC(10,2) NOT NULL CHECK (subtotal >= 0),
		delivery_fee NUMERIC(10,2) NOT NULL CHECK (delivery_fee >= 0),
		discount NUMERIC(10,2) NOT NULL CHECK (discount >= 0),
		total NUMERIC(10,2) NOT NULL CHECK (total >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE TABLE IF NOT EXISTS services (
		service_id BIGSERIAL PRIMARY KEY,
		service_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		unit_type TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		service_id BIGINT REFERENCES services(service_id) ON DELETE SET NULL,
		item_name TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		unit_type TEXT NOT NULL DEFAULT '',
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		quantity INT NOT NULL CHECK (quantity > 0),
		subtotal NUMERIC(10,2) NOT NULL CHECK (subtotal >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	`CREATE TABLE IF NOT EXISTS service_price_history (
		service_price_id BIGSERIAL PRIMARY KEY,
		service_id BIGINT NOT NULL REFERENCES services(service_id) ON DELETE CASCADE,
		price_per_unit NUMERIC(10,2) NOT NULL CHECK (price_per_unit >= 0),
		effective_from TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		effective_to TIMESTAMPTZ
	)`,
	// At most one open interval per service.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_service_open_price
		ON service_price_history (service_id) WHERE effective_to IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_service
		ON service_price_history (service_id, effective_from DESC)`,
	`CREATE TABLE IF NOT EXISTS order_number_counters (
		day TEXT PRIMARY KEY,
		last_seq INT NOT NULL
	)`,
}

// Run applies the schema. Every statement is idempotent, so re-running on
// each startup is safe.
func Run(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
