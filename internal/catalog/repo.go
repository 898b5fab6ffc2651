package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("service not found")
	// ErrNoActivePrice means the service has no open price interval. That
	// is a catalog configuration error, not a silent zero price.
	ErrNoActivePrice = errors.New("service has no active price")
)

type Repository interface {
	Create(ctx context.Context, s *Service, initialPrice string) error
	GetByID(ctx context.Context, id int64) (*Service, error)
	Update(ctx context.Context, s *Service) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListActive(ctx context.Context) ([]Service, error)
	UpdatePrice(ctx context.Context, id int64, newPrice string) error
	CurrentPrice(ctx context.Context, id int64) (*PriceEntry, error)
	PriceHistory(ctx context.Context, id int64) ([]PriceEntry, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// Create inserts the service row and its first open price interval in one
// transaction.
func (r *PGRepo) Create(ctx context.Context, s *Service, initialPrice string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO services (service_name, description, unit_type, is_active)
		VALUES ($1,$2,$3,TRUE)
		RETURNING service_id
	`, s.Name, s.Description, s.UnitType).Scan(&s.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO service_price_history (service_id, price_per_unit, effective_from, effective_to)
		VALUES ($1,$2,NOW(),NULL)
	`, s.ID, initialPrice); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.Active = true
	s.CurrentPrice = initialPrice
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s Service
	err := r.db.QueryRow(ctx, `
		SELECT s.service_id, s.service_name, s.description, s.unit_type, s.is_active,
		       COALESCE(p.price_per_unit::text, '')
		FROM services s
		LEFT JOIN service_price_history p
		  ON p.service_id = s.service_id AND p.effective_to IS NULL
		WHERE s.service_id=$1
	`, id).Scan(&s.ID, &s.Name, &s.Description, &s.UnitType, &s.Active, &s.CurrentPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepo) Update(ctx context.Context, s *Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE services
		SET service_name = COALESCE(NULLIF($2,''), service_name),
		    description  = COALESCE(NULLIF($3,''), description),
		    unit_type    = COALESCE(NULLIF($4,''), unit_type)
		WHERE service_id = $1
	`, s.ID, s.Name, s.Description, s.UnitType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SetActive(ctx context.Context, id int64, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE services SET is_active=$2 WHERE service_id=$1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the service; price history rows cascade.
func (r *PGRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE service_id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepo) ListActive(ctx context.Context) ([]Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT s.service_id, s.service_name, s.description, s.unit_type, s.is_active,
		       COALESCE(p.price_per_unit::text, '')
		FROM services s
		LEFT JOIN service_price_history p
		  ON p.service_id = s.service_id AND p.effective_to IS NULL
		WHERE s.is_active
		ORDER BY s.service_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.UnitType, &s.Active, &s.CurrentPrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdatePrice closes the open interval and opens a new one atomically.
// The FOR UPDATE lock on the service row serializes concurrent price
// updates for the same service, so at most one open interval can ever
// exist (a partial unique index backs this up).
func (r *PGRepo) UpdatePrice(ctx context.Context, id int64, newPrice string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked int64
	if err := tx.QueryRow(ctx, `
		SELECT service_id FROM services WHERE service_id=$1 FOR UPDATE
	`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE service_price_history SET effective_to = NOW()
		WHERE service_id=$1 AND effective_to IS NULL
	`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO service_price_history (service_id, price_per_unit, effective_from, effective_to)
		VALUES ($1,$2,NOW(),NULL)
	`, id, newPrice); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) CurrentPrice(ctx context.Context, id int64) (*PriceEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p PriceEntry
	err := r.db.QueryRow(ctx, `
		SELECT service_price_id, service_id, price_per_unit::text, effective_from, effective_to
		FROM service_price_history
		WHERE service_id=$1 AND effective_to IS NULL
	`, id).Scan(&p.ID, &p.ServiceID, &p.Price, &p.EffectiveFrom, &p.EffectiveTo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActivePrice
		}
		return nil, err
	}
	return &p, nil
}

// PriceHistory returns every interval, newest first.
func (r *PGRepo) PriceHistory(ctx context.Context, id int64) ([]PriceEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT service_price_id, service_id, price_per_unit::text, effective_from, effective_to
		FROM service_price_history
		WHERE service_id=$1
		ORDER BY effective_from DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceEntry
	for rows.Next() {
		var p PriceEntry
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.Price, &p.EffectiveFrom, &p.EffectiveTo); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
