package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/KavishaPerera/Wash-TUB-sub000/internal/auth"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "catalog").Logger()

var ErrForbidden = errors.New("access denied")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

const (
	activeCatalogKey = "catalog:active"
	activeCatalogTTL = 5 * time.Minute
)

// Manager is the catalog application service: owner-gated mutations with
// price versioning, plus the public active-catalog listing with a Redis
// read-through cache. A nil Redis client disables caching.
type Manager struct {
	repo Repository
	rdb  *redis.Client
}

func NewManager(repo Repository, rdb *redis.Client) *Manager {
	return &Manager{repo: repo, rdb: rdb}
}

func parsePrice(field, raw string) (string, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return "", &ValidationError{Field: field, Reason: "must be a non-negative decimal"}
	}
	return d.StringFixed(2), nil
}

// CreateService inserts a new offering together with its first price
// interval.
func (m *Manager) CreateService(ctx context.Context, ident auth.Identity, req CreateServiceRequest) (*Service, error) {
	if !auth.Can(ident.Role, auth.ActionManageCatalog) {
		return nil, ErrForbidden
	}
	if req.Name == "" {
		return nil, &ValidationError{Field: "service_name", Reason: "required"}
	}
	if !validUnitType(req.UnitType) {
		return nil, &ValidationError{Field: "unit_type", Reason: "must be weight, piece or item"}
	}
	price, err := parsePrice("price", req.Price)
	if err != nil {
		return nil, err
	}
	s := &Service{Name: req.Name, Description: req.Description, UnitType: req.UnitType}
	if err := m.repo.Create(ctx, s, price); err != nil {
		return nil, err
	}
	m.invalidate(ctx)
	return s, nil
}

// UpdateService applies field edits; a non-empty price goes through the
// versioning store (close + open interval), never an in-place overwrite.
func (m *Manager) UpdateService(ctx context.Context, ident auth.Identity, id int64, req UpdateServiceRequest) (*Service, error) {
	if !auth.Can(ident.Role, auth.ActionManageCatalog) {
		return nil, ErrForbidden
	}
	if req.UnitType != "" && !validUnitType(req.UnitType) {
		return nil, &ValidationError{Field: "unit_type", Reason: "must be weight, piece or item"}
	}
	s := &Service{ID: id, Name: req.Name, Description: req.Description, UnitType: req.UnitType}
	if err := m.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	if req.Price != "" {
		price, err := parsePrice("price", req.Price)
		if err != nil {
			return nil, err
		}
		if err := m.repo.UpdatePrice(ctx, id, price); err != nil {
			return nil, err
		}
	}
	m.invalidate(ctx)
	return m.repo.GetByID(ctx, id)
}

func (m *Manager) SetServiceActive(ctx context.Context, ident auth.Identity, id int64, active bool) error {
	if !auth.Can(ident.Role, auth.ActionManageCatalog) {
		return ErrForbidden
	}
	if err := m.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

// DeleteService removes the offering and, by cascade, its price history.
func (m *Manager) DeleteService(ctx context.Context, ident auth.Identity, id int64) error {
	if !auth.Can(ident.Role, auth.ActionManageCatalog) {
		return ErrForbidden
	}
	ok, err := m.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	m.invalidate(ctx)
	return nil
}

func (m *Manager) GetServicePriceHistory(ctx context.Context, ident auth.Identity, id int64) ([]PriceEntry, error) {
	if !auth.Can(ident.Role, auth.ActionManageCatalog) {
		return nil, ErrForbidden
	}
	if _, err := m.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return m.repo.PriceHistory(ctx, id)
}

// ListActiveServices is the public catalog. Dashboards poll it, so a few
// minutes of staleness is fine.
func (m *Manager) ListActiveServices(ctx context.Context) ([]Service, error) {
	if m.rdb != nil {
		if cached, err := m.rdb.Get(ctx, activeCatalogKey).Result(); err == nil {
			var out []Service
			if err := json.Unmarshal([]byte(cached), &out); err == nil {
				return out, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Msg("catalog cache read failed")
		}
	}
	out, err := m.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if m.rdb != nil {
		if b, err := json.Marshal(out); err == nil {
			if err := m.rdb.Set(ctx, activeCatalogKey, b, activeCatalogTTL).Err(); err != nil {
				logger.Warn().Err(err).Msg("catalog cache write failed")
			}
		}
	}
	return out, nil
}

// CurrentPrice implements the order service's price source.
func (m *Manager) CurrentPrice(ctx context.Context, serviceID int64) (string, error) {
	p, err := m.repo.CurrentPrice(ctx, serviceID)
	if err != nil {
		return "", err
	}
	return p.Price, nil
}

func (m *Manager) invalidate(ctx context.Context) {
	if m.rdb == nil {
		return
	}
	if err := m.rdb.Del(ctx, activeCatalogKey).Err(); err != nil {
		logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
