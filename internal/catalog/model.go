package catalog

import "time"

// Unit types a service can be billed by.
const (
	UnitWeight = "weight"
	UnitPiece  = "piece"
	UnitItem   = "item"
)

func validUnitType(s string) bool {
	return s == UnitWeight || s == UnitPiece || s == UnitItem
}

// Service is one catalog offering, e.g. "Wash & Fold".
type Service struct {
	ID          int64  `json:"service_id"`
	Name        string `json:"service_name"`
	Description string `json:"description,omitempty"`
	UnitType    string `json:"unit_type"`
	Active      bool   `json:"is_active"`
	// Joined from the open price interval on reads; NUMERIC -> string.
	CurrentPrice string `json:"current_price,omitempty"`
}

// PriceEntry is one effective-dated price interval. An interval with a
// nil EffectiveTo is the one currently in effect.
type PriceEntry struct {
	ID            int64      `json:"service_price_id"`
	ServiceID     int64      `json:"service_id"`
	Price         string     `json:"price_per_unit"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
}

// CreateServiceRequest is the admin payload for a new offering.
// swagger:model CreateServiceRequest
type CreateServiceRequest struct {
	Name        string `json:"service_name" example:"Wash & Fold"`
	Description string `json:"description"  example:"Machine wash, tumble dry, folded"`
	UnitType    string `json:"unit_type"    example:"weight"`
	Price       string `json:"price"        example:"100.00"`
}

// UpdateServiceRequest is a partial update; empty fields keep their
// current value. A non-empty Price opens a new price interval.
// swagger:model UpdateServiceRequest
type UpdateServiceRequest struct {
	Name        string `json:"service_name"`
	Description string `json:"description"`
	UnitType    string `json:"unit_type"`
	Price       string `json:"price"`
}
