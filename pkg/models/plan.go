package models

import (
	"time"

	"github.com/Ramsey-B/sage/pkg/database"
)

// Plan is a single prepaid data plan row in the catalog.
type Plan struct {
	ID             string                         `json:"id" db:"id"`
	CountryCode    string                         `json:"country_code" db:"country_code"`
	DataAmount     float64                        `json:"data_amount" db:"data_amount"`
	DataUnit       string                         `json:"data_unit" db:"data_unit"` // "MB" or "GB"
	DurationInDays int                            `json:"duration_in_days" db:"duration_in_days"`
	Price          float64                        `json:"price" db:"price"`
	PlanOption     *string                        `json:"plan_option,omitempty" db:"plan_option"` // provider label, e.g. "unlimited social"
	Metadata       database.JSONB[map[string]any] `json:"-" db:"metadata"`
	CreatedAt      time.Time                      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time                      `json:"updated_at" db:"updated_at"`
}

// PlanView is the client facing projection of a plan. The country is the
// canonical display name, not the stored code.
type PlanView struct {
	Country        string  `json:"country"`
	DataAmount     float64 `json:"data_amount"`
	DataUnit       string  `json:"data_unit"`
	DurationInDays int     `json:"duration_in_days"`
	Price          float64 `json:"price"`
	PlanOption     *string `json:"plan_option,omitempty"`
}
