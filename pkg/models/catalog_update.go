package models

// CatalogUpdateMessage is the payload published on the plan catalog topic.
// One message carries the full replacement batch for a single country.
type CatalogUpdateMessage struct {
	CountryCode string               `json:"country_code"`
	Plans       []CatalogUpdateEntry `json:"plans"`
}

// CatalogUpdateEntry is one plan inside a catalog update. ID is optional;
// entries without one are treated as new rows.
type CatalogUpdateEntry struct {
	ID             *string        `json:"id,omitempty"`
	DataAmount     float64        `json:"data_amount"`
	DataUnit       string         `json:"data_unit"`
	DurationInDays int            `json:"duration_in_days"`
	Price          float64        `json:"price"`
	PlanOption     *string        `json:"plan_option,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
