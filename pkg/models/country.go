package models

import "time"

// Country is a destination in the catalog. Codes are ISO style but stored as
// plain text since upstream feeds are not strict about them.
type Country struct {
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
