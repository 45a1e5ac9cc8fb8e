package models

import "time"

// Intent is the structured reading of a single user message. Every filter
// field is a pointer so "not mentioned" stays distinct from a zero value; a
// nil field must never be narrowed into a filter.
type Intent struct {
	CountryName    *string  `json:"country_name"`
	CountryCode    *string  `json:"country_code"`
	DataAmount     *float64 `json:"data_amount"`
	DataUnit       *string  `json:"data_unit"` // "MB" or "GB"
	DurationInDays *int     `json:"duration_in_days"`
	ChatText       string   `json:"chat_response"`
}

// HasCountryName reports whether the message named a destination.
func (i Intent) HasCountryName() bool {
	return i.CountryName != nil && *i.CountryName != ""
}

// ConversationTurn is one prior exchange in a session, kept so follow up
// messages like "what about 10GB?" can be read in context.
type ConversationTurn struct {
	UserMessage string    `json:"user_message"`
	ChatText    string    `json:"chat_response"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContextDocument is a knowledge snippet retrieved for a message and folded
// into the extraction prompt.
type ContextDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
