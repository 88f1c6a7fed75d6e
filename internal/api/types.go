package api

import (
	"encoding/json"
	"fmt"
)

// User is the authenticated account returned by /auth/me.
type User struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
}

// Email is one analyzed email record. The server owns these; the client
// only ever holds the currently displayed page. CreatedAt is kept as the
// wire string since the backend emits naive ISO 8601 timestamps.
type Email struct {
	ID              int64   `json:"id"`
	Subject         *string `json:"subject,omitempty"`
	Content         string  `json:"content"`
	Summary         *string `json:"summary,omitempty"`
	Category        *string `json:"category,omitempty"`
	ConfidenceScore *int    `json:"confidence_score,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// Categories is the label set the analyzer assigns from.
type Categories []string

// DefaultCategories mirrors the backend's built-in label set, used as a
// fallback when the categories endpoint is unreachable.
var DefaultCategories = Categories{
	"important", "invoice", "meeting", "spam",
	"newsletter", "social", "promotion", "other",
}

// PageMeta is the pagination envelope the list/search endpoints attach.
type PageMeta struct {
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Pages    int  `json:"pages"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
}

// EmailsPayload is the raw result of a list or search call. The backend has
// returned two shapes over time: a bare array and {data, pagination}; both
// decode here, with Meta nil for the bare-array shape.
type EmailsPayload struct {
	Items []Email
	Meta  *PageMeta
}

// UnmarshalJSON accepts either wire shape.
func (p *EmailsPayload) UnmarshalJSON(data []byte) error {
	var items []Email
	if err := json.Unmarshal(data, &items); err == nil {
		p.Items = items
		p.Meta = nil
		return nil
	}

	var envelope struct {
		Data       []Email   `json:"data"`
		Pagination *PageMeta `json:"pagination"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("emails payload is neither an array nor an envelope: %w", err)
	}
	p.Items = envelope.Data
	p.Meta = envelope.Pagination
	return nil
}

// UsageSummary holds the account's analysis counters.
type UsageSummary struct {
	TotalAnalyses int `json:"total_analyses"`
	MonthAnalyses int `json:"month_analyses"`
	QuotaLimit    int `json:"quota_limit"`
}

// DailyPoint is one day of the usage series.
type DailyPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// GmailStatus reports the backend-managed Gmail link.
type GmailStatus struct {
	Connected      bool    `json:"connected"`
	TokenExpiresAt *string `json:"token_expires_at"`
}
