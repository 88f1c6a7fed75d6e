package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SearchParams are the filters accepted by /emails/search. Zero-valued
// fields are omitted from the query string.
type SearchParams struct {
	Query         string
	Category      string
	DateFrom      string // YYYY-MM-DD or full timestamp
	DateTo        string
	MinConfidence *int
	Page          int
	PageSize      int
}

// AnalyzeInput is the payload for /emails/analyze.
type AnalyzeInput struct {
	Subject string `json:"subject,omitempty"`
	Content string `json:"content"`
}

// ListEmails fetches one page of the plain (unfiltered) listing.
func (c *Client) ListEmails(ctx context.Context, page, pageSize int) (*EmailsPayload, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var payload EmailsPayload
	if err := c.getJSON(ctx, "/emails", query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchEmails fetches one page of the filtered listing.
func (c *Client) SearchEmails(ctx context.Context, p SearchParams) (*EmailsPayload, error) {
	query := url.Values{}
	if p.Query != "" {
		query.Set("q", p.Query)
	}
	if p.Category != "" {
		query.Set("category", p.Category)
	}
	if p.DateFrom != "" {
		query.Set("date_from", p.DateFrom)
	}
	if p.DateTo != "" {
		query.Set("date_to", p.DateTo)
	}
	if p.MinConfidence != nil {
		query.Set("min_confidence", strconv.Itoa(*p.MinConfidence))
	}
	if p.Page > 0 {
		query.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(p.PageSize))
	}

	var payload EmailsPayload
	if err := c.getJSON(ctx, "/emails/search", query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AnalyzeEmail submits content for analysis; the backend persists and
// returns the derived record.
func (c *Client) AnalyzeEmail(ctx context.Context, in AnalyzeInput) (*Email, error) {
	var email Email
	if err := c.postJSON(ctx, "/emails/analyze", in, &email); err != nil {
		return nil, err
	}
	return &email, nil
}

// GetEmail fetches a single record by ID.
func (c *Client) GetEmail(ctx context.Context, id int64) (*Email, error) {
	var email Email
	if err := c.getJSON(ctx, fmt.Sprintf("/emails/%d", id), nil, &email); err != nil {
		return nil, err
	}
	return &email, nil
}

// DeleteEmail removes a record by ID.
func (c *Client) DeleteEmail(ctx context.Context, id int64) error {
	return c.deleteReq(ctx, fmt.Sprintf("/emails/%d", id))
}

// Categories lists the labels the classifier can assign.
func (c *Client) Categories(ctx context.Context) (Categories, error) {
	var cats Categories
	if err := c.getJSON(ctx, "/emails/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}
