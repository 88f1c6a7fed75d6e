package api

import "context"

// UsageSummary fetches the account's analysis counters.
func (c *Client) UsageSummary(ctx context.Context) (*UsageSummary, error) {
	var out UsageSummary
	if err := c.getJSON(ctx, "/analytics/usage/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UsageDaily fetches the 30-day analysis series.
func (c *Client) UsageDaily(ctx context.Context) ([]DailyPoint, error) {
	var out struct {
		Data []DailyPoint `json:"data"`
	}
	if err := c.getJSON(ctx, "/analytics/usage/daily", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
