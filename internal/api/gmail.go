package api

import "context"

// Gmail linking is handled entirely by the backend's OAuth helpers; the
// client only relays the redirect URL and the link status.

// GmailConnectURL returns the provider URL the user should open to link
// their mailbox.
func (c *Client) GmailConnectURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, "/gmail/connect_url", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// GmailStatus reports whether a mailbox is linked.
func (c *Client) GmailStatus(ctx context.Context) (*GmailStatus, error) {
	var out GmailStatus
	if err := c.getJSON(ctx, "/gmail/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GmailDisconnect unlinks the mailbox.
func (c *Client) GmailDisconnect(ctx context.Context) error {
	return c.postJSON(ctx, "/gmail/disconnect", nil, nil)
}
