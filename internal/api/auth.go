package api

import (
	"context"
	"net/url"

	"github.com/ecakir/sift/internal/errors"
)

// RegisterInput contains the fields for account creation. CaptchaToken is
// the opaque value produced by the third-party widget, forwarded untouched.
type RegisterInput struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FullName     *string `json:"full_name,omitempty"`
	CaptchaToken string  `json:"captcha_token,omitempty"`
}

// Login exchanges credentials for a bearer token. The endpoint speaks
// form-encoded OAuth2 password flow: username/password fields.
func (c *Client) Login(ctx context.Context, email, password, captchaToken string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	if captchaToken != "" {
		form.Set("captcha_token", captchaToken)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.postForm(ctx, "/auth/login", form, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.NewInternal(nil)
	}
	return out.AccessToken, nil
}

// Register creates an account. It does NOT establish a session; whether to
// log in afterwards is the caller's decision.
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	return c.postJSON(ctx, "/auth/register", in, nil)
}

// Me fetches the profile the current token belongs to. A 401 here means the
// token is invalid or expired.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.getJSON(ctx, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
