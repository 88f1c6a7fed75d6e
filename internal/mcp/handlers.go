package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/errors"
	"github.com/ecakir/sift/internal/history"
	"github.com/ecakir/sift/internal/query"
	"github.com/ecakir/sift/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	client *api.Client
	sess   *session.Manager
	hist   *history.Store
	cfg    *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *api.Client, sess *session.Manager, hist *history.Store, cfg *config.Config) *Handlers {
	return &Handlers{client: client, sess: sess, hist: hist, cfg: cfg}
}

// Request types for each tool

// LoginRequest represents the arguments for auth_login.
type LoginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token,omitempty"`
}

// RegisterRequest represents the arguments for auth_register.
type RegisterRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FullName     *string `json:"full_name,omitempty"`
	CaptchaToken string  `json:"captcha_token,omitempty"`
}

// AnalyzeRequest represents the arguments for email_analyze.
type AnalyzeRequest struct {
	Subject string `json:"subject,omitempty"`
	Content string `json:"content"`
}

// ListRequest represents the arguments for email_list.
type ListRequest struct {
	Query         string `json:"query,omitempty"`
	Category      string `json:"category,omitempty"`
	DateFrom      string `json:"date_from,omitempty"`
	DateTo        string `json:"date_to,omitempty"`
	MinConfidence *int   `json:"min_confidence,omitempty"`
	Page          int    `json:"page,omitempty"`
	PageSize      int    `json:"page_size,omitempty"`
}

// IDRequest represents the arguments for email_get and email_delete.
type IDRequest struct {
	ID int64 `json:"id"`
}

// UsageRequest represents the arguments for usage_summary.
type UsageRequest struct {
	Daily bool `json:"daily,omitempty"`
}

// HistoryRequest represents the arguments for history_recent.
type HistoryRequest struct {
	Limit    int    `json:"limit,omitempty"`
	Category string `json:"category,omitempty"`
}

// HandleLogin handles the auth_login tool call.
func (h *Handlers) HandleLogin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LoginRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.sess.Login(ctx, input.Email, input.Password, input.CaptchaToken); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"logged_in": h.sess.State() == session.LoggedIn,
		"user":      h.sess.User(),
	})
}

// HandleRegister handles the auth_register tool call.
func (h *Handlers) HandleRegister(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RegisterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.sess.Register(ctx, api.RegisterInput{
		Email:        input.Email,
		Password:     input.Password,
		FullName:     input.FullName,
		CaptchaToken: input.CaptchaToken,
	}); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"registered": true,
		"logged_in":  h.sess.State() == session.LoggedIn,
	})
}

// HandleLogout handles the auth_logout tool call.
func (h *Handlers) HandleLogout(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.sess.Logout(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"logged_out": true})
}

// HandleWhoami handles the auth_whoami tool call.
func (h *Handlers) HandleWhoami(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.sess.Restore(ctx); err != nil {
		return errorResult(err), nil
	}
	if h.sess.State() != session.LoggedIn {
		return errorResult(errors.NewUnauthorized("not logged in")), nil
	}
	return successResult(h.sess.User())
}

// HandleAnalyze handles the email_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Content == "" {
		return errorResult(errors.NewInvalidRequest("content is required")), nil
	}

	email, err := h.client.AnalyzeEmail(ctx, api.AnalyzeInput{Subject: input.Subject, Content: input.Content})
	if err != nil {
		return errorResult(err), nil
	}
	h.recordAnalysis(email)
	return successResult(email)
}

// HandleList handles the email_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = h.cfg.PageSize
	}

	ctl := query.New(h.client, pageSize)
	ctl.SetParams(query.Patch{
		Query:         &input.Query,
		Category:      &input.Category,
		DateFrom:      &input.DateFrom,
		DateTo:        &input.DateTo,
		MinConfidence: input.MinConfidence,
	})
	page := input.Page
	if page < 1 {
		page = 1
	}

	result, _, err := ctl.Do(ctx, ctl.SetPage(page))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGet handles the email_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	email, err := h.client.GetEmail(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(email)
}

// HandleDelete handles the email_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.client.DeleteEmail(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandleCategories handles the email_categories tool call.
func (h *Handlers) HandleCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := h.client.Categories(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(cats)
}

// HandleUsage handles the usage_summary tool call.
func (h *Handlers) HandleUsage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UsageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	summary, err := h.client.UsageSummary(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if !input.Daily {
		return successResult(summary)
	}
	daily, err := h.client.UsageDaily(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"summary": summary, "daily": daily})
}

// HandleGmailStatus handles the gmail_status tool call.
func (h *Handlers) HandleGmailStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.client.GmailStatus(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(status)
}

// HandleGmailConnect handles the gmail_connect tool call.
func (h *Handlers) HandleGmailConnect(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := h.client.GmailConnectURL(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"url": url})
}

// HandleGmailDisconnect handles the gmail_disconnect tool call.
func (h *Handlers) HandleGmailDisconnect(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.client.GmailDisconnect(ctx); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"disconnected": true})
}

// HandleHealth handles the health_check tool call.
func (h *Handlers) HandleHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.client.Health(ctx); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"ok": true, "url": h.client.BaseURL()})
}

// HandleHistory handles the history_recent tool call.
func (h *Handlers) HandleHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.hist == nil {
		return errorResult(errors.NewInvalidRequest("history is disabled in config")), nil
	}
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	entries, err := h.hist.Recent(input.Limit, input.Category)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return successResult(entries)
}

func (h *Handlers) recordAnalysis(email *api.Email) {
	if h.hist == nil || email == nil {
		return
	}
	subject, category, confidence := "", "", 0
	if email.Subject != nil {
		subject = *email.Subject
	}
	if email.Category != nil {
		category = *email.Category
	}
	if email.ConfidenceScore != nil {
		confidence = *email.ConfidenceScore
	}
	_, _ = h.hist.Record(email.ID, subject, category, confidence)
}

// errorResult creates an MCP error result with a structured payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		errorObj := map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"status":  apiErr.Status,
		}
		// Only include details for non-server errors to avoid leaking
		// internal state from the backend.
		if apiErr.Code != errors.ErrServer && apiErr.Details != nil {
			errorObj["details"] = apiErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "SERVER",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
