package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/history"
	"github.com/ecakir/sift/internal/session"
	"github.com/ecakir/sift/internal/state"
)

// testSetup wires handlers against a fake backend and a temp state dir.
func testSetup(t *testing.T, backend http.Handler) (*Handlers, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	store, err := state.Open(dir)
	if err != nil {
		t.Fatalf("failed to open state: %v", err)
	}
	db, err := history.Init(dir)
	if err != nil {
		t.Fatalf("failed to init history: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	client := api.New(srv.URL, store)
	sess := session.New(client, store)
	cfg := config.DefaultConfig()
	return NewHandlers(client, sess, history.NewStore(db), cfg), srv
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultJSON decodes the first text content of a tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, text.Text)
	}
	return out
}

func TestHandleAnalyze_RecordsHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /emails/analyze", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "subject": "Invoice #7", "content": "pay up",
			"category": "invoice", "confidence_score": 93,
		})
	})
	h, _ := testSetup(t, mux)

	res, err := h.HandleAnalyze(context.Background(), makeRequest(map[string]any{
		"subject": "Invoice #7",
		"content": "pay up",
	}))
	if err != nil {
		t.Fatalf("HandleAnalyze failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %v", res.Content)
	}
	out := resultJSON(t, res)
	if out["category"] != "invoice" {
		t.Errorf("category = %v", out["category"])
	}

	entries, err := h.hist.Recent(0, "")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Category != "invoice" || entries[0].RemoteID != 42 {
		t.Errorf("history entries = %+v", entries)
	}
}

func TestHandleAnalyze_RequiresContent(t *testing.T) {
	h, _ := testSetup(t, http.NewServeMux())

	res, err := h.HandleAnalyze(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleAnalyze failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	out := resultJSON(t, res)
	errObj, _ := out["error"].(map[string]any)
	if errObj["code"] != "INVALID_REQUEST" {
		t.Errorf("error = %v", out)
	}
}

func TestHandleList_FilterUsesSearch(t *testing.T) {
	var searchHits, listHits int
	mux := http.NewServeMux()
	mux.HandleFunc("GET /emails", func(w http.ResponseWriter, r *http.Request) {
		listHits++
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("GET /emails/search", func(w http.ResponseWriter, r *http.Request) {
		searchHits++
		if got := r.URL.Query().Get("category"); got != "spam" {
			t.Errorf("category = %q", got)
		}
		w.Write([]byte(`{"data": [], "pagination": {"total": 0, "page": 1, "page_size": 10, "pages": 0}}`))
	})
	h, _ := testSetup(t, mux)

	res, err := h.HandleList(context.Background(), makeRequest(map[string]any{"category": "spam"}))
	if err != nil {
		t.Fatalf("HandleList failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %v", res.Content)
	}
	if searchHits != 1 || listHits != 0 {
		t.Errorf("hits: search=%d list=%d", searchHits, listHits)
	}
}

func TestHandleWhoami_NotLoggedIn(t *testing.T) {
	h, _ := testSetup(t, http.NewServeMux())

	res, err := h.HandleWhoami(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleWhoami failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	out := resultJSON(t, res)
	errObj, _ := out["error"].(map[string]any)
	if errObj["code"] != "UNAUTHORIZED" {
		t.Errorf("error = %v", out)
	}
}

func TestHandleDelete(t *testing.T) {
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /emails/9", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	h, _ := testSetup(t, mux)

	res, err := h.HandleDelete(context.Background(), makeRequest(map[string]any{"id": 9}))
	if err != nil {
		t.Fatalf("HandleDelete failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %v", res.Content)
	}
	if deleted != "/emails/9" {
		t.Errorf("deleted path = %q", deleted)
	}
}

func TestErrorResult_QuotaExceeded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /emails/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"detail": "Monthly analysis limit reached"}`))
	})
	h, _ := testSetup(t, mux)

	res, err := h.HandleAnalyze(context.Background(), makeRequest(map[string]any{"content": "x"}))
	if err != nil {
		t.Fatalf("HandleAnalyze failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	out := resultJSON(t, res)
	errObj, _ := out["error"].(map[string]any)
	if errObj["code"] != "QUOTA_EXCEEDED" {
		t.Errorf("code = %v", errObj["code"])
	}
	if errObj["message"] != "Monthly analysis limit reached" {
		t.Errorf("message = %v", errObj["message"])
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"email_list", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v", unknown)
	}
}

func TestGetTypeForTool(t *testing.T) {
	if got := GetTypeForTool("email_list"); got != "email" {
		t.Errorf("GetTypeForTool = %q", got)
	}
	if got := GetTypeForTool("nounderscore"); got != "" {
		t.Errorf("GetTypeForTool = %q", got)
	}
}

func TestAllToolNames_CoversRegistry(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Errorf("len(names) = %d, want %d", len(names), len(toolRegistry))
	}
}
