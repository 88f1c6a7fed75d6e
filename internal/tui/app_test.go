package tui

import (
	"testing"
	"unicode/utf8"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/query"
	"github.com/ecakir/sift/internal/session"
	"github.com/ecakir/sift/internal/state"
)

func newTestModel(t *testing.T) AppModel {
	t.Helper()
	store, err := state.Open(t.TempDir())
	if err != nil {
		t.Fatalf("state.Open failed: %v", err)
	}
	client := api.New("http://127.0.0.1:1", store)
	return NewAppModel(client, session.New(client, store), config.DefaultConfig())
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		query    string
		category string
	}{
		{name: "empty", input: "", query: "", category: ""},
		{name: "plain words", input: "quarterly report", query: "quarterly report", category: ""},
		{name: "category only", input: "category:spam", query: "", category: "spam"},
		{name: "mixed", input: "refund category:invoice urgent", query: "refund urgent", category: "invoice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parseFilter(tt.input)
			if *p.Query != tt.query {
				t.Errorf("query = %q, want %q", *p.Query, tt.query)
			}
			if *p.Category != tt.category {
				t.Errorf("category = %q, want %q", *p.Category, tt.category)
			}
		})
	}
}

func TestUpdate_StalePageIgnored(t *testing.T) {
	m := newTestModel(t)
	m.view = viewList
	m.page = query.Page{Total: 5, Current: 2, Pages: 3}

	updated, _ := m.Update(pageLoadedMsg{page: query.Page{Total: 1, Current: 1, Pages: 1}, applied: false})
	got := updated.(*AppModel)
	if got.page.Current != 2 || got.page.Total != 5 {
		t.Errorf("stale page replaced the view: %+v", got.page)
	}
}

func TestUpdate_AppliedPageInstalls(t *testing.T) {
	m := newTestModel(t)
	m.view = viewList
	m.cursor = 7

	updated, _ := m.Update(pageLoadedMsg{page: query.Page{
		Items: []api.Email{{ID: 1, Content: "a"}, {ID: 2, Content: "b"}},
		Total: 2, Current: 1, Pages: 1,
	}, applied: true})
	got := updated.(*AppModel)
	if got.page.Total != 2 {
		t.Errorf("page = %+v", got.page)
	}
	if got.cursor != 1 {
		t.Errorf("cursor = %d, want clamped to 1", got.cursor)
	}
}

func TestSubjectOf(t *testing.T) {
	if got := subjectOf(api.Email{}); got != "(no subject)" {
		t.Errorf("subjectOf = %q", got)
	}
	s := "hello"
	if got := subjectOf(api.Email{Subject: &s}); got != "hello" {
		t.Errorf("subjectOf = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	long := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if got := truncate(long, 10); len([]rune(got)) != 10 {
		t.Errorf("truncate length = %d", len([]rune(got)))
	}
	// Multi-byte subjects must not be cut mid-rune.
	if got := truncate("Rechnung fällig: Überweisung", 12); !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	} else if len([]rune(got)) != 12 {
		t.Errorf("truncate rune length = %d", len([]rune(got)))
	}
}
