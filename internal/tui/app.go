// Package tui is a terminal dashboard over the triage backend: log in,
// browse and filter analyzed emails, inspect one, delete one.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/query"
	"github.com/ecakir/sift/internal/session"
)

const healthInterval = 15 * time.Second

type viewState int

const (
	viewLogin  viewState = iota
	viewList             // main email listing
	viewDetail           // single email
)

type AppModel struct {
	client *api.Client
	sess   *session.Manager
	ctl    *query.Controller

	view   viewState
	status string
	Err    error

	// Login form
	emailInput textinput.Model
	passInput  textinput.Model
	focusPass  bool

	// List view
	page      query.Page
	cursor    int
	filtering bool
	filter    textinput.Model

	// Detail view
	detail       *api.Email
	bodyViewport viewport.Model

	healthOK bool

	width, height int
}

func NewAppModel(client *api.Client, sess *session.Manager, cfg *config.Config) AppModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword

	filter := textinput.New()
	filter.Placeholder = "search or category:spam"

	view := viewLogin
	if sess.State() == session.LoggedIn || sess.TokenPresent() {
		view = viewList
	}

	return AppModel{
		client:       client,
		sess:         sess,
		ctl:          query.New(client, cfg.PageSize),
		view:         view,
		emailInput:   email,
		passInput:    pass,
		filter:       filter,
		bodyViewport: viewport.New(0, 0),
	}
}

func (m *AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.healthCmd(), textinput.Blink}
	if m.view == viewList {
		cmds = append(cmds, m.fetchCmd(m.ctl.Refresh()))
	}
	return tea.Batch(cmds...)
}

// fetchCmd executes a listing request. The controller drops responses
// that a newer request has already superseded.
func (m *AppModel) fetchCmd(req query.Request) tea.Cmd {
	return func() tea.Msg {
		page, applied, err := m.ctl.Do(context.Background(), req)
		return pageLoadedMsg{page: page, applied: applied, err: err}
	}
}

func (m *AppModel) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg{err: m.sess.Login(context.Background(), email, password, "")}
	}
}

func (m *AppModel) detailCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		email, err := m.client.GetEmail(context.Background(), id)
		return detailLoadedMsg{email: email, err: err}
	}
}

func (m *AppModel) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		err := m.ctl.DeleteItem(context.Background(), id)
		return deleteResultMsg{page: m.ctl.Current(), err: err}
	}
}

func (m *AppModel) healthCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthMsg{ok: m.client.Health(ctx) == nil}
	}
}

func healthTick() tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg {
		return statusMsg("health")
	})
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg("")
	})
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bodyViewport.Width = msg.Width
		m.bodyViewport.Height = msg.Height - 6 // room for header + footer
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginResultMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, clearStatusAfter(3 * time.Second)
		}
		m.view = viewList
		m.status = "signed in"
		return m, tea.Batch(m.fetchCmd(m.ctl.Refresh()), clearStatusAfter(2*time.Second))

	case pageLoadedMsg:
		if !msg.applied {
			return m, nil
		}
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, clearStatusAfter(3 * time.Second)
		}
		m.page = msg.page
		if m.cursor >= len(m.page.Items) {
			m.cursor = max(0, len(m.page.Items)-1)
		}
		return m, nil

	case detailLoadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, clearStatusAfter(3 * time.Second)
		}
		m.detail = msg.email
		m.bodyViewport.SetContent(detailBody(msg.email))
		m.bodyViewport.GotoTop()
		m.view = viewDetail
		return m, nil

	case deleteResultMsg:
		if msg.err != nil {
			m.status = "delete failed: " + msg.err.Error()
		} else {
			m.page = msg.page
			if m.cursor >= len(m.page.Items) {
				m.cursor = max(0, len(m.page.Items)-1)
			}
			m.status = "deleted"
		}
		return m, clearStatusAfter(2 * time.Second)

	case healthMsg:
		m.healthOK = msg.ok
		return m, healthTick()

	case statusMsg:
		if msg == "health" {
			return m, m.healthCmd()
		}
		m.status = string(msg)
		return m, nil
	}

	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.view {
	case viewLogin:
		return m.handleLoginKey(msg)
	case viewList:
		return m.handleListKey(msg)
	case viewDetail:
		return m.handleDetailKey(msg)
	}
	return m, nil
}

func (m *AppModel) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusPass = !m.focusPass
		if m.focusPass {
			m.emailInput.Blur()
			return m, m.passInput.Focus()
		}
		m.passInput.Blur()
		return m, m.emailInput.Focus()
	case "enter":
		if !m.focusPass {
			m.focusPass = true
			m.emailInput.Blur()
			return m, m.passInput.Focus()
		}
		m.status = "signing in..."
		return m, m.loginCmd(m.emailInput.Value(), m.passInput.Value())
	}

	var cmd tea.Cmd
	if m.focusPass {
		m.passInput, cmd = m.passInput.Update(msg)
	} else {
		m.emailInput, cmd = m.emailInput.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.String() {
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, m.fetchCmd(m.ctl.SetParams(parseFilter(m.filter.Value())))
		case "esc":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "r":
		return m, m.fetchCmd(m.ctl.Refresh())
	case "n", "right":
		if m.page.Current < m.page.Pages {
			return m, m.fetchCmd(m.ctl.SetPage(m.page.Current + 1))
		}
	case "p", "left":
		if m.page.Current > 1 {
			return m, m.fetchCmd(m.ctl.SetPage(m.page.Current - 1))
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.page.Items)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.page.Items) {
			return m, m.detailCmd(m.page.Items[m.cursor].ID)
		}
	case "d":
		if m.cursor < len(m.page.Items) {
			m.status = "deleting..."
			return m, m.deleteCmd(m.page.Items[m.cursor].ID)
		}
	}
	return m, nil
}

func (m *AppModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.view = viewList
		m.detail = nil
		return m, nil
	case "d":
		if m.detail != nil {
			id := m.detail.ID
			m.view = viewList
			m.detail = nil
			m.status = "deleting..."
			return m, m.deleteCmd(id)
		}
	}
	var cmd tea.Cmd
	m.bodyViewport, cmd = m.bodyViewport.Update(msg)
	return m, cmd
}

// parseFilter reads the filter input. Plain words become the search
// query; a "category:x" token narrows by category.
func parseFilter(raw string) query.Patch {
	var q, category strings.Builder
	for _, tok := range strings.Fields(raw) {
		if after, ok := strings.CutPrefix(tok, "category:"); ok {
			category.WriteString(after)
			continue
		}
		if q.Len() > 0 {
			q.WriteByte(' ')
		}
		q.WriteString(tok)
	}
	qs, cs := q.String(), category.String()
	return query.Patch{Query: &qs, Category: &cs}
}

func (m *AppModel) View() string {
	var b strings.Builder

	switch m.view {
	case viewLogin:
		b.WriteString("  sift · sign in\n\n")
		b.WriteString("  " + m.emailInput.View() + "\n")
		b.WriteString("  " + m.passInput.View() + "\n\n")
		b.WriteString("  tab: switch field · enter: sign in · ctrl+c: quit\n")

	case viewList:
		b.WriteString(fmt.Sprintf("  sift · %d emails · page %d/%d · backend %s\n\n",
			m.page.Total, m.page.Current, max(1, m.page.Pages), healthBadge(m.healthOK)))
		if m.filtering {
			b.WriteString("  " + m.filter.View() + "\n\n")
		}
		if len(m.page.Items) == 0 {
			b.WriteString("  no emails\n")
		}
		for i, e := range m.page.Items {
			marker := "  "
			if i == m.cursor {
				marker = "> "
			}
			b.WriteString(fmt.Sprintf("  %s%-40s %-12s %s\n",
				marker, truncate(subjectOf(e), 40), derefStr(e.Category), confidenceOf(e)))
		}
		b.WriteString("\n  /: filter · n/p: page · enter: open · d: delete · r: refresh · q: quit\n")

	case viewDetail:
		if m.detail != nil {
			b.WriteString(fmt.Sprintf("  %s · %s %s\n\n",
				subjectOf(*m.detail), derefStr(m.detail.Category), confidenceOf(*m.detail)))
		}
		b.WriteString(m.bodyViewport.View() + "\n")
		b.WriteString("\n  esc: back · d: delete · q: back\n")
	}

	if m.status != "" {
		b.WriteString("\n  " + m.status + "\n")
	}
	return b.String()
}

func detailBody(e *api.Email) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Summary != nil && *e.Summary != "" {
		b.WriteString("Summary\n\n" + *e.Summary + "\n\n")
	}
	b.WriteString(e.Content)
	return b.String()
}

func subjectOf(e api.Email) string {
	if e.Subject != nil && *e.Subject != "" {
		return *e.Subject
	}
	return "(no subject)"
}

func confidenceOf(e api.Email) string {
	if e.ConfidenceScore == nil {
		return ""
	}
	return fmt.Sprintf("%d%%", *e.ConfidenceScore)
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func healthBadge(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run restores any persisted session and starts the dashboard.
func Run(client *api.Client, sess *session.Manager, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// A dead token just lands us on the login view.
	_ = sess.Restore(ctx)

	m := NewAppModel(client, sess, cfg)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
