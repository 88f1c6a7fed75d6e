package web

import (
	"net/http"
	"strconv"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/errors"
	"github.com/ecakir/sift/internal/query"
	"github.com/ecakir/sift/internal/session"
)

// Handlers holds dependencies for web UI handlers.
type Handlers struct {
	client   *api.Client
	sess     *session.Manager
	cfg      *config.Config
	renderer *Renderer
}

// HandleLoginPage serves the login form.
func (h *Handlers) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "login", LoginPageData{
		PageData: PageData{Title: "Sign in"},
	})
}

// HandleLogin processes the login form.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("malformed form"))
		return
	}
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")
	captcha := r.PostForm.Get("captcha_token")

	if err := h.sess.Login(r.Context(), email, password, captcha); err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, errors.ErrValidation) {
			status = http.StatusBadRequest
		}
		h.renderer.renderPageStatus(w, r, status, "login", LoginPageData{
			PageData: PageData{Title: "Sign in"},
			Email:    email,
			Message:  err.Error(),
		})
		return
	}
	http.Redirect(w, r, "/emails", http.StatusSeeOther)
}

// HandleLogout discards the session and returns to the login form.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Logout(); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleList serves the email listing with filters and pagination.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.sess.TokenPresent() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	page := 1
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}
	var minConfidence *int
	if q.Get("min_confidence") != "" {
		if n, err := strconv.Atoi(q.Get("min_confidence")); err == nil && n >= 0 {
			minConfidence = &n
		}
	}

	ctl := query.New(h.client, h.cfg.PageSize)
	qv, cat, from, to := q.Get("q"), q.Get("category"), q.Get("date_from"), q.Get("date_to")
	ctl.SetParams(query.Patch{
		Query:         &qv,
		Category:      &cat,
		DateFrom:      &from,
		DateTo:        &to,
		MinConfidence: minConfidence,
	})

	result, _, err := ctl.Do(r.Context(), ctl.SetPage(page))
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}

	// Category options are cosmetic; the page still works without them.
	cats, err := h.client.Categories(r.Context())
	if err != nil {
		cats = api.DefaultCategories
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData:      PageData{Title: "Emails", Nav: "emails", LoggedIn: true},
		Page:          result,
		Query:         qv,
		Category:      cat,
		Categories:    cats,
		DateFrom:      from,
		DateTo:        to,
		MinConfidence: q.Get("min_confidence"),
	})
}

// HandleDetail serves a single email with its summary rendered as HTML.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	if !h.sess.TokenPresent() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid email id"))
		return
	}

	email, err := h.client.GetEmail(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}

	var summaryHTML = renderMarkdown("")
	if email.Summary != nil {
		summaryHTML = renderMarkdown(*email.Summary)
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:    PageData{Title: "Email", Nav: "emails", LoggedIn: true},
		Email:       email,
		SummaryHTML: summaryHTML,
	})
}

// HandleDelete removes an email and returns to the listing.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid email id"))
		return
	}

	if err := h.client.DeleteEmail(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/emails", http.StatusSeeOther)
}

// HandleUsage serves the quota usage page.
func (h *Handlers) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if !h.sess.TokenPresent() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	summary, err := h.client.UsageSummary(r.Context())
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}
	daily, err := h.client.UsageDaily(r.Context())
	if err != nil {
		daily = nil
	}

	h.renderer.renderPage(w, r, "usage", UsagePageData{
		PageData: PageData{Title: "Usage", Nav: "usage", LoggedIn: true},
		Summary:  summary,
		Daily:    daily,
	})
}

// HandleHealth reports backend reachability as JSON.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Health(r.Context()); err != nil {
		renderJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"ok": true})
}
