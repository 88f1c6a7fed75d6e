// Package query keeps a filtered, paginated view of the remote email
// collection consistent across concurrent fetches. Callers mutate the
// desired view (filters, page) and replay the returned Request; responses
// that arrive after a newer request was issued are discarded so the view
// never moves backwards.
package query

import (
	"context"
	"strings"
	"sync"

	"github.com/ecakir/sift/internal/api"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Backend is the slice of the API client the controller needs.
type Backend interface {
	ListEmails(ctx context.Context, page, pageSize int) (*api.EmailsPayload, error)
	SearchEmails(ctx context.Context, p api.SearchParams) (*api.EmailsPayload, error)
	DeleteEmail(ctx context.Context, id int64) error
}

// Params is the active filter set. Zero values mean "no filter".
type Params struct {
	Query         string
	Category      string
	DateFrom      string
	DateTo        string
	MinConfidence *int
}

func (p Params) active() bool {
	return p.Query != "" || p.Category != "" || p.DateFrom != "" ||
		p.DateTo != "" || p.MinConfidence != nil
}

// Patch mutates a subset of Params. Nil fields are left untouched; a
// negative MinConfidence clears the confidence floor.
type Patch struct {
	Query         *string
	Category      *string
	DateFrom      *string
	DateTo        *string
	MinConfidence *int
}

// Page is one normalized page of results regardless of which payload
// shape the backend produced.
type Page struct {
	Items    []api.Email
	Total    int
	Current  int
	Pages    int
	PageSize int
}

// Request is a snapshot of the view at issue time. Execute it with Do;
// the sequence number decides whether the response still matters.
type Request struct {
	Seq    uint64
	Params Params
	Page   int
}

// Controller serializes view changes for a single email listing.
type Controller struct {
	backend  Backend
	pageSize int

	mu      sync.Mutex
	params  Params
	page    int
	seq     uint64 // newest issued request
	applied uint64 // newest applied response
	current Page
	err     error
}

func New(backend Backend, pageSize int) *Controller {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &Controller{backend: backend, pageSize: pageSize, page: 1}
}

// SetParams applies the patch, resets to the first page, and issues a
// new request. Changing any filter always restarts pagination.
func (c *Controller) SetParams(p Patch) Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Query != nil {
		c.params.Query = strings.TrimSpace(*p.Query)
	}
	if p.Category != nil {
		c.params.Category = strings.TrimSpace(*p.Category)
	}
	if p.DateFrom != nil {
		c.params.DateFrom = strings.TrimSpace(*p.DateFrom)
	}
	if p.DateTo != nil {
		c.params.DateTo = strings.TrimSpace(*p.DateTo)
	}
	if p.MinConfidence != nil {
		if *p.MinConfidence < 0 {
			c.params.MinConfidence = nil
		} else {
			v := *p.MinConfidence
			c.params.MinConfidence = &v
		}
	}
	c.page = 1
	return c.issueLocked()
}

// SetPage moves to page n (clamped to 1) and issues a new request.
func (c *Controller) SetPage(n int) Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	c.page = n
	return c.issueLocked()
}

// Refresh re-issues the current view unchanged.
func (c *Controller) Refresh() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issueLocked()
}

func (c *Controller) issueLocked() Request {
	c.seq++
	return Request{Seq: c.seq, Params: c.params, Page: c.page}
}

// Do executes the request against the backend and, if it is still the
// newest one issued, installs the result. The bool reports whether the
// response was applied; stale responses are dropped without touching
// the current page or error.
func (c *Controller) Do(ctx context.Context, req Request) (Page, bool, error) {
	payload, err := c.fetch(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if req.Seq != c.seq || req.Seq <= c.applied {
		return c.current, false, nil
	}
	c.applied = req.Seq
	if err != nil {
		// Keep showing the last good page alongside the error.
		c.err = err
		return c.current, true, err
	}
	c.err = nil
	c.current = normalize(payload, req.Page, c.pageSize)
	return c.current, true, nil
}

func (c *Controller) fetch(ctx context.Context, req Request) (*api.EmailsPayload, error) {
	if req.Params.active() {
		return c.backend.SearchEmails(ctx, api.SearchParams{
			Query:         req.Params.Query,
			Category:      req.Params.Category,
			DateFrom:      req.Params.DateFrom,
			DateTo:        req.Params.DateTo,
			MinConfidence: req.Params.MinConfidence,
			Page:          req.Page,
			PageSize:      c.pageSize,
		})
	}
	return c.backend.ListEmails(ctx, req.Page, c.pageSize)
}

// DeleteItem removes the email remotely, then reloads the current view
// exactly once. A failed delete leaves the view untouched.
func (c *Controller) DeleteItem(ctx context.Context, id int64) error {
	if err := c.backend.DeleteEmail(ctx, id); err != nil {
		return err
	}
	_, _, err := c.Do(ctx, c.Refresh())
	return err
}

// Current returns the last applied page. After a failed fetch this is
// still the previous good page.
func (c *Controller) Current() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Err returns the error from the newest applied fetch, nil if it
// succeeded.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Params returns a copy of the active filters.
func (c *Controller) ActiveParams() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.params
	if p.MinConfidence != nil {
		v := *p.MinConfidence
		p.MinConfidence = &v
	}
	return p
}

// PageNum returns the requested page number.
func (c *Controller) PageNum() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageSize returns the fixed page size of this controller.
func (c *Controller) PageSize() int { return c.pageSize }

// normalize folds both backend payload shapes into one Page. A bare
// array carries no pagination metadata and stands for the full result
// set; an envelope brings its own counts.
func normalize(payload *api.EmailsPayload, requested, pageSize int) Page {
	if payload == nil {
		return Page{Current: 1, Pages: 1, PageSize: pageSize}
	}
	if payload.Meta == nil {
		return Page{
			Items:    payload.Items,
			Total:    len(payload.Items),
			Current:  1,
			Pages:    1,
			PageSize: pageSize,
		}
	}
	pages := payload.Meta.Pages
	if pages < 1 {
		pages = 1
	}
	current := payload.Meta.Page
	if current < 1 {
		current = requested
	}
	return Page{
		Items:    payload.Items,
		Total:    payload.Meta.Total,
		Current:  current,
		Pages:    pages,
		PageSize: payload.Meta.PageSize,
	}
}
