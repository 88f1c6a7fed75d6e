package tui

import (
	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/query"
)

// Async message types for Bubble Tea commands.

type loginResultMsg struct {
	err error
}

type pageLoadedMsg struct {
	page    query.Page
	applied bool
	err     error
}

type detailLoadedMsg struct {
	email *api.Email
	err   error
}

type deleteResultMsg struct {
	page query.Page
	err  error
}

type healthMsg struct {
	ok bool
}

type statusMsg string
