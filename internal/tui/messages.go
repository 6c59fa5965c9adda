package tui

import "github.com/mmcdole/shelf/internal/search"

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SearchStateMsg carries a search state published by the orchestrator
type SearchStateMsg struct {
	State search.State
}

// SearchSettledMsg signals that a search, load-more or retry returned
type SearchSettledMsg struct {
	State search.State
}

// CoverResolvedMsg carries the result of a cover lookup ("" = no cover)
type CoverResolvedMsg struct {
	CoverID string
	URL     string
}

// LaunchedMsg signals that a URL was handed to the browser
type LaunchedMsg struct {
	URL string
}

// TickMsg is sent periodically for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
