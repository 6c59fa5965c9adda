package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/search"
)

// Command factories for async operations. Search commands block on the
// orchestrator, which owns the request timeout and cancellation.
//
// Commands pass context.Background() because a tea.Cmd has no context of
// its own. Requests still in flight when the program exits are cancelled
// by Orchestrator.Close, which the app runs on shutdown; a newer search or
// ClearSearch cancels them sooner.

// SearchCmd fetches one page of results for query
func SearchCmd(orch *search.Orchestrator, query string, page int) tea.Cmd {
	return func() tea.Msg {
		return SearchSettledMsg{State: orch.SearchBooks(context.Background(), query, page)}
	}
}

// LoadMoreCmd fetches the next page of the current query
func LoadMoreCmd(orch *search.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		return SearchSettledMsg{State: orch.LoadMore(context.Background())}
	}
}

// RetryCmd replays the current query from the first page
func RetryCmd(orch *search.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		return SearchSettledMsg{State: orch.RetrySearch(context.Background())}
	}
}

// CoverCmd resolves the cover URL of an edition
func CoverCmd(orch *search.Orchestrator, coverID string, size domain.CoverSize) tea.Cmd {
	return func() tea.Msg {
		url := orch.FetchBookCover(context.Background(), coverID, string(size))
		return CoverResolvedMsg{CoverID: coverID, URL: url}
	}
}

// LaunchCmd opens url in the browser
func LaunchCmd(launcher *adapter.Launcher, url string) tea.Cmd {
	return func() tea.Msg {
		if err := launcher.Launch(url); err != nil {
			return ErrMsg{Err: err, Context: "opening browser"}
		}
		return LaunchedMsg{URL: url}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
