package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shelf/internal/adapter"
)

// handleKeyMsg routes key presses by application state and focus
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}

	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	case StateConfirmClear:
		return m.handleConfirmClear(msg)
	}

	if m.FilterModal.IsVisible() {
		return m.handleFilterModal(msg)
	}
	if m.InputFocused {
		return m.handleSearchInput(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Submit):
		return m.submitSearch(m.SearchInput.Value())

	case key.Matches(msg, Keys.Escape):
		m.blurInput()
		return m, nil

	case key.Matches(msg, Keys.NextView):
		// complete with the best suggestion
		if len(m.Suggestions) > 0 && m.SearchInput.Value() != m.Suggestions[0] {
			m.SearchInput.SetValue(m.Suggestions[0])
			m.SearchInput.CursorEnd()
			m.Suggestions = m.suggestions()
			return m, nil
		}
		m.switchView(ViewFavorites)
		return m, nil

	case key.Matches(msg, Keys.LoadMore):
		return m, LoadMoreCmd(m.search)

	case key.Matches(msg, Keys.Clear):
		return m.clearSearch()
	}

	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	m.Suggestions = m.suggestions()
	return m, cmd
}

// submitSearch runs a first-page search and records non-blank queries
func (m Model) submitSearch(query string) (tea.Model, tea.Cmd) {
	query = strings.TrimSpace(query)
	if query != "" {
		m.collection.RecordSearch(query)
		m.refreshCollections()
		m.blurInput()
	}
	m.SearchInput.SetValue(query)
	m.setCursor(0)
	return m, SearchCmd(m.search, query, 1)
}

func (m Model) clearSearch() (tea.Model, tea.Cmd) {
	m.applySearchState(m.search.ClearSearch())
	m.SearchInput.SetValue("")
	m.focusInput()
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	// Navigation
	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, Keys.PageUp):
		m.moveCursor(-m.listHeight())
	case key.Matches(msg, Keys.PageDown):
		m.moveCursor(m.listHeight())
	case key.Matches(msg, Keys.Home):
		m.setCursor(0)
	case key.Matches(msg, Keys.End):
		m.setCursor(len(m.rows()) - 1)
	case key.Matches(msg, Keys.NextView):
		m.switchView(viewOrder[(int(m.ActiveView)+1)%len(viewOrder)])
	case key.Matches(msg, Keys.PrevView):
		m.switchView(viewOrder[(int(m.ActiveView)+len(viewOrder)-1)%len(viewOrder)])

	case key.Matches(msg, Keys.Escape):
		if m.Filter != "" {
			m.clearFilter()
			m.clampCursor()
		}

	case key.Matches(msg, Keys.Focus):
		if m.ActiveView == ViewSearch {
			m.focusInput()
			return m, nil
		}
		if m.ActiveView != ViewRecent {
			m.FilterModal.Show("Filter "+m.ActiveView.Title(), m.Filter)
		}

	case key.Matches(msg, Keys.Submit):
		return m.handleEnter()

	// Search
	case key.Matches(msg, Keys.LoadMore):
		if m.ActiveView == ViewSearch {
			return m, LoadMoreCmd(m.search)
		}
	case key.Matches(msg, Keys.Retry):
		if m.ActiveView == ViewSearch {
			return m, RetryCmd(m.search)
		}
	case key.Matches(msg, Keys.Clear):
		if m.ActiveView == ViewSearch {
			return m.clearSearch()
		}

	// Collections
	case key.Matches(msg, Keys.Favorite):
		return m.toggleFavorite()
	case key.Matches(msg, Keys.Want):
		return m.toggleWant()
	case key.Matches(msg, Keys.Remove):
		return m.removeSelected()
	case key.Matches(msg, Keys.ClearList):
		if _, ok := m.ActiveView.List(); ok {
			m.State = StateConfirmClear
		}

	// Other
	case key.Matches(msg, Keys.Cover):
		if r, ok := m.selected(); ok && r.Book != nil && r.Book.CoverID != nil {
			return m, CoverCmd(m.search, *r.Book.CoverID, m.coverSize)
		}
		return m, m.setStatus("No cover id for this book", false)
	case key.Matches(msg, Keys.Open):
		if r, ok := m.selected(); ok && r.Book != nil {
			return m.launch(adapter.WorkURL(m.catalogURL, r.ID))
		}
	case key.Matches(msg, Keys.OpenCover):
		if r, ok := m.selected(); ok && r.Book != nil && r.Book.CoverID != nil {
			if url := m.Covers[*r.Book.CoverID]; url != "" {
				return m.launch(url)
			}
			return m, m.setStatus("Look up the cover first (c)", false)
		}
	}
	return m, nil
}

// handleEnter re-runs a recent search, or focuses the search box
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.ActiveView {
	case ViewRecent:
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.switchView(ViewSearch)
		return m.submitSearch(r.Query)
	case ViewSearch:
		if !m.SearchState.HasSearched {
			m.focusInput()
		}
	}
	return m, nil
}

func (m Model) toggleFavorite() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || r.Book == nil {
		return m, nil
	}
	added := m.collection.ToggleFavorite(*r.Book)
	m.refreshCollections()
	if m.Collections.LastError != "" {
		return m, m.setStatus(m.Collections.LastError, true)
	}
	if added {
		return m, m.setStatus("Added to favorites: "+r.Title, false)
	}
	return m, m.setStatus("Removed from favorites: "+r.Title, false)
}

func (m Model) toggleWant() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || r.Book == nil {
		return m, nil
	}
	added := m.collection.ToggleWantToRead(*r.Book)
	m.refreshCollections()
	if m.Collections.LastError != "" {
		return m, m.setStatus(m.Collections.LastError, true)
	}
	if added {
		return m, m.setStatus("Added to want to read: "+r.Title, false)
	}
	return m, m.setStatus("Removed from want to read: "+r.Title, false)
}

func (m Model) removeSelected() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch m.ActiveView {
	case ViewFavorites:
		m.collection.RemoveFromFavorites(r.ID)
	case ViewWantToRead:
		m.collection.RemoveFromWantToRead(r.ID)
	default:
		return m, nil
	}
	m.refreshCollections()
	return m, m.setStatus("Removed: "+r.Title, false)
}

func (m Model) handleConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		m.State = StateBrowsing
		list, ok := m.ActiveView.List()
		if !ok {
			return m, nil
		}
		m.collection.ClearList(list)
		m.clearFilter()
		m.refreshCollections()
		return m, m.setStatus("Cleared "+list.Label(), false)
	case key.Matches(msg, Keys.Deny):
		m.State = StateBrowsing
	}
	return m, nil
}

func (m Model) launch(url string) (tea.Model, tea.Cmd) {
	if m.launcher == nil {
		return m, m.setStatus(url, false)
	}
	return m, LaunchCmd(m.launcher, url)
}
