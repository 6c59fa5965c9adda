package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// The library filter narrows favorites and want-to-read to saved books
// whose titles fuzzy-match the query. It filters as you type; esc in the
// modal drops the filter, enter keeps it.

func (m Model) handleFilterModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal, cmd, submitted := m.FilterModal.Update(msg)
	m.FilterModal = modal
	if submitted {
		m.FilterModal.Hide()
	}
	// filter as you type
	m.Filter = strings.TrimSpace(m.FilterModal.Value())
	if !m.FilterModal.IsVisible() && !submitted {
		// cancelled
		m.clearFilter()
	}
	if m.Filter != "" {
		m.Filtered = m.collection.Filter(m.Filter)
	} else {
		m.Filtered = nil
	}
	m.setCursor(0)
	return m, cmd
}

func (m *Model) clearFilter() {
	m.Filter = ""
	m.Filtered = nil
}
