package tui

import (
	"github.com/mmcdole/shelf/internal/domain"
)

// row is one displayable line of the current view
type row struct {
	ID       string
	Title    string
	Subtitle string
	Year     string
	Matched  []int              // title byte offsets matched by the filter
	Book     *domain.BookRecord // nil for recent searches
	Entry    *domain.CatalogEntry
	Query    string // recent searches only
}

func itemRow(item domain.ListItem) row {
	return row{
		ID:       item.GetID(),
		Title:    item.GetTitle(),
		Subtitle: item.AuthorLine(),
		Year:     item.YearString(),
	}
}

func bookRow(b domain.BookRecord) row {
	r := itemRow(b)
	r.Book = &b
	return r
}

// rows returns the lines of the current view
func (m Model) rows() []row {
	switch m.ActiveView {
	case ViewSearch:
		out := make([]row, len(m.SearchState.Results))
		for i := range m.SearchState.Results {
			e := m.SearchState.Results[i]
			rec := e.Record()
			out[i] = itemRow(e)
			out[i].Book = &rec
			out[i].Entry = &e
		}
		return out

	case ViewRecent:
		out := make([]row, len(m.Collections.RecentlySearched))
		for i, e := range m.Collections.RecentlySearched {
			out[i] = row{
				ID:       e.ID,
				Title:    e.Query,
				Subtitle: e.IssuedAt.Local().Format("Jan 2 15:04"),
				Query:    e.Query,
			}
		}
		return out
	}

	list, _ := m.ActiveView.List()
	if m.Filter != "" {
		var out []row
		for _, r := range m.Filtered {
			if r.List != list {
				continue
			}
			br := bookRow(r.Book)
			br.Matched = r.MatchedIndexes
			out = append(out, br)
		}
		return out
	}

	books := m.Collections.List(list)
	out := make([]row, len(books))
	for i, b := range books {
		out[i] = bookRow(b)
	}
	return out
}

// selected returns the row under the cursor
func (m Model) selected() (row, bool) {
	rows := m.rows()
	c := m.cursors[m.ActiveView]
	if c < 0 || c >= len(rows) {
		return row{}, false
	}
	return rows[c], true
}

// listHeight is the number of rows visible in the list area
func (m Model) listHeight() int {
	h := m.Height - ChromeHeight
	if m.ActiveView == ViewSearch {
		h -= SearchBoxHeight + len(m.Suggestions) + 1 // +1 result summary
	} else if m.Filter != "" {
		h-- // filter line
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) moveCursor(delta int) {
	m.cursors[m.ActiveView] += delta
	m.clampCursor()
}

func (m *Model) setCursor(pos int) {
	m.cursors[m.ActiveView] = pos
	m.clampCursor()
}

// clampCursor keeps the cursor in range and visible
func (m *Model) clampCursor() {
	n := len(m.rows())
	c := m.cursors[m.ActiveView]
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursors[m.ActiveView] = c

	visible := m.listHeight()
	off := m.offsets[m.ActiveView]
	if c < off {
		off = c
	}
	if c >= off+visible {
		off = c - visible + 1
	}
	if off < 0 {
		off = 0
	}
	m.offsets[m.ActiveView] = off
}
