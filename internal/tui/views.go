package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmClear:
		return m.renderClearConfirmation()
	}

	if m.FilterModal.IsVisible() {
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.FilterModal.View())
	}

	layout := m.calculateLayout()
	body := lipgloss.NewStyle().
		Width(layout.listWidth).
		Height(layout.bodyHeight).
		Render(m.renderMain(layout.listWidth))
	if layout.inspectorWidth > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			body,
			styles.InspectorStyle.
				Width(layout.inspectorWidth).
				Height(layout.bodyHeight).
				Render(m.renderInspector(layout.inspectorWidth-2)),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(viewOrder))
	for _, v := range viewOrder {
		label := v.Title()
		if list, ok := v.List(); ok {
			label = fmt.Sprintf("%s (%d)", label, m.Collections.Len(list))
		}
		if v == m.ActiveView {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderMain(width int) string {
	var sections []string

	if m.ActiveView == ViewSearch {
		sections = append(sections, m.SearchInput.View(), "")
		for _, s := range m.Suggestions {
			sections = append(sections, styles.DimStyle.Render("  ↳ "+styles.Truncate(s, width-6)))
		}
		sections = append(sections, m.renderSearchSummary(width))
	} else if m.Filter != "" {
		sections = append(sections, styles.FilterPromptStyle.Render("/ ")+m.Filter)
	}

	rows := m.rows()
	if len(rows) == 0 {
		sections = append(sections, styles.DimStyle.Render(m.emptyText()))
		return strings.Join(sections, "\n")
	}

	offset := m.offsets[m.ActiveView]
	end := min(len(rows), offset+m.listHeight())
	cursor := m.cursors[m.ActiveView]
	for i := offset; i < end; i++ {
		sections = append(sections, m.renderRow(rows[i], i == cursor, width))
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderSearchSummary(width int) string {
	s := m.SearchState
	switch {
	case s.Loading:
		return RenderSpinner(m.SpinnerFrame) + styles.DimStyle.Render(" Searching for "+s.CurrentQuery+"...")
	case s.Error != "":
		hint := ""
		if s.CurrentQuery != "" {
			hint = styles.DimStyle.Render("  (r to retry)")
		}
		return styles.ErrorStyle.Render(wordWrap(s.Error, width-16)) + hint
	case s.HasSearched:
		more := ""
		if s.HasMore {
			more = " · C-n for more"
		}
		return styles.DimStyle.Render(fmt.Sprintf("%d results for %q%s", len(s.Results), s.CurrentQuery, more))
	}
	return ""
}

func (m Model) emptyText() string {
	switch m.ActiveView {
	case ViewSearch:
		if m.SearchState.HasSearched && !m.SearchState.Loading && m.SearchState.Error == "" {
			return "No books found."
		}
		return ""
	case ViewRecent:
		return "No recent searches."
	}
	if m.Filter != "" {
		return "Nothing matches the filter."
	}
	return "This list is empty. Press f or w on a search result to add books."
}

func (m Model) renderRow(r row, selected bool, width int) string {
	base := styles.NormalItemStyle
	if selected {
		base = styles.SelectedItemStyle
	}

	marks := ""
	if r.Book != nil {
		fav, want := styles.EmptyChar, styles.EmptyChar
		if m.collection.IsFavorite(r.ID) {
			fav = styles.FavoriteMark
		}
		if m.collection.IsInWantToRead(r.ID) {
			want = styles.WantMark
		}
		marks = fav + want + " "
	}

	right := r.Year
	titleWidth := width - lipgloss.Width(marks) - len(right) - 4
	if r.Subtitle != "" {
		titleWidth -= min(len(r.Subtitle), width/3) + 3
	}
	title := styles.Truncate(r.Title, titleWidth)
	var line string
	if len(r.Matched) > 0 && title == r.Title {
		line = styles.Highlight(title, r.Matched, base)
	} else {
		line = base.Render(title)
	}
	if r.Subtitle != "" {
		line += base.Render(" · ") + styles.DimStyle.Render(styles.Truncate(r.Subtitle, width/3))
	}

	line = " " + marks + line
	gap := width - lipgloss.Width(line) - len(right) - 1
	if gap < 1 {
		gap = 1
	}
	line += base.Render(strings.Repeat(" ", gap)) + styles.DimStyle.Render(right)
	return line
}

func (m Model) renderInspector(width int) string {
	r, ok := m.selected()
	if !ok {
		return ""
	}
	if r.Book == nil {
		return styles.TitleStyle.Render(r.Title) + "\n" +
			styles.DimStyle.Render("Searched "+r.Subtitle) + "\n\n" +
			styles.DimStyle.Render("enter to search again")
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(wordWrap(r.Title, width)))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(wordWrap(r.Subtitle, width)))
	b.WriteString("\n\n")

	if r.Year != "" {
		b.WriteString(styles.DimStyle.Render("First published ") + r.Year + "\n")
	}
	if r.Entry != nil && r.Entry.EditionCount > 0 {
		b.WriteString(styles.DimStyle.Render("Editions ") + fmt.Sprintf("%d", r.Entry.EditionCount) + "\n")
	}
	b.WriteString(styles.DimStyle.Render("Key ") + r.ID + "\n")

	if r.Book.CoverID != nil {
		coverID := *r.Book.CoverID
		url, looked := m.Covers[coverID]
		switch {
		case !looked:
			b.WriteString(styles.DimStyle.Render("Cover ") + coverID + styles.DimStyle.Render(" (c to look up)") + "\n")
		case url == "":
			b.WriteString(styles.DimStyle.Render("Cover not available") + "\n")
		default:
			b.WriteString(styles.DimStyle.Render("Cover ") + styles.LinkStyle.Render(url) + "\n")
		}
	}

	b.WriteString("\n")
	if m.collection.IsFavorite(r.ID) {
		b.WriteString(styles.FavoriteMark + " In favorites\n")
	}
	if m.collection.IsInWantToRead(r.ID) {
		b.WriteString(styles.WantMark + " Want to read\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var left string
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.SuccessStyle.Render(m.StatusMsg)
		}
	} else if m.Collections.LastError != "" {
		left = styles.ErrorStyle.Render(m.Collections.LastError)
	}

	var center string
	switch {
	case m.InputFocused:
		center = hint("enter", "search") + "  " + hint("esc", "results")
	case m.ActiveView == ViewSearch:
		center = hint("f", "favorite") + "  " + hint("w", "want") + "  " + hint("/", "search")
	case m.ActiveView == ViewRecent:
		center = hint("enter", "search again") + "  " + hint("x", "clear")
	default:
		center = hint("d", "remove") + "  " + hint("/", "filter") + "  " + hint("x", "clear")
	}

	right := hint("?", "help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(0, m.Width-leftWidth-rightWidth)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad
	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

func hint(k, desc string) string {
	return styles.HelpKeyStyle.Render(k) + styles.HelpDescStyle.Render(" "+desc)
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      COLLECTIONS
  j/k        Up/down               f      Toggle favorite
  g/G        First/last item       w      Toggle want to read
  PgUp/PgDn  Scroll page           d      Remove from list
  Tab        Next view             x      Clear list
  S-Tab      Previous view         /      Filter list

SEARCH                          OTHER
  /          Focus search box      c      Look up cover
  Enter      Search                o      Open in browser
  C-n        Load more             O      Open cover
  r          Retry                 q      Quit
  C-l        Clear search          ?      This help

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderClearConfirmation renders the clear-list confirmation modal
func (m Model) renderClearConfirmation() string {
	list, _ := m.ActiveView.List()
	modal := fmt.Sprintf(`
  Clear %s?

  This removes every entry in the list.

        [Y] Yes      [N] No
`, list.Label())

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// wordWrap wraps text to the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wordLen := len(word)

		if lineLen+wordLen+1 > width && lineLen > 0 {
			result.WriteString("\n")
			lineLen = 0
		}

		if i > 0 && lineLen > 0 {
			result.WriteString(" ")
			lineLen++
		}

		result.WriteString(word)
		lineLen += wordLen
	}

	return result.String()
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	return styles.SpinnerStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])
}
