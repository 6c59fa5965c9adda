package tui

// paneLayout holds calculated widths for the View
type paneLayout struct {
	listWidth      int
	inspectorWidth int // 0 if not shown
	bodyHeight     int
}

// calculateLayout splits the screen into the list and the inspector.
// Narrow terminals get the list only.
func (m Model) calculateLayout() paneLayout {
	layout := paneLayout{
		listWidth:  m.Width,
		bodyHeight: max(1, m.Height-ChromeHeight),
	}
	if m.Width >= InspectorMinWidth {
		layout.inspectorWidth = m.Width * InspectorPercent / 100
		layout.listWidth = m.Width - layout.inspectorWidth
	}
	return layout
}
