package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/collection"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/search"
	"github.com/mmcdole/shelf/internal/tui/components"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
	StateConfirmClear
)

// View is one of the top-level tabs
type View int

const (
	ViewSearch View = iota
	ViewFavorites
	ViewWantToRead
	ViewRecent
)

var viewOrder = []View{ViewSearch, ViewFavorites, ViewWantToRead, ViewRecent}

// Title returns the tab label
func (v View) Title() string {
	switch v {
	case ViewFavorites:
		return domain.ListFavorites.Label()
	case ViewWantToRead:
		return domain.ListWantToRead.Label()
	case ViewRecent:
		return domain.ListRecentlySearched.Label()
	}
	return "Search"
}

// List returns the collection list shown by v, if any
func (v View) List() (domain.ListName, bool) {
	switch v {
	case ViewFavorites:
		return domain.ListFavorites, true
	case ViewWantToRead:
		return domain.ListWantToRead, true
	case ViewRecent:
		return domain.ListRecentlySearched, true
	}
	return "", false
}

// ParseView maps a config view name to a View, defaulting to ViewSearch
func ParseView(name string) View {
	switch name {
	case adapter.ViewFavorites:
		return ViewFavorites
	case adapter.ViewWantToRead:
		return ViewWantToRead
	case adapter.ViewRecent:
		return ViewRecent
	}
	return ViewSearch
}

// Layout constants
const (
	ChromeHeight        = 2 // tabs + footer
	SearchBoxHeight     = 2 // input + spacer
	MaxSuggestions      = 5
	InspectorMinWidth   = 90
	InspectorPercent    = 40
	spinnerInterval     = 100 * time.Millisecond
	statusDuration      = 3 * time.Second
	errorStatusDuration = 5 * time.Second
)

// Options wires the model to its stores
type Options struct {
	Collection  *collection.Store
	Search      *search.Orchestrator
	Launcher    *adapter.Launcher // nil disables opening URLs
	CatalogURL  string            // base for work pages
	CoverSize   domain.CoverSize
	DefaultView View
	Logger      *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State      ApplicationState
	Ready      bool
	ActiveView View

	// Stores
	collection  *collection.Store
	search      *search.Orchestrator
	launcher    *adapter.Launcher
	observer    *StateObserver[search.State]
	unsubscribe func()
	logger      *slog.Logger

	catalogURL string
	coverSize  domain.CoverSize

	// UI Components
	SearchInput  textinput.Model
	InputFocused bool
	FilterModal  components.InputModal

	// Data
	SearchState search.State
	Collections collection.State
	Suggestions []string
	Filter      string
	Filtered    []collection.FilterResult
	Covers      map[string]string // cover id -> url, "" when none exists

	cursors map[View]int
	offsets map[View]int

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "Search by title, author or ISBN..."
	ti.Prompt = "› "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle
	ti.CharLimit = 200

	observer := NewStateObserver(func(s search.State) tea.Msg { return SearchStateMsg{State: s} })
	unsubscribe := opts.Search.Subscribe(observer.OnState)

	m := Model{
		State:       StateBrowsing,
		ActiveView:  opts.DefaultView,
		collection:  opts.Collection,
		search:      opts.Search,
		launcher:    opts.Launcher,
		observer:    observer,
		unsubscribe: unsubscribe,
		logger:      logger,
		catalogURL:  opts.CatalogURL,
		coverSize:   opts.CoverSize,
		SearchInput: ti,
		FilterModal: components.NewInputModal(),
		SearchState: opts.Search.State(),
		Collections: opts.Collection.State(),
		Covers:      make(map[string]string),
		cursors:     make(map[View]int),
		offsets:     make(map[View]int),
	}
	if m.coverSize == "" {
		m.coverSize = domain.DefaultCoverSize
	}
	if m.ActiveView == ViewSearch {
		m.focusInput()
	}
	return m
}

// Close detaches the model from the stores
func (m Model) Close() {
	m.unsubscribe()
	m.observer.Close()
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.observer.Wait(),
		TickCmd(spinnerInterval),
		textinput.Blink,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.SearchInput.Width = max(10, msg.Width-6)
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		if m.SearchState.Loading {
			m.SpinnerFrame++
		}
		return m, TickCmd(spinnerInterval)

	case SearchStateMsg:
		m.applySearchState(msg.State)
		return m, m.observer.Wait()

	case SearchSettledMsg:
		// the settled snapshot may be older than one already delivered
		m.applySearchState(m.search.State())
		if msg.State.Error != "" {
			m.logger.Debug("search settled with error", "error", msg.State.Error)
		}
		return m, nil

	case CoverResolvedMsg:
		m.Covers[msg.CoverID] = msg.URL
		if msg.URL == "" {
			return m, m.setStatus("No cover available", false)
		}
		return m, nil

	case LaunchedMsg:
		return m, m.setStatus("Opened "+msg.URL, false)

	case ErrMsg:
		m.logger.Error("tui command failed", "error", msg.Err, "context", msg.Context)
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	if m.InputFocused {
		var cmd tea.Cmd
		m.SearchInput, cmd = m.SearchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applySearchState(s search.State) {
	m.SearchState = s
	if !s.HasSearched {
		m.cursors[ViewSearch] = 0
		m.offsets[ViewSearch] = 0
	}
	m.clampCursor()
}

// refreshCollections re-reads the collection snapshot after a mutation
func (m *Model) refreshCollections() {
	m.Collections = m.collection.State()
	if m.Filter != "" {
		m.Filtered = m.collection.Filter(m.Filter)
	}
	m.clampCursor()
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	if isErr {
		return ClearStatusCmd(errorStatusDuration)
	}
	return ClearStatusCmd(statusDuration)
}

func (m *Model) focusInput() {
	m.InputFocused = true
	m.SearchInput.Focus()
	m.Suggestions = m.suggestions()
}

func (m *Model) blurInput() {
	m.InputFocused = false
	m.SearchInput.Blur()
	m.Suggestions = nil
}

func (m Model) suggestions() []string {
	s := m.collection.SuggestQueries(m.SearchInput.Value())
	if len(s) > MaxSuggestions {
		s = s[:MaxSuggestions]
	}
	return s
}

func (m *Model) switchView(v View) {
	if m.ActiveView == v {
		return
	}
	m.ActiveView = v
	m.clearFilter()
	m.FilterModal.Hide()
	if v == ViewSearch && !m.SearchState.HasSearched {
		m.focusInput()
	} else {
		m.blurInput()
	}
	m.clampCursor()
}
