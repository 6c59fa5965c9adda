package search

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/notify"
)

const (
	DefaultPageSize = 10
	DefaultTimeout  = 10 * time.Second
)

// Messages surfaced through State.Error
const (
	MsgEmptyQuery = "Please enter a search query"
	MsgTimeout    = "Search timed out. Please try again."
	MsgNetwork    = "Network error. Please check your connection."
	MsgMalformed  = "Unexpected response from search service."
)

// State is a snapshot of the search results and request lifecycle.
type State struct {
	Results      []domain.CatalogEntry
	Loading      bool
	Error        string // empty when there is no error
	HasMore      bool
	HasSearched  bool
	CurrentQuery string
	Page         int // last successfully fetched page, 0 before any
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	if s.Results != nil {
		c.Results = make([]domain.CatalogEntry, len(s.Results))
		for i, e := range s.Results {
			e.Authors = append([]string(nil), e.Authors...)
			if e.FirstPublishYear != nil {
				y := *e.FirstPublishYear
				e.FirstPublishYear = &y
			}
			c.Results[i] = e
		}
	}
	return c
}

// Orchestrator runs catalog searches and owns their State.
//
// Every request gets a generation number and its own cancel func. A
// response is committed only if its generation is still current, so a
// superseded, cleared or closed request never touches State.
type Orchestrator struct {
	catalog  domain.Catalog
	covers   domain.CoverCache
	logger   *slog.Logger
	pageSize int
	timeout  time.Duration

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	inFlight   bool
	closed     bool
	version    uint64
	observers  map[int]domain.Observer[State]
	nextObsID  int

	notify notify.Queue
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPageSize sets the number of results per page.
func WithPageSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithTimeout bounds each catalog request.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger (slog.Default() otherwise).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCoverCache remembers resolved cover URLs across runs.
func WithCoverCache(cache domain.CoverCache) Option {
	return func(o *Orchestrator) {
		o.covers = cache
	}
}

// New creates an orchestrator over catalog.
func New(catalog domain.Catalog, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:   catalog,
		logger:    slog.Default(),
		pageSize:  DefaultPageSize,
		timeout:   DefaultTimeout,
		observers: make(map[int]domain.Observer[State]),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PageSize returns the number of results requested per page.
func (o *Orchestrator) PageSize() int { return o.pageSize }

// SearchBooks fetches one page of results for query and blocks until the
// request settles. Page 1 replaces the results, later pages append.
//
// A blank query sets MsgEmptyQuery without touching the network. A page
// greater than 1 is ignored while any request is in flight; a page 1
// search cancels and supersedes whatever is in flight. The returned
// State is the snapshot after the call.
func (o *Orchestrator) SearchBooks(ctx context.Context, query string, page int) State {
	if page < 1 {
		page = 1
	}
	query = strings.TrimSpace(query)

	o.mu.Lock()
	if o.closed {
		defer o.mu.Unlock()
		return o.state.Clone()
	}
	if query == "" {
		o.state.Error = Describe(domain.ErrEmptyQuery)
		return o.commitLocked()
	}
	if page > 1 && o.inFlight {
		o.logger.Debug("pagination ignored, request in flight", "query", query, "page", page)
		defer o.mu.Unlock()
		return o.state.Clone()
	}

	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	gen := o.generation
	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	o.cancel = cancel
	o.inFlight = true
	o.state.Loading = true
	o.state.HasSearched = true
	o.state.CurrentQuery = query
	o.commitLocked()

	defer cancel()

	offset := (page - 1) * o.pageSize
	start := time.Now()
	result, err := o.catalog.Search(reqCtx, query, o.pageSize, offset)

	o.mu.Lock()
	if gen != o.generation {
		// superseded, cleared or closed while waiting
		o.logger.Debug("dropping stale search response", "query", query, "page", page)
		defer o.mu.Unlock()
		return o.state.Clone()
	}
	o.inFlight = false
	o.cancel = nil
	o.state.Loading = false

	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		// the catalog answered after our deadline; whatever it said is late
		err = context.DeadlineExceeded
	}

	switch {
	case err == nil:
		o.applyPageLocked(result, page)
		o.logger.Debug("search complete",
			"query", query, "page", page, "results", len(o.state.Results),
			"numFound", result.NumFound, "duration", time.Since(start))

	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// caller went away; keep what is shown
		o.logger.Debug("search canceled", "query", query, "page", page)

	default:
		o.state.Error = Describe(err)
		if page == 1 {
			o.state.Results = nil
			o.state.HasMore = false
			o.state.Page = 0
		}
		o.logger.Error("search failed", "error", err, "query", query, "page", page)
	}
	return o.commitLocked()
}

func (o *Orchestrator) applyPageLocked(result *domain.SearchPage, page int) {
	docs := make([]domain.CatalogEntry, len(result.Docs))
	copy(docs, result.Docs)

	if page == 1 {
		o.state.Results = docs
	} else {
		o.state.Results = append(o.state.Results, docs...)
	}

	o.state.HasMore = result.Start+len(result.Docs) < result.NumFound
	o.state.Page = page
	o.state.Error = ""
}

// LoadMore fetches the page after the last successful one for the
// current query. It does nothing when there is nothing more to load.
func (o *Orchestrator) LoadMore(ctx context.Context) State {
	o.mu.Lock()
	query, page, hasMore := o.state.CurrentQuery, o.state.Page, o.state.HasMore
	if query == "" || page == 0 || !hasMore {
		defer o.mu.Unlock()
		return o.state.Clone()
	}
	o.mu.Unlock()

	return o.SearchBooks(ctx, query, page+1)
}

// RetrySearch replays the current query from page 1. No-op without one.
func (o *Orchestrator) RetrySearch(ctx context.Context) State {
	o.mu.Lock()
	query := o.state.CurrentQuery
	if query == "" {
		defer o.mu.Unlock()
		return o.state.Clone()
	}
	o.mu.Unlock()

	return o.SearchBooks(ctx, query, 1)
}

// ClearSearch resets State to its initial form and abandons any request
// in flight.
func (o *Orchestrator) ClearSearch() State {
	o.mu.Lock()
	o.abandonLocked()
	o.state = State{}
	return o.commitLocked()
}

// Close cancels in-flight work. Later calls return the last State.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.abandonLocked()
	o.state.Loading = false
	o.closed = true
	o.observers = make(map[int]domain.Observer[State])
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) abandonLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.generation++
	o.inFlight = false
}

// State returns a snapshot that callers may freely modify.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Subscribe registers fn to receive every committed State. fn may call
// back into the orchestrator; the states it causes are delivered after fn
// returns. The returned func removes the subscription.
func (o *Orchestrator) Subscribe(fn domain.Observer[State]) func() {
	o.mu.Lock()
	id := o.nextObsID
	o.nextObsID++
	o.observers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// commitLocked snapshots the state, releases mu and notifies observers.
func (o *Orchestrator) commitLocked() State {
	o.version++
	version := o.version
	snapshot := o.state.Clone()
	observers := make([]domain.Observer[State], 0, len(o.observers))
	for _, obs := range o.observers {
		observers = append(observers, obs)
	}
	o.mu.Unlock()

	published := snapshot.Clone()
	o.notify.Publish(version, nil, func() {
		for _, obs := range observers {
			obs(published.Clone())
		}
	})
	return snapshot
}

// Describe maps a catalog error to the message shown to the user.
func Describe(err error) string {
	var statusErr *domain.StatusError
	var netErr net.Error

	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrEmptyQuery):
		return MsgEmptyQuery
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return MsgTimeout
	case errors.As(err, &statusErr):
		return "Search failed: " + strconv.Itoa(statusErr.Code)
	case errors.Is(err, domain.ErrMalformedResponse):
		return MsgMalformed
	default:
		return MsgNetwork
	}
}
