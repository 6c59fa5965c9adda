package collection

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/notify"
)

// DefaultStorageKey is the storage slot holding the saved collections.
const DefaultStorageKey = "libraea_saved_books"

// recentNamespace seeds the deterministic ids of recorded searches, so the
// same query recorded twice moves to the front instead of duplicating.
var recentNamespace = uuid.MustParse("6f1c1f5e-2f35-4c4e-9d8e-3b1b7c0b5a11")

// Store owns the collections. All mutations go through Reduce under a
// single lock, so concurrent callers are applied in arrival order.
// Every committed transition is mirrored to storage; write failures are
// logged and never roll back the in-memory state.
type Store struct {
	storage domain.Storage
	key     string
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	state     State
	version   uint64
	observers map[int]domain.Observer[State]
	nextObsID int

	// notify orders storage writes and observer calls by version;
	// closed is guarded by it
	notify notify.Queue
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger (slog.Default() otherwise).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now for recorded searches.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store and loads the persisted collections from storage.
// A nil storage gives a memory-only store.
func New(storage domain.Storage, opts ...Option) *Store {
	s := &Store{
		storage:   storage,
		key:       DefaultStorageKey,
		logger:    slog.Default(),
		now:       time.Now,
		observers: make(map[int]domain.Observer[State]),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatch(s.load())
	return s
}

// load reads the storage slot, recovering what it can.
func (s *Store) load() Load {
	if s.storage == nil {
		return Load{}
	}

	data, ok, err := s.storage.Get(s.key)
	if err != nil {
		s.logger.Error("failed to read saved collections", "error", err, "key", s.key)
		return Load{}
	}
	if !ok || len(data) == 0 {
		return Load{}
	}

	doc, err := decodeDocument(data)
	if err != nil {
		s.logger.Warn("recovered saved collections partially", "error", err, "key", s.key)
	}
	s.logger.Debug("loaded saved collections",
		"favorites", len(doc.Favorites),
		"wantToRead", len(doc.WantToRead),
		"recentlySearched", len(doc.RecentlySearched),
	)
	return Load{
		Favorites:        doc.Favorites,
		WantToRead:       doc.WantToRead,
		RecentlySearched: doc.RecentlySearched,
	}
}

func (s *Store) dispatch(action Action) {
	s.mu.Lock()
	next, changed := reduce(s.state, action)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.version++
	version := s.version
	observers := make([]domain.Observer[State], 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.mu.Unlock()

	_, isLoad := action.(Load)
	s.publish(next, version, !isLoad, observers)
}

// publish persists and broadcasts a committed state unless a newer
// version was already published. Observers run outside every store lock
// and may call back into the store.
func (s *Store) publish(state State, version uint64, persist bool, observers []domain.Observer[State]) {
	s.notify.Publish(version,
		func() {
			if persist && s.storage != nil && !s.closed {
				s.write(state)
			}
		},
		func() {
			for _, obs := range observers {
				obs(state.Clone())
			}
		},
	)
}

func (s *Store) write(state State) {
	data, err := encodeState(state)
	if err != nil {
		s.logger.Error("failed to encode collections", "error", err)
		return
	}
	if err := s.storage.Put(s.key, data); err != nil {
		s.logger.Error("failed to persist collections", "error", err, "key", s.key)
		return
	}
	s.logger.Debug("persisted collections", "bytes", len(data))
}

// State returns a snapshot that callers may freely modify.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive every committed state. fn may call
// back into the store; the states it causes are delivered after fn returns.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn domain.Observer[State]) func() {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Close detaches the store from storage. It does not close the storage.
func (s *Store) Close() error {
	s.notify.Do(func() { s.closed = true })

	s.mu.Lock()
	s.observers = make(map[int]domain.Observer[State])
	s.mu.Unlock()
	return nil
}

// === Favorites / want-to-read ===

func (s *Store) AddToFavorites(book domain.BookRecord) { s.dispatch(AddFavorite{Book: book}) }

func (s *Store) RemoveFromFavorites(id string) { s.dispatch(RemoveFavorite{ID: id}) }

func (s *Store) AddToWantToRead(book domain.BookRecord) { s.dispatch(AddWant{Book: book}) }

func (s *Store) RemoveFromWantToRead(id string) { s.dispatch(RemoveWant{ID: id}) }

// ToggleFavorite adds or removes book and reports whether it is now a favorite.
func (s *Store) ToggleFavorite(book domain.BookRecord) bool {
	if s.IsFavorite(book.ID) {
		s.RemoveFromFavorites(book.ID)
		return false
	}
	s.AddToFavorites(book)
	return s.IsFavorite(book.ID)
}

// ToggleWantToRead adds or removes book and reports whether it is now listed.
func (s *Store) ToggleWantToRead(book domain.BookRecord) bool {
	if s.IsInWantToRead(book.ID) {
		s.RemoveFromWantToRead(book.ID)
		return false
	}
	s.AddToWantToRead(book)
	return s.IsInWantToRead(book.ID)
}

func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id != "" && containsBook(s.state.Favorites, id)
}

func (s *Store) IsInWantToRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id != "" && containsBook(s.state.WantToRead, id)
}

// === Recently searched ===

func (s *Store) AddToRecentlySearched(entry domain.RecentSearchEntry) {
	s.dispatch(AddRecent{Entry: entry})
}

// RecordSearch adds query to recently-searched. Blank queries are ignored.
func (s *Store) RecordSearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	s.AddToRecentlySearched(domain.RecentSearchEntry{
		ID:       RecentSearchID(query),
		Query:    query,
		IssuedAt: s.now().UTC(),
	})
}

// RecentSearchID derives the entry id for query; case and surrounding
// whitespace do not matter.
func RecentSearchID(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	return "search-" + uuid.NewSHA1(recentNamespace, []byte(normalized)).String()
}

func (s *Store) IsInRecentlySearched(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		return false
	}
	for _, e := range s.state.RecentlySearched {
		if e.ID == id {
			return true
		}
	}
	return false
}

// === Lists ===

// ClearList empties the named list; unknown names set LastError.
func (s *Store) ClearList(name domain.ListName) { s.dispatch(Clear{List: name}) }

// ClearError resets LastError.
func (s *Store) ClearError() { s.dispatch(SetError{}) }
