package collection

import (
	"errors"
	"slices"

	"github.com/mmcdole/shelf/internal/domain"
)

// MaxRecentSearches bounds the recently-searched list.
const MaxRecentSearches = 5

// Messages surfaced through State.LastError.
const (
	MsgInvalidBook     = "Invalid book data"
	MsgInvalidListName = "Invalid list name"
)

// State is an immutable snapshot of the collections.
// LastError is empty when no error is pending.
type State struct {
	Favorites        []domain.BookRecord
	WantToRead       []domain.BookRecord
	RecentlySearched []domain.RecentSearchEntry
	LastError        string
	Loaded           bool
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	out := s
	out.Favorites = cloneBooks(s.Favorites)
	out.WantToRead = cloneBooks(s.WantToRead)
	out.RecentlySearched = slices.Clone(s.RecentlySearched)
	return out
}

// List returns the books in the named list (nil for recentlySearched or unknown names).
func (s State) List(name domain.ListName) []domain.BookRecord {
	switch name {
	case domain.ListFavorites:
		return s.Favorites
	case domain.ListWantToRead:
		return s.WantToRead
	}
	return nil
}

// Len returns the length of the named list.
func (s State) Len(name domain.ListName) int {
	if name == domain.ListRecentlySearched {
		return len(s.RecentlySearched)
	}
	return len(s.List(name))
}

// Action is one of the transitions accepted by Reduce.
type Action interface {
	isAction()
}

// Load replaces all lists with a previously persisted payload.
type Load struct {
	Favorites        []domain.BookRecord
	WantToRead       []domain.BookRecord
	RecentlySearched []domain.RecentSearchEntry
}

// AddFavorite appends a book to favorites.
type AddFavorite struct{ Book domain.BookRecord }

// RemoveFavorite drops a book from favorites by id.
type RemoveFavorite struct{ ID string }

// AddWant appends a book to want-to-read.
type AddWant struct{ Book domain.BookRecord }

// RemoveWant drops a book from want-to-read by id.
type RemoveWant struct{ ID string }

// AddRecent records a search at the front of recently-searched.
type AddRecent struct{ Entry domain.RecentSearchEntry }

// Clear empties one list.
type Clear struct{ List domain.ListName }

// SetError sets (or with an empty message, clears) LastError.
type SetError struct{ Message string }

func (Load) isAction()           {}
func (AddFavorite) isAction()    {}
func (RemoveFavorite) isAction() {}
func (AddWant) isAction()        {}
func (RemoveWant) isAction()     {}
func (AddRecent) isAction()      {}
func (Clear) isAction()          {}
func (SetError) isAction()       {}

// Reduce is the transition function. It never panics and never mutates state;
// invalid input is turned into a LastError assignment.
func Reduce(state State, action Action) State {
	next, _ := reduce(state, action)
	return next
}

// reduce also reports whether the transition produced a new state.
func reduce(state State, action Action) (State, bool) {
	switch a := action.(type) {
	case Load:
		next := state
		next.Favorites = dedupeBooks(a.Favorites)
		next.WantToRead = dedupeBooks(a.WantToRead)
		next.RecentlySearched = dedupeRecent(a.RecentlySearched)
		next.LastError = ""
		next.Loaded = true
		return next, true

	case AddFavorite:
		books, err := addBook(state.Favorites, a.Book)
		return applyBooks(state, domain.ListFavorites, books, err)

	case AddWant:
		books, err := addBook(state.WantToRead, a.Book)
		return applyBooks(state, domain.ListWantToRead, books, err)

	case RemoveFavorite:
		books, ok := removeBook(state.Favorites, a.ID)
		if !ok {
			return state, false
		}
		return applyBooks(state, domain.ListFavorites, books, nil)

	case RemoveWant:
		books, ok := removeBook(state.WantToRead, a.ID)
		if !ok {
			return state, false
		}
		return applyBooks(state, domain.ListWantToRead, books, nil)

	case AddRecent:
		if a.Entry.ID == "" {
			return state, false
		}
		next := state
		next.RecentlySearched = pushRecent(state.RecentlySearched, a.Entry)
		next.LastError = ""
		return next, true

	case Clear:
		if !a.List.Valid() {
			return withError(state, errorMessage(domain.ErrInvalidListName))
		}
		next := state
		switch a.List {
		case domain.ListFavorites:
			next.Favorites = []domain.BookRecord{}
		case domain.ListWantToRead:
			next.WantToRead = []domain.BookRecord{}
		case domain.ListRecentlySearched:
			next.RecentlySearched = []domain.RecentSearchEntry{}
		}
		next.LastError = ""
		return next, true

	case SetError:
		return withError(state, a.Message)
	}

	return state, false
}

func withError(state State, msg string) (State, bool) {
	if state.LastError == msg {
		return state, false
	}
	next := state
	next.LastError = msg
	return next, true
}

// errorMessage maps a validation error to its LastError text.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidBook):
		return MsgInvalidBook
	case errors.Is(err, domain.ErrInvalidListName):
		return MsgInvalidListName
	}
	return err.Error()
}

// applyBooks installs books into the named list. A non-nil err wins;
// a nil books slice means "no change".
func applyBooks(state State, name domain.ListName, books []domain.BookRecord, err error) (State, bool) {
	if err != nil {
		return withError(state, errorMessage(err))
	}
	if books == nil {
		return state, false
	}
	next := state
	switch name {
	case domain.ListFavorites:
		next.Favorites = books
	case domain.ListWantToRead:
		next.WantToRead = books
	}
	next.LastError = ""
	return next, true
}

// addBook returns a new slice with book appended, nil if already present,
// or domain.ErrInvalidBook when the book has no id.
func addBook(books []domain.BookRecord, book domain.BookRecord) ([]domain.BookRecord, error) {
	if book.ID == "" {
		return nil, domain.ErrInvalidBook
	}
	if containsBook(books, book.ID) {
		return nil, nil
	}
	next := make([]domain.BookRecord, 0, len(books)+1)
	next = append(next, books...)
	return append(next, Sanitize(book)), nil
}

// removeBook returns a filtered copy, or ok=false when nothing matched.
func removeBook(books []domain.BookRecord, id string) ([]domain.BookRecord, bool) {
	if id == "" || !containsBook(books, id) {
		return nil, false
	}
	next := make([]domain.BookRecord, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			next = append(next, b)
		}
	}
	return next, true
}

func containsBook(books []domain.BookRecord, id string) bool {
	for _, b := range books {
		if b.ID == id {
			return true
		}
	}
	return false
}

// pushRecent moves or inserts entry at the front and truncates the list.
func pushRecent(entries []domain.RecentSearchEntry, entry domain.RecentSearchEntry) []domain.RecentSearchEntry {
	next := make([]domain.RecentSearchEntry, 0, MaxRecentSearches)
	next = append(next, entry)
	for _, e := range entries {
		if len(next) == MaxRecentSearches {
			break
		}
		if e.ID != entry.ID {
			next = append(next, e)
		}
	}
	return next
}

func dedupeBooks(books []domain.BookRecord) []domain.BookRecord {
	out := make([]domain.BookRecord, 0, len(books))
	seen := make(map[string]bool, len(books))
	for _, b := range books {
		if b.ID == "" || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, Sanitize(b))
	}
	return out
}

func dedupeRecent(entries []domain.RecentSearchEntry) []domain.RecentSearchEntry {
	out := make([]domain.RecentSearchEntry, 0, MaxRecentSearches)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if len(out) == MaxRecentSearches {
			break
		}
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func cloneBooks(books []domain.BookRecord) []domain.BookRecord {
	if books == nil {
		return nil
	}
	out := make([]domain.BookRecord, len(books))
	for i, b := range books {
		out[i] = Sanitize(b)
	}
	return out
}
