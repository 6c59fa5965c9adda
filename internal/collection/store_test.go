package collection

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStorage wraps a memory store and can be told to fail.
type flakyStorage struct {
	domain.Storage
	mu       sync.Mutex
	failGet  bool
	failPut  bool
	putCalls int
}

func (f *flakyStorage) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, false, errors.New("storage error")
	}
	return f.Storage.Get(key)
}

func (f *flakyStorage) Put(key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.failPut {
		return errors.New("quota exceeded")
	}
	return f.Storage.Put(key, data)
}

func newMemoryStorage(t *testing.T) domain.Storage {
	t.Helper()
	s, err := store.New("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ids(books []domain.BookRecord) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestStoreInitialState(t *testing.T) {
	s := New(newMemoryStorage(t))
	defer s.Close()

	st := s.State()
	assert.True(t, st.Loaded)
	assert.Empty(t, st.Favorites)
	assert.Empty(t, st.WantToRead)
	assert.Empty(t, st.RecentlySearched)
	assert.Empty(t, st.LastError)
}

func TestStoreFavoriteScenario(t *testing.T) {
	s := New(newMemoryStorage(t))
	defer s.Close()

	s.AddToFavorites(domain.BookRecord{ID: "W1", Title: "A"})
	assert.True(t, s.IsFavorite("W1"))

	s.RemoveFromFavorites("W1")
	assert.False(t, s.IsFavorite("W1"))
	assert.Empty(t, s.State().Favorites)
}

func TestStoreAddTwiceKeepsOneEntry(t *testing.T) {
	s := New(newMemoryStorage(t))
	defer s.Close()

	b := domain.BookRecord{ID: "/works/OL123W", Title: "Test Book"}
	s.AddToFavorites(b)
	before := len(s.State().Favorites)
	s.AddToFavorites(b)

	assert.Equal(t, before, len(s.State().Favorites))
	assert.Equal(t, 1, before)
}

func TestStoreInvalidInputSetsLastError(t *testing.T) {
	s := New(newMemoryStorage(t))
	defer s.Close()

	s.AddToFavorites(domain.BookRecord{Title: "No Key"})
	assert.Equal(t, MsgInvalidBook, s.State().LastError)

	s.ClearError()
	assert.Empty(t, s.State().LastError)

	s.ClearList("invalidList")
	assert.Equal(t, MsgInvalidListName, s.State().LastError)
}

func TestStoreMembershipIsPure(t *testing.T) {
	s := New(newMemoryStorage(t))
	defer s.Close()

	calls := 0
	unsubscribe := s.Subscribe(func(State) { calls++ })
	defer unsubscribe()

	assert.False(t, s.IsFavorite("W1"))
	assert.False(t, s.IsInWantToRead(""))
	assert.False(t, s.IsInRecentlySearched("x"))
	assert.Equal(t, 0, calls)
}

func TestStoreRoundTrip(t *testing.T) {
	storage := newMemoryStorage(t)

	first := New(storage)
	first.AddToFavorites(domain.BookRecord{ID: "W1", Title: "A"})
	first.AddToFavorites(domain.BookRecord{ID: "W2", Title: "B"})
	first.AddToWantToRead(domain.BookRecord{ID: "W3", Title: "C"})
	first.RecordSearch("dune")
	first.RecordSearch("foundation")
	want := first.State()
	require.NoError(t, first.Close())

	second := New(storage)
	defer second.Close()
	got := second.State()

	assert.Equal(t, ids(want.Favorites), ids(got.Favorites))
	assert.Equal(t, ids(want.WantToRead), ids(got.WantToRead))
	require.Len(t, got.RecentlySearched, 2)
	assert.Equal(t, "foundation", got.RecentlySearched[0].Query)
	assert.Equal(t, want.RecentlySearched[1].ID, got.RecentlySearched[1].ID)
}

func TestStoreRoundTripThroughBolt(t *testing.T) {
	dir := t.TempDir()

	db, err := store.New(dir)
	require.NoError(t, err)
	first := New(db)
	first.AddToWantToRead(domain.BookRecord{ID: "W1", Title: "A"})
	require.NoError(t, first.Close())
	require.NoError(t, db.Close())

	db, err = store.New(dir)
	require.NoError(t, err)
	defer db.Close()
	second := New(db)
	defer second.Close()

	assert.True(t, second.IsInWantToRead("W1"))
}

func TestStorePersistsSanitizedRecords(t *testing.T) {
	storage := newMemoryStorage(t)
	s := New(storage)
	defer s.Close()

	s.AddToFavorites(domain.BookRecord{ID: "/works/incomplete"})

	data, ok, err := storage.Get(DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, ok)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc["favorites"], 1)

	rec := doc["favorites"][0]
	assert.Equal(t, "/works/incomplete", rec["id"])
	assert.Equal(t, domain.UnknownTitle, rec["title"])
	assert.Equal(t, []any{domain.UnknownAuthor}, rec["authors"])
	assert.ElementsMatch(t, []string{"id", "title", "authors", "firstPublishYear", "coverId"}, keys(rec))
	assert.Empty(t, doc["wantToRead"])
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestStorePartialRecovery(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		favorites []string
		want      []string
		recent    int
	}{
		{
			name:    "invalid json",
			payload: `{"favorites": [`,
		},
		{
			name:      "missing fields",
			payload:   `{"favorites":[{"id":"W1","title":"A"}]}`,
			favorites: []string{"W1"},
		},
		{
			name:      "mistyped field",
			payload:   `{"favorites":"oops","wantToRead":[{"id":"W2"}]}`,
			want:      []string{"W2"},
		},
		{
			name:      "bad record skipped",
			payload:   `{"favorites":[{"id":"W1"},{"id":7},{"id":"W3"}],"recentlySearched":[{"id":"s1","query":"dune","issuedAt":"2024-01-01T00:00:00Z"}]}`,
			favorites: []string{"W1", "W3"},
			recent:    1,
		},
		{
			name:    "null document",
			payload: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMemoryStorage(t)
			require.NoError(t, storage.Put(DefaultStorageKey, []byte(tt.payload)))

			s := New(storage)
			defer s.Close()
			st := s.State()

			assert.True(t, st.Loaded)
			assert.Empty(t, st.LastError)
			assert.Equal(t, append([]string{}, tt.favorites...), ids(st.Favorites))
			assert.Equal(t, append([]string{}, tt.want...), ids(st.WantToRead))
			assert.Len(t, st.RecentlySearched, tt.recent)
		})
	}
}

func TestStoreReadFailureStartsEmpty(t *testing.T) {
	storage := &flakyStorage{Storage: newMemoryStorage(t), failGet: true}

	s := New(storage)
	defer s.Close()

	st := s.State()
	assert.True(t, st.Loaded)
	assert.Empty(t, st.Favorites)
}

func TestStoreWriteFailureKeepsMemoryState(t *testing.T) {
	storage := &flakyStorage{Storage: newMemoryStorage(t), failPut: true}

	s := New(storage)
	defer s.Close()

	s.AddToFavorites(domain.BookRecord{ID: "W1", Title: "A"})
	s.AddToWantToRead(domain.BookRecord{ID: "W2", Title: "B"})

	assert.True(t, s.IsFavorite("W1"))
	assert.True(t, s.IsInWantToRead("W2"))
	assert.Empty(t, s.State().LastError)
	assert.Equal(t, 2, storage.putCalls)
}

func TestStoreDoesNotWriteOnLoadOrNoOp(t *testing.T) {
	storage := &flakyStorage{Storage: newMemoryStorage(t)}

	s := New(storage)
	defer s.Close()
	assert.Equal(t, 0, storage.putCalls)

	s.RemoveFromFavorites("missing")
	s.AddToRecentlySearched(domain.RecentSearchEntry{Query: "no id"})
	assert.Equal(t, 0, storage.putCalls)

	s.AddToFavorites(domain.BookRecord{ID: "W1"})
	assert.Equal(t, 1, storage.putCalls)
}

func TestStoreClosedStopsWriting(t *testing.T) {
	storage := &flakyStorage{Storage: newMemoryStorage(t)}
	s := New(storage)
	require.NoError(t, s.Close())

	s.AddToFavorites(domain.BookRecord{ID: "W1"})
	assert.Equal(t, 0, storage.putCalls)
	assert.True(t, s.IsFavorite("W1"))
}

func TestStoreRecordSearch(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(newMemoryStorage(t), WithClock(func() time.Time { return now }))
	defer s.Close()

	s.RecordSearch("  ")
	assert.Empty(t, s.State().RecentlySearched)

	s.RecordSearch("Dune")
	s.RecordSearch("Foundation")
	s.RecordSearch(" dune ")

	st := s.State()
	require.Len(t, st.RecentlySearched, 2)
	assert.Equal(t, "dune", st.RecentlySearched[0].Query)
	assert.Equal(t, now, st.RecentlySearched[0].IssuedAt)
	assert.True(t, s.IsInRecentlySearched(RecentSearchID("DUNE")))
}

func TestStoreSubscribe(t *testing.T) {
	s := New(newMemoryStorage(t))
	defer s.Close()

	var got []State
	unsubscribe := s.Subscribe(func(st State) { got = append(got, st) })

	s.AddToFavorites(domain.BookRecord{ID: "W1"})
	s.AddToFavorites(domain.BookRecord{ID: "W1"})
	require.Len(t, got, 1)
	assert.Len(t, got[0].Favorites, 1)

	got[0].Favorites[0].Title = "mutated"
	assert.Equal(t, domain.UnknownTitle, s.State().Favorites[0].Title)

	unsubscribe()
	s.RemoveFromFavorites("W1")
	assert.Len(t, got, 1)
}

func TestStoreSubscriberMayCallBack(t *testing.T) {
	s := New(newMemoryStorage(t))
	defer s.Close()

	var mu sync.Mutex
	var seen []string
	s.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, st.LastError)
		mu.Unlock()
		if st.LastError != "" {
			s.ClearError()
		}
	})

	done := make(chan struct{})
	go func() {
		s.AddToFavorites(domain.BookRecord{Title: "No Key"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AddToFavorites did not return while a subscriber called back")
	}
	assert.Empty(t, s.State().LastError)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{MsgInvalidBook, ""}, seen)
}

func TestStoreConcurrentMutations(t *testing.T) {
	storage := newMemoryStorage(t)
	s := New(storage)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('A' + i%26))
			s.AddToFavorites(domain.BookRecord{ID: id + "-fav"})
			s.AddToWantToRead(domain.BookRecord{ID: id + "-want"})
		}(i)
	}
	wg.Wait()
	require.NoError(t, s.Close())

	st := s.State()
	assert.Len(t, st.Favorites, 26)
	assert.Len(t, st.WantToRead, 26)

	reloaded := New(storage)
	defer reloaded.Close()
	assert.ElementsMatch(t, ids(st.Favorites), ids(reloaded.State().Favorites))
	assert.ElementsMatch(t, ids(st.WantToRead), ids(reloaded.State().WantToRead))
}

func TestStoreToggle(t *testing.T) {
	s := New(nil)
	defer s.Close()

	b := domain.BookRecord{ID: "W1", Title: "A"}
	assert.True(t, s.ToggleFavorite(b))
	assert.False(t, s.ToggleFavorite(b))
	assert.True(t, s.ToggleWantToRead(b))
	assert.True(t, s.IsInWantToRead("W1"))
	assert.False(t, s.IsFavorite("W1"))
}
