package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/shelf/internal/adapter/source/openlibrary"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchCall struct {
	Query  string
	Limit  int
	Offset int
}

type fakeCatalog struct {
	mu     sync.Mutex
	calls  []searchCall
	search func(ctx context.Context, call searchCall) (*domain.SearchPage, error)

	existsCalls int
	exists      func(ctx context.Context, url string) (bool, error)
}

func (f *fakeCatalog) Search(ctx context.Context, query string, limit, offset int) (*domain.SearchPage, error) {
	call := searchCall{Query: query, Limit: limit, Offset: offset}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	fn := f.search
	f.mu.Unlock()
	return fn(ctx, call)
}

func (f *fakeCatalog) CoverURL(coverID string, size domain.CoverSize) string {
	return fmt.Sprintf("https://covers.test/b/olid/%s-%s.jpg", coverID, size)
}

func (f *fakeCatalog) CoverExists(ctx context.Context, url string) (bool, error) {
	f.mu.Lock()
	f.existsCalls++
	f.mu.Unlock()
	if f.exists == nil {
		return false, nil
	}
	return f.exists(ctx, url)
}

func (f *fakeCatalog) Calls() []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]searchCall(nil), f.calls...)
}

func entries(ids ...string) []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, len(ids))
	for i, id := range ids {
		out[i] = domain.CatalogEntry{ID: id, Title: "Title " + id, Authors: []string{domain.UnknownAuthor}}
	}
	return out
}

// pagedCatalog serves total results named r0..rN-1 in pages.
func pagedCatalog(total int) *fakeCatalog {
	return &fakeCatalog{
		search: func(_ context.Context, c searchCall) (*domain.SearchPage, error) {
			var ids []string
			for i := c.Offset; i < c.Offset+c.Limit && i < total; i++ {
				ids = append(ids, fmt.Sprintf("r%d", i))
			}
			return &domain.SearchPage{Docs: entries(ids...), NumFound: total, Start: c.Offset}, nil
		},
	}
}

func ids(results []domain.CatalogEntry) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestSearchBooksRejectsBlankQuery(t *testing.T) {
	cat := pagedCatalog(3)
	o := New(cat)
	defer o.Close()

	o.SearchBooks(context.Background(), "dune", 1)
	before := o.State().Results

	for _, q := range []string{"", "   ", "\t\n"} {
		st := o.SearchBooks(context.Background(), q, 1)
		assert.Equal(t, MsgEmptyQuery, st.Error)
		assert.Equal(t, before, st.Results)
		assert.False(t, st.Loading)
	}
	assert.Len(t, cat.Calls(), 1)
}

func TestSearchBooksBlankQueryBeforeAnySearch(t *testing.T) {
	cat := pagedCatalog(3)
	o := New(cat)
	defer o.Close()

	st := o.SearchBooks(context.Background(), "  ", 1)
	assert.Equal(t, MsgEmptyQuery, st.Error)
	assert.Empty(t, st.Results)
	assert.False(t, st.HasSearched)
	assert.Empty(t, cat.Calls())
}

func TestSearchBooksSingleResultScenario(t *testing.T) {
	cat := &fakeCatalog{
		search: func(_ context.Context, _ searchCall) (*domain.SearchPage, error) {
			return &domain.SearchPage{Docs: entries("W9"), NumFound: 1, Start: 0}, nil
		},
	}
	o := New(cat)
	defer o.Close()

	st := o.SearchBooks(context.Background(), "dune", 1)
	assert.Equal(t, []string{"W9"}, ids(st.Results))
	assert.False(t, st.HasMore)
	assert.True(t, st.HasSearched)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, "dune", st.CurrentQuery)
	assert.Equal(t, 1, st.Page)
}

func TestSearchBooksPagination(t *testing.T) {
	cat := pagedCatalog(25)
	o := New(cat)
	defer o.Close()

	st := o.SearchBooks(context.Background(), "dune", 1)
	require.Len(t, st.Results, 10)
	assert.True(t, st.HasMore)

	st = o.SearchBooks(context.Background(), "dune", 2)
	require.Len(t, st.Results, 20)
	assert.Equal(t, "r0", st.Results[0].ID)
	assert.Equal(t, "r10", st.Results[10].ID)
	assert.True(t, st.HasMore)
	assert.Equal(t, 2, st.Page)

	st = o.LoadMore(context.Background())
	assert.Len(t, st.Results, 25)
	assert.False(t, st.HasMore)
	assert.Equal(t, 3, st.Page)

	// nothing more to load
	st = o.LoadMore(context.Background())
	assert.Len(t, st.Results, 25)

	assert.Equal(t, []searchCall{
		{Query: "dune", Limit: 10, Offset: 0},
		{Query: "dune", Limit: 10, Offset: 10},
		{Query: "dune", Limit: 10, Offset: 20},
	}, cat.Calls())

	// a new first page replaces everything
	st = o.SearchBooks(context.Background(), "dune", 1)
	assert.Len(t, st.Results, 10)
	assert.Equal(t, 1, st.Page)
}

func TestSearchBooksAppendsWithoutDeduplication(t *testing.T) {
	cat := &fakeCatalog{
		search: func(_ context.Context, c searchCall) (*domain.SearchPage, error) {
			return &domain.SearchPage{Docs: entries("same"), NumFound: 5, Start: c.Offset}, nil
		},
	}
	o := New(cat, WithPageSize(1))
	defer o.Close()

	o.SearchBooks(context.Background(), "q", 1)
	st := o.SearchBooks(context.Background(), "q", 2)
	assert.Equal(t, []string{"same", "same"}, ids(st.Results))
}

func TestSearchBooksFailedLoadMoreKeepsResults(t *testing.T) {
	fail := false
	cat := pagedCatalog(30)
	next := cat.search
	cat.search = func(ctx context.Context, c searchCall) (*domain.SearchPage, error) {
		if fail {
			return nil, &domain.StatusError{Code: http.StatusInternalServerError}
		}
		return next(ctx, c)
	}
	o := New(cat)
	defer o.Close()

	first := o.SearchBooks(context.Background(), "dune", 1)
	require.Len(t, first.Results, 10)

	fail = true
	st := o.SearchBooks(context.Background(), "dune", 2)
	assert.Equal(t, ids(first.Results), ids(st.Results))
	assert.Equal(t, "Search failed: 500", st.Error)
	assert.False(t, st.Loading)
	assert.Equal(t, 1, st.Page)

	// a successful retry of the page clears the error
	fail = false
	st = o.LoadMore(context.Background())
	assert.Len(t, st.Results, 20)
	assert.Empty(t, st.Error)
}

func TestSearchBooksFailedFirstPageClearsResults(t *testing.T) {
	fail := false
	cat := pagedCatalog(30)
	next := cat.search
	cat.search = func(ctx context.Context, c searchCall) (*domain.SearchPage, error) {
		if fail {
			return nil, fmt.Errorf("%w: connection refused", domain.ErrCatalogOffline)
		}
		return next(ctx, c)
	}
	o := New(cat)
	defer o.Close()

	o.SearchBooks(context.Background(), "dune", 1)
	fail = true
	st := o.SearchBooks(context.Background(), "dune", 1)
	assert.Empty(t, st.Results)
	assert.False(t, st.HasMore)
	assert.Equal(t, MsgNetwork, st.Error)
	assert.False(t, st.Loading)
	assert.True(t, st.HasSearched)
}

func TestSearchBooksTimeout(t *testing.T) {
	cat := &fakeCatalog{
		search: func(ctx context.Context, _ searchCall) (*domain.SearchPage, error) {
			<-ctx.Done()
			return nil, fmt.Errorf("%w: %w", domain.ErrCatalogOffline, ctx.Err())
		},
	}
	o := New(cat, WithTimeout(20*time.Millisecond))
	defer o.Close()

	st := o.SearchBooks(context.Background(), "dune", 1)
	assert.Equal(t, MsgTimeout, st.Error)
	assert.False(t, st.Loading)
}

func TestSearchBooksCanceledByCallerKeepsResults(t *testing.T) {
	block := false
	cat := pagedCatalog(30)
	next := cat.search
	cat.search = func(ctx context.Context, c searchCall) (*domain.SearchPage, error) {
		if block {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return next(ctx, c)
	}
	o := New(cat)
	defer o.Close()

	o.SearchBooks(context.Background(), "dune", 1)
	block = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := o.SearchBooks(ctx, "dune", 2)
	assert.Len(t, st.Results, 10)
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)
}

func TestSearchBooksIgnoresPaginationWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	cat := &fakeCatalog{
		search: func(_ context.Context, c searchCall) (*domain.SearchPage, error) {
			if c.Offset == 0 {
				close(started)
				<-release
			}
			return &domain.SearchPage{Docs: entries(fmt.Sprintf("o%d", c.Offset)), NumFound: 100, Start: c.Offset}, nil
		},
	}
	o := New(cat)
	defer o.Close()

	done := make(chan State)
	go func() { done <- o.SearchBooks(context.Background(), "dune", 1) }()
	<-started

	st := o.SearchBooks(context.Background(), "dune", 2)
	assert.True(t, st.Loading)
	assert.Empty(t, st.Results)

	close(release)
	final := <-done
	assert.Equal(t, []string{"o0"}, ids(final.Results))
	assert.Len(t, cat.Calls(), 1)
}

func TestSearchBooksNewQuerySupersedesInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var firstCtx context.Context
	cat := &fakeCatalog{
		search: func(ctx context.Context, c searchCall) (*domain.SearchPage, error) {
			if c.Query == "old" {
				firstCtx = ctx
				close(started)
				<-release
				// respond late regardless of cancellation
				return &domain.SearchPage{Docs: entries("stale"), NumFound: 1}, nil
			}
			return &domain.SearchPage{Docs: entries("fresh"), NumFound: 1}, nil
		},
	}
	o := New(cat)
	defer o.Close()

	done := make(chan State)
	go func() { done <- o.SearchBooks(context.Background(), "old", 1) }()
	<-started

	st := o.SearchBooks(context.Background(), "new", 1)
	assert.Equal(t, []string{"fresh"}, ids(st.Results))
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)

	close(release)
	<-done

	st = o.State()
	assert.Equal(t, []string{"fresh"}, ids(st.Results))
	assert.Equal(t, "new", st.CurrentQuery)
	assert.False(t, st.Loading)
}

func TestClearSearch(t *testing.T) {
	o := New(pagedCatalog(30))
	defer o.Close()

	o.SearchBooks(context.Background(), "dune", 1)
	st := o.ClearSearch()
	assert.Equal(t, State{}, st)
	assert.Equal(t, State{}, o.State())

	// nothing to load after a clear
	st = o.LoadMore(context.Background())
	assert.Empty(t, st.Results)
}

func TestClearSearchAbandonsInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	cat := &fakeCatalog{
		search: func(_ context.Context, _ searchCall) (*domain.SearchPage, error) {
			close(started)
			<-release
			return &domain.SearchPage{Docs: entries("late"), NumFound: 1}, nil
		},
	}
	o := New(cat)
	defer o.Close()

	done := make(chan State)
	go func() { done <- o.SearchBooks(context.Background(), "dune", 1) }()
	<-started

	o.ClearSearch()
	close(release)
	<-done

	assert.Equal(t, State{}, o.State())
}

func TestSearchBooksDiscardsLateAnswer(t *testing.T) {
	cat := &fakeCatalog{
		search: func(_ context.Context, _ searchCall) (*domain.SearchPage, error) {
			time.Sleep(80 * time.Millisecond)
			return &domain.SearchPage{Docs: entries("late"), NumFound: 1}, nil
		},
	}
	o := New(cat, WithTimeout(20*time.Millisecond))
	defer o.Close()

	st := o.SearchBooks(context.Background(), "dune", 1)
	assert.Equal(t, MsgTimeout, st.Error)
	assert.Empty(t, st.Results)
	assert.False(t, st.Loading)
	assert.False(t, st.HasMore)
	assert.Equal(t, st, o.State())
}

func TestSearchBooksRateLimitedClientTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"numFound":1,"start":0,"docs":[{"key":"W1","title":"Dune"}]}`))
	}))
	defer srv.Close()

	client := openlibrary.NewClient(openlibrary.Options{BaseURL: srv.URL, RequestsPerSecond: 0.2}, nil)
	o := New(client, WithTimeout(time.Second))
	defer o.Close()

	st := o.SearchBooks(context.Background(), "dune", 1)
	require.Len(t, st.Results, 1)

	// the next token is five seconds out, well past the request deadline
	start := time.Now()
	st = o.SearchBooks(context.Background(), "dune", 1)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, MsgTimeout, st.Error)
	assert.Empty(t, st.Results)
	assert.False(t, st.Loading)
}

func TestRetrySearch(t *testing.T) {
	cat := pagedCatalog(30)
	o := New(cat)
	defer o.Close()

	st := o.RetrySearch(context.Background())
	assert.Equal(t, State{}, st)
	assert.Empty(t, cat.Calls())

	o.SearchBooks(context.Background(), " dune ", 1)
	o.SearchBooks(context.Background(), "dune", 2)
	st = o.RetrySearch(context.Background())
	assert.Len(t, st.Results, 10)
	assert.Equal(t, 1, st.Page)

	calls := cat.Calls()
	assert.Equal(t, searchCall{Query: "dune", Limit: 10, Offset: 0}, calls[len(calls)-1])
}

func TestSubscribeSeesLoadingTransitions(t *testing.T) {
	o := New(pagedCatalog(5))
	defer o.Close()

	var mu sync.Mutex
	var loading []bool
	unsubscribe := o.Subscribe(func(s State) {
		mu.Lock()
		loading = append(loading, s.Loading)
		mu.Unlock()
	})

	o.SearchBooks(context.Background(), "dune", 1)
	unsubscribe()
	o.SearchBooks(context.Background(), "dune", 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, loading)
}

func TestSubscriberMayCallBack(t *testing.T) {
	o := New(pagedCatalog(5))
	defer o.Close()

	o.Subscribe(func(s State) {
		if s.Error != "" {
			o.ClearSearch()
		}
	})

	done := make(chan State, 1)
	go func() { done <- o.SearchBooks(context.Background(), "  ", 1) }()

	select {
	case st := <-done:
		assert.Equal(t, MsgEmptyQuery, st.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("SearchBooks did not return while a subscriber called back")
	}
	assert.Equal(t, State{}, o.State())
}

func TestCloseStopsSearching(t *testing.T) {
	cat := pagedCatalog(5)
	o := New(cat)
	o.SearchBooks(context.Background(), "dune", 1)
	require.NoError(t, o.Close())

	st := o.SearchBooks(context.Background(), "other", 1)
	assert.Equal(t, "dune", st.CurrentQuery)
	assert.Len(t, cat.Calls(), 1)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"empty query", domain.ErrEmptyQuery, MsgEmptyQuery},
		{"deadline", fmt.Errorf("%w: %w", domain.ErrCatalogOffline, context.DeadlineExceeded), MsgTimeout},
		{"status", &domain.StatusError{Code: 503}, "Search failed: 503"},
		{"wrapped status", fmt.Errorf("search: %w", &domain.StatusError{Code: 404}), "Search failed: 404"},
		{"malformed", fmt.Errorf("%w: eof", domain.ErrMalformedResponse), MsgMalformed},
		{"offline", domain.ErrCatalogOffline, MsgNetwork},
		{"other", errors.New("boom"), MsgNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}
}

func TestSearchAgainstOpenLibraryServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "dune":
			w.Write([]byte(`{"numFound":1,"start":0,"docs":[{"key":"W9"}]}`))
		case "broken":
			w.Write([]byte(`{"numFound":1}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	o := New(openlibrary.NewClient(openlibrary.Options{BaseURL: srv.URL}, nil))
	defer o.Close()

	st := o.SearchBooks(context.Background(), "dune", 1)
	require.Len(t, st.Results, 1)
	assert.Equal(t, "W9", st.Results[0].ID)
	assert.Equal(t, domain.UnknownTitle, st.Results[0].Title)
	assert.Equal(t, []string{domain.UnknownAuthor}, st.Results[0].Authors)
	assert.False(t, st.HasMore)

	st = o.SearchBooks(context.Background(), "broken", 1)
	assert.Equal(t, MsgMalformed, st.Error)

	st = o.SearchBooks(context.Background(), "other", 1)
	assert.Equal(t, "Search failed: 502", st.Error)
}

func TestFetchBookCover(t *testing.T) {
	cat := &fakeCatalog{
		exists: func(_ context.Context, url string) (bool, error) {
			switch url {
			case "https://covers.test/b/olid/OL1M-M.jpg", "https://covers.test/b/olid/OL1M-L.jpg":
				return true, nil
			case "https://covers.test/b/olid/ERR-M.jpg":
				return false, errors.New("dial tcp: refused")
			}
			return false, nil
		},
	}
	o := New(cat)
	defer o.Close()
	ctx := context.Background()

	assert.Equal(t, "", o.FetchBookCover(ctx, "", "M"))
	assert.Equal(t, "https://covers.test/b/olid/OL1M-M.jpg", o.FetchBookCover(ctx, "OL1M", "M"))
	assert.Equal(t, "https://covers.test/b/olid/OL1M-L.jpg", o.FetchBookCover(ctx, "OL1M", "L"))
	assert.Equal(t, "https://covers.test/b/olid/OL1M-M.jpg", o.FetchBookCover(ctx, "OL1M", "XXL"))
	assert.Equal(t, "", o.FetchBookCover(ctx, "OL404M", "M"))
	assert.Equal(t, "", o.FetchBookCover(ctx, "ERR", "M"))
}

func TestFetchBookCoverUsesCache(t *testing.T) {
	cache, err := store.New("")
	require.NoError(t, err)
	defer cache.Close()

	cat := &fakeCatalog{
		exists: func(_ context.Context, url string) (bool, error) { return true, nil },
	}
	o := New(cat, WithCoverCache(cache))
	defer o.Close()

	first := o.FetchBookCover(context.Background(), "OL1M", "S")
	second := o.FetchBookCover(context.Background(), "OL1M", "S")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cat.existsCalls)

	url, ok := cache.GetCover("OL1M", domain.CoverSmall)
	assert.True(t, ok)
	assert.Equal(t, first, url)
}
