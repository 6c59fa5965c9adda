package collection

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/sahilm/fuzzy"
)

// FilterResult is a saved book matching a local filter query.
type FilterResult struct {
	List           domain.ListName
	Book           domain.BookRecord
	MatchedIndexes []int // Byte offsets in Book.Title that matched
	Score          int   // Higher is better
}

// savedIndex implements fuzzy.Source over saved books.
// Only titles are indexed so MatchedIndexes map onto Title.
type savedIndex struct {
	lists  []domain.ListName
	books  []domain.BookRecord
	titles []string
}

func (idx *savedIndex) String(i int) string { return idx.titles[i] }

func (idx *savedIndex) Len() int { return len(idx.books) }

func (idx *savedIndex) add(name domain.ListName, books []domain.BookRecord) {
	for _, b := range books {
		idx.lists = append(idx.lists, name)
		idx.books = append(idx.books, b)
		idx.titles = append(idx.titles, b.Title)
	}
}

// Filter fuzzy-matches query against the titles of saved books in
// favorites and want-to-read. A book in both lists appears twice.
func (s *Store) Filter(query string) []FilterResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	state := s.State()
	idx := &savedIndex{}
	idx.add(domain.ListFavorites, state.Favorites)
	idx.add(domain.ListWantToRead, state.WantToRead)
	if idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]FilterResult, len(matches))
	for i, m := range matches {
		results[i] = FilterResult{
			List:           idx.lists[m.Index],
			Book:           idx.books[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// SuggestQueries returns recent queries ranked by closeness to prefix.
// An empty prefix returns every recent query, most recent first.
func (s *Store) SuggestQueries(prefix string) []string {
	state := s.State()
	queries := make([]string, len(state.RecentlySearched))
	for i, e := range state.RecentlySearched {
		queries[i] = e.Query
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return queries
	}

	ranks := lfuzzy.RankFindFold(prefix, queries)
	sort.Stable(ranks)

	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
