package domain

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied when a catalog entry omits its title or authors.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// BookRecord is the storage-safe projection of a catalog entry.
// Only these fields are ever persisted.
type BookRecord struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Authors          []string `json:"authors"`
	FirstPublishYear *int     `json:"firstPublishYear"`
	CoverID          *string  `json:"coverId"`
}

// GetID returns the unique identifier for this book
func (b BookRecord) GetID() string { return b.ID }

// GetTitle returns the display title
func (b BookRecord) GetTitle() string { return b.Title }

// AuthorLine joins the authors for single-line display
func (b BookRecord) AuthorLine() string {
	return strings.Join(b.Authors, ", ")
}

// YearString returns the first publish year or an empty string
func (b BookRecord) YearString() string {
	if b.FirstPublishYear == nil {
		return ""
	}
	return fmt.Sprintf("%d", *b.FirstPublishYear)
}

// CatalogEntry is a normalized search result from the remote catalog.
// Unlike BookRecord it carries catalog-only fields that are never persisted.
type CatalogEntry struct {
	ID               string   // Work key, or a synthesized fallback
	Title            string   // Display title
	Authors          []string // Ordered author names
	FirstPublishYear *int     // nil when the catalog has no year
	CoverEditionKey  string   // Edition OLID used for cover lookups
	CoverImageID     int      // Numeric cover id (0 if absent)
	EditionCount     int      // Number of known editions
}

// GetID returns the unique identifier for this entry
func (e CatalogEntry) GetID() string { return e.ID }

// GetTitle returns the display title
func (e CatalogEntry) GetTitle() string { return e.Title }

// AuthorLine joins the authors for single-line display
func (e CatalogEntry) AuthorLine() string {
	return strings.Join(e.Authors, ", ")
}

// YearString returns the first publish year or an empty string
func (e CatalogEntry) YearString() string {
	if e.FirstPublishYear == nil {
		return ""
	}
	return fmt.Sprintf("%d", *e.FirstPublishYear)
}

// Record converts the entry to its storage-safe projection.
func (e CatalogEntry) Record() BookRecord {
	rec := BookRecord{
		ID:               e.ID,
		Title:            e.Title,
		Authors:          append([]string(nil), e.Authors...),
		FirstPublishYear: e.FirstPublishYear,
	}
	if e.CoverEditionKey != "" {
		key := e.CoverEditionKey
		rec.CoverID = &key
	}
	return rec
}

// RecentSearchEntry is one submitted query in the recently-searched list.
type RecentSearchEntry struct {
	ID       string    `json:"id"`
	Query    string    `json:"query"`
	IssuedAt time.Time `json:"issuedAt"`
}

// ListName identifies one of the collection lists.
type ListName string

const (
	ListFavorites        ListName = "favorites"
	ListWantToRead       ListName = "wantToRead"
	ListRecentlySearched ListName = "recentlySearched"
)

// ListNames returns every recognized list identifier.
func ListNames() []ListName {
	return []ListName{ListFavorites, ListWantToRead, ListRecentlySearched}
}

// Valid reports whether n is a recognized list identifier.
func (n ListName) Valid() bool {
	switch n {
	case ListFavorites, ListWantToRead, ListRecentlySearched:
		return true
	}
	return false
}

// Label returns the human readable list name.
func (n ListName) Label() string {
	switch n {
	case ListFavorites:
		return "Favorites"
	case ListWantToRead:
		return "Want to Read"
	case ListRecentlySearched:
		return "Recently Searched"
	}
	return string(n)
}

// CoverSize is one of the cover image sizes offered by the cover service.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"

	DefaultCoverSize = CoverMedium
)

// NormalizeCoverSize returns size if recognized, DefaultCoverSize otherwise.
func NormalizeCoverSize(size string) CoverSize {
	switch CoverSize(strings.ToUpper(strings.TrimSpace(size))) {
	case CoverSmall:
		return CoverSmall
	case CoverMedium:
		return CoverMedium
	case CoverLarge:
		return CoverLarge
	}
	return DefaultCoverSize
}
