package domain

// ListItem is implemented by everything that renders as a book row:
// saved records and catalog search results.
type ListItem interface {
	GetID() string
	GetTitle() string

	// AuthorLine returns the authors joined for display
	AuthorLine() string

	// YearString returns the first publish year, or "" if unknown
	YearString() string
}

var (
	_ ListItem = BookRecord{}
	_ ListItem = CatalogEntry{}
)
