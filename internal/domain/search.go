package domain

import "context"

// SearchPage is one page of catalog results.
type SearchPage struct {
	Docs     []CatalogEntry
	NumFound int
	Start    int // offset of Docs[0]
}

// Catalog is the remote book catalog.
type Catalog interface {
	// Search returns one page of results for query starting at offset
	Search(ctx context.Context, query string, limit, offset int) (*SearchPage, error)

	// CoverURL builds the cover asset URL for an edition key
	CoverURL(coverID string, size CoverSize) string

	// CoverExists checks whether the asset at url is available
	CoverExists(ctx context.Context, url string) (bool, error)
}
