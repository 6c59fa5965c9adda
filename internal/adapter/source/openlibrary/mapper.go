package openlibrary

import (
	"strings"

	"github.com/google/uuid"
	"github.com/mmcdole/shelf/internal/domain"
)

// GeneratedIDPrefix marks ids synthesized for docs without a key.
const GeneratedIDPrefix = "generated-"

// MapSearchPage converts a search response to a domain page.
// requestOffset is used when the response does not echo its offset.
func MapSearchPage(resp *SearchResponse, requestOffset int) *domain.SearchPage {
	page := &domain.SearchPage{
		NumFound: resp.NumFound,
		Start:    requestOffset,
	}
	switch {
	case resp.Start != nil:
		page.Start = *resp.Start
	case resp.Offset != nil:
		page.Start = *resp.Offset
	}
	if resp.Docs != nil {
		page.Docs = MapDocs(*resp.Docs)
	}
	return page
}

// MapDocs normalizes catalog docs, keeping their order
func MapDocs(docs []SearchDoc) []domain.CatalogEntry {
	entries := make([]domain.CatalogEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, MapDoc(d))
	}
	return entries
}

// MapDoc normalizes a single doc: missing title and authors get their
// defaults, a missing key gets a synthesized unique id.
func MapDoc(d SearchDoc) domain.CatalogEntry {
	entry := domain.CatalogEntry{
		ID:              strings.TrimSpace(d.Key),
		Title:           strings.TrimSpace(d.Title),
		CoverEditionKey: strings.TrimSpace(d.CoverEditionKey),
		CoverImageID:    d.CoverI,
		EditionCount:    d.EditionCount,
	}
	if entry.ID == "" {
		entry.ID = GeneratedIDPrefix + uuid.NewString()
	}
	if entry.Title == "" {
		entry.Title = domain.UnknownTitle
	}

	for _, name := range d.AuthorName {
		if name = strings.TrimSpace(name); name != "" {
			entry.Authors = append(entry.Authors, name)
		}
	}
	if len(entry.Authors) == 0 {
		entry.Authors = []string{domain.UnknownAuthor}
	}

	if d.FirstPublishYear != nil && *d.FirstPublishYear > 0 {
		year := *d.FirstPublishYear
		entry.FirstPublishYear = &year
	}
	return entry
}
