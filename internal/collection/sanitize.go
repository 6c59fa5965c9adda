package collection

import (
	"strings"

	"github.com/mmcdole/shelf/internal/domain"
)

// Sanitize returns a deep copy of book with defaults applied:
// a blank title becomes "Unknown Title", an empty author list becomes
// ["Unknown Author"], blank author names and blank cover ids are dropped.
func Sanitize(book domain.BookRecord) domain.BookRecord {
	out := domain.BookRecord{
		ID:    book.ID,
		Title: strings.TrimSpace(book.Title),
	}
	if out.Title == "" {
		out.Title = domain.UnknownTitle
	}

	for _, a := range book.Authors {
		if a = strings.TrimSpace(a); a != "" {
			out.Authors = append(out.Authors, a)
		}
	}
	if len(out.Authors) == 0 {
		out.Authors = []string{domain.UnknownAuthor}
	}

	if book.FirstPublishYear != nil {
		year := *book.FirstPublishYear
		out.FirstPublishYear = &year
	}
	if book.CoverID != nil {
		if id := strings.TrimSpace(*book.CoverID); id != "" {
			out.CoverID = &id
		}
	}
	return out
}
