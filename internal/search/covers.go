package search

import (
	"context"
	"strings"

	"github.com/mmcdole/shelf/internal/domain"
)

// FetchBookCover resolves the cover URL for an edition key, or "" when
// the cover does not exist or cannot be checked. Unknown sizes fall back
// to domain.DefaultCoverSize. It never fails.
func (o *Orchestrator) FetchBookCover(ctx context.Context, coverID, size string) string {
	coverID = strings.TrimSpace(coverID)
	if coverID == "" {
		return ""
	}
	sz := domain.NormalizeCoverSize(size)

	if o.covers != nil {
		if url, ok := o.covers.GetCover(coverID, sz); ok {
			return url
		}
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	url := o.catalog.CoverURL(coverID, sz)
	ok, err := o.catalog.CoverExists(ctx, url)
	if err != nil {
		o.logger.Error("failed to fetch book cover", "error", err, "coverID", coverID)
		return ""
	}
	if !ok {
		o.logger.Warn("cover not found", "coverID", coverID, "size", sz)
		return ""
	}

	if o.covers != nil {
		if err := o.covers.SaveCover(coverID, sz, url); err != nil {
			o.logger.Error("failed to save cover", "error", err, "coverID", coverID)
		}
	}
	return url
}
