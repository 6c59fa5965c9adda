package collection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmcdole/shelf/internal/domain"
)

// document is the persisted JSON shape. There is no version field;
// decoding must tolerate missing fields.
type document struct {
	Favorites        []domain.BookRecord        `json:"favorites"`
	WantToRead       []domain.BookRecord        `json:"wantToRead"`
	RecentlySearched []domain.RecentSearchEntry `json:"recentlySearched"`
}

func encodeState(s State) ([]byte, error) {
	doc := document{
		Favorites:        s.Favorites,
		WantToRead:       s.WantToRead,
		RecentlySearched: s.RecentlySearched,
	}
	if doc.Favorites == nil {
		doc.Favorites = []domain.BookRecord{}
	}
	if doc.WantToRead == nil {
		doc.WantToRead = []domain.BookRecord{}
	}
	if doc.RecentlySearched == nil {
		doc.RecentlySearched = []domain.RecentSearchEntry{}
	}
	return json.Marshal(doc)
}

// decodeDocument recovers as much of data as it can. A syntactically invalid
// payload yields an empty document; an absent or mistyped field yields an
// empty list; an undecodable record is skipped. The returned error describes
// everything that was dropped and is meant for logging only.
func decodeDocument(data []byte) (document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return document{}, fmt.Errorf("parse saved collections: %w", err)
	}

	var doc document
	var errs []error
	doc.Favorites, errs = decodeList[domain.BookRecord](raw, string(domain.ListFavorites), errs)
	doc.WantToRead, errs = decodeList[domain.BookRecord](raw, string(domain.ListWantToRead), errs)
	doc.RecentlySearched, errs = decodeList[domain.RecentSearchEntry](raw, string(domain.ListRecentlySearched), errs)
	return doc, errors.Join(errs...)
}

func decodeList[T any](raw map[string]json.RawMessage, field string, errs []error) ([]T, []error) {
	msg, ok := raw[field]
	if !ok {
		return []T{}, errs
	}

	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return []T{}, append(errs, fmt.Errorf("field %s: %w", field, err))
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			errs = append(errs, fmt.Errorf("field %s[%d]: %w", field, i, err))
			continue
		}
		out = append(out, v)
	}
	return out, errs
}
