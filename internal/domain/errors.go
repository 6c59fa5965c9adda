package domain

import (
	"errors"
	"strconv"
)

// Sentinel errors for domain operations
var (
	// ErrInvalidBook indicates a book without an identifier
	ErrInvalidBook = errors.New("invalid book data")

	// ErrInvalidListName indicates an unrecognized list identifier
	ErrInvalidListName = errors.New("invalid list name")

	// ErrEmptyQuery indicates an empty or whitespace-only search query
	ErrEmptyQuery = errors.New("empty search query")

	// ErrCatalogOffline indicates the catalog is unreachable
	ErrCatalogOffline = errors.New("catalog is unreachable")

	// ErrMalformedResponse indicates the catalog answered with an unexpected body
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrStorageClosed indicates use of a closed storage handle
	ErrStorageClosed = errors.New("storage is closed")
)

// StatusError is returned when the catalog answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "unexpected status code: " + strconv.Itoa(e.Code)
}
