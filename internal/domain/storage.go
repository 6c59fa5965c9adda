package domain

// Storage is a durable string-keyed slot store.
// Get reports ok=false when the key has never been written.
type Storage interface {
	Get(key string) (data []byte, ok bool, err error)
	Put(key string, data []byte) error
	Close() error
}

// CoverCache remembers cover URLs that were confirmed to exist.
type CoverCache interface {
	GetCover(coverID string, size CoverSize) (string, bool)
	SaveCover(coverID string, size CoverSize, url string) error
}

// Observer is notified after a store commits a new state.
type Observer[S any] func(state S)
