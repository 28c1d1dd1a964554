// internal/storage/archive/interface.go
package archive

import "context"

// Storage is the backend for persisted run artifacts (reports, trade
// ledgers, candle exports). Paths are slash-separated and relative to
// the backend root.
type Storage interface {
	// Write stores data at the given path, creating parents as needed
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves the data stored at the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all stored paths under the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the artifact at the given path
	Delete(ctx context.Context, path string) error

	// Exists reports whether an artifact is stored at the given path
	Exists(ctx context.Context, path string) (bool, error)
}
