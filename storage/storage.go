package storage

import (
	"context"
	"errors"
)

// Extension is the suffix of every working file.
const Extension = ".ogg"

// ErrNotFound is returned by Download when the key does not exist.
var ErrNotFound = errors.New("storage: file not found")

// Storage stores working files by key.
type Storage interface {
	// Upload writes data under key, replacing any existing file.
	Upload(ctx context.Context, key string, data []byte) error

	// Download reads the file stored under key.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the file under key. A missing file is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a file is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Path returns the location of key as seen by collaborators,
	// e.g. "downloads/AgADBQ.ogg".
	Path(key string) string
}

// Key returns the working-file key for a voice attachment's unique identifier.
func Key(uniqueID string) string {
	return uniqueID + Extension
}
