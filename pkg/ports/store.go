package ports

import (
	"context"
)

// ObjectStore uploads produced images to remote storage.
type ObjectStore interface {
	// Put stores data under key and returns the location of the stored object.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
