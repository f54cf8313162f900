package storage

import (
	"context"
	"io"
)

// ObjectStore is the narrow contract the ledger has with external binary
// storage: put bytes under a key, get a URL back, delete by key. The ledger
// itself only ever persists the resulting (id, url) pair.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
