package store

import "context"

// AssetStore is a byte-blob store keyed by generated names. It holds the
// uploaded source images and the downloaded output videos.
type AssetStore interface {
	// Put stores data under a freshly generated name and returns that name.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the bytes stored under name.
	// Returns ErrAssetNotFound if nothing is stored under name.
	Get(ctx context.Context, name string) ([]byte, error)
}
