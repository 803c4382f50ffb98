package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrCacheMiss = errors.New("page text not cached")

// PageCache stores recognized page text keyed by page image content and model.
type PageCache interface {
	// Get returns the cached text or ErrCacheMiss.
	Get(ctx context.Context, key, model string) (string, error)

	// Put upserts the text for key and model.
	Put(ctx context.Context, key, model, text string) error

	Delete(ctx context.Context, key, model string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// PageKey is the hex sha256 of a page image.
func PageKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
