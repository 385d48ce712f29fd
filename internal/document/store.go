// Package document persists uploaded document bytes (the originating image
// or PDF behind each analysis) and hands out preview references.
package document

import (
	"context"
	"errors"
)

// Store defines operations for persisting uploaded documents.
type Store interface {
	Put(ctx context.Context, id, contentType string, content []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	// GetURL returns a fetchable preview reference, or "" when the backend
	// cannot mint URLs.
	GetURL(ctx context.Context, id string) (string, error)
}

var ErrNotFound = errors.New("document not found")
