// Package searchindex mirrors chunk text and metadata into a secondary
// full-text store. The relational database stays the source of truth; the
// index is denormalized, rebuildable and only eventually consistent.
package searchindex

import (
	"context"

	"github.com/askmydocs/askmydocs/internal/model"
)

type Entry struct {
	ID       string
	Text     string
	Metadata model.Metadata
}

type Index interface {
	EnsureIndex(ctx context.Context) error
	BulkUpsert(ctx context.Context, documentID string, entries []Entry) (int, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	Ping(ctx context.Context) error
}
