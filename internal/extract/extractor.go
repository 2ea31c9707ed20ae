// Package extract turns uploaded bytes into an ordered list of text elements
// and slices element text into overlapping windows for embedding.
package extract

import (
	"context"

	"github.com/askmydocs/askmydocs/internal/model"
)

// Element is one extracted piece of text plus whatever the extractor knows
// about it (heading, category, source content type).
type Element struct {
	Text     string
	Metadata model.Metadata
}

type Extractor interface {
	// Extract may return an empty slice without an error: the upload was
	// readable but contained nothing usable. The two cases map to different
	// document statuses.
	Extract(ctx context.Context, data []byte, filename, contentType string) ([]Element, error)
}
