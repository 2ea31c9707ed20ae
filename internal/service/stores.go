package service

import (
	"context"

	"github.com/askmydocs/askmydocs/internal/model"
)

// Store interfaces sit between the orchestrators and internal/repo so the
// pipeline logic is testable without a running Postgres.

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	UpdateStatus(ctx context.Context, docID string, status model.Status) error
	GetByID(ctx context.Context, ownerID, docID string) (*model.Document, error)
	List(ctx context.Context, ownerID string) ([]model.Document, error)
	ListByStatus(ctx context.Context, status model.Status, limit uint) ([]model.Document, error)
	DeleteWithChunks(ctx context.Context, ownerID, docID string, between func(context.Context)) error
}

type ChunkStore interface {
	BatchInsert(ctx context.Context, chunks []model.DocumentChunk) error
	ListByDocument(ctx context.Context, docID string) ([]model.DocumentChunk, error)
	CountByDocument(ctx context.Context, docID string) (int, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
