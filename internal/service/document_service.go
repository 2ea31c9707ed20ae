package service

import (
	"context"
	"errors"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askmydocs/askmydocs/internal/filestore"
	"github.com/askmydocs/askmydocs/internal/model"
	"github.com/askmydocs/askmydocs/internal/searchindex"
)

type DocumentService struct {
	docs   DocumentStore
	chunks ChunkStore
	blobs  filestore.Store
	index  searchindex.Index
}

func NewDocumentService(docs DocumentStore, chunks ChunkStore, blobs filestore.Store, index searchindex.Index) *DocumentService {
	return &DocumentService{docs: docs, chunks: chunks, blobs: blobs, index: index}
}

type DocumentDetail struct {
	model.Document
	ChunkCount int `json:"chunk_count"`
}

func (s *DocumentService) List(ctx context.Context, ownerID string) ([]model.Document, error) {
	return s.docs.List(ctx, ownerID)
}

func (s *DocumentService) Get(ctx context.Context, ownerID, docID string) (*DocumentDetail, error) {
	doc, err := s.docs.GetByID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	count, err := s.chunks.CountByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: *doc, ChunkCount: count}, nil
}

// Delete unwinds an upload in reverse order of ingestion: chunk rows, search
// index entries, the stored blob, then the document row. The external stores
// are cleaned best-effort while the relational transaction is still open; only
// the document row delete can fail the call.
func (s *DocumentService) Delete(ctx context.Context, ownerID, docID string) error {
	doc, err := s.docs.GetByID(ctx, ownerID, docID)
	if err != nil {
		return err
	}
	return s.docs.DeleteWithChunks(ctx, ownerID, docID, func(ctx context.Context) {
		if err := s.index.DeleteByDocument(ctx, docID); err != nil {
			logutil.GetLogger(ctx).Error("delete search index entries failed",
				zap.String("document_id", docID), zap.Error(err))
		}
		if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, filestore.ErrNotExist) {
			logutil.GetLogger(ctx).Error("delete blob failed",
				zap.String("document_id", docID), zap.String("key", doc.StorageKey), zap.Error(err))
		}
	})
}
