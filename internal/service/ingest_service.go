package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askmydocs/askmydocs/internal/ai"
	"github.com/askmydocs/askmydocs/internal/extract"
	"github.com/askmydocs/askmydocs/internal/filestore"
	"github.com/askmydocs/askmydocs/internal/model"
	appErr "github.com/askmydocs/askmydocs/internal/pkg/errors"
	"github.com/askmydocs/askmydocs/internal/searchindex"
)

const (
	embedTaskDocument = "RETRIEVAL_DOCUMENT"
	embedTaskQuery    = "RETRIEVAL_QUERY"
)

// IngestService drives one upload through blob save, extraction, chunking,
// embedding, relational persistence and search indexing. Each stage that
// fails maps to a distinct terminal document status; only the blob save and
// the document row insert fail the request itself.
type IngestService struct {
	docs      DocumentStore
	chunks    ChunkStore
	blobs     filestore.Store
	index     searchindex.Index
	extractor extract.Extractor
	chunker   *extract.Chunker
	embedder  ai.IEmbedder
	pool      *ants.Pool
	embedDim  int
}

func NewIngestService(
	docs DocumentStore,
	chunks ChunkStore,
	blobs filestore.Store,
	index searchindex.Index,
	extractor extract.Extractor,
	chunker *extract.Chunker,
	embedder ai.IEmbedder,
	workers int,
	embedDim int,
) (*IngestService, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &IngestService{
		docs:      docs,
		chunks:    chunks,
		blobs:     blobs,
		index:     index,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		pool:      pool,
		embedDim:  embedDim,
	}, nil
}

func (s *IngestService) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Upload runs the full pipeline synchronously and returns the document with
// its final status plus the number of chunks that made it into the database.
// A non-nil error means no document row exists for this upload.
func (s *IngestService) Upload(ctx context.Context, ownerID, filename, contentType string, data []byte) (*model.Document, int, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, 0, appErr.ErrInvalid
	}
	if len(data) == 0 {
		return nil, 0, appErr.ErrInvalid
	}
	doc := &model.Document{
		ID:         newID(),
		OwnerID:    ownerID,
		Filename:   filename,
		StorageKey: path.Join("uploads", ownerID, filename),
		Status:     model.StatusUploaded,
		Ctime:      time.Now().Unix(),
	}
	if err := s.blobs.Save(ctx, doc.StorageKey, data, contentType); err != nil {
		return nil, 0, fmt.Errorf("%w: save upload: %v", appErr.ErrIngest, err)
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		// No document row means nothing references the blob; take it back out.
		if derr := s.blobs.Delete(ctx, doc.StorageKey); derr != nil && !errors.Is(derr, filestore.ErrNotExist) {
			logutil.GetLogger(ctx).Warn("cleanup orphan blob failed", zap.String("key", doc.StorageKey), zap.Error(derr))
		}
		return nil, 0, err
	}

	chunkCount, err := s.process(ctx, doc, data, contentType)
	return doc, chunkCount, err
}

// setStatus persists the transition at the moment it happens so a crash later
// in the pipeline cannot leave the row claiming an earlier stage.
func (s *IngestService) setStatus(ctx context.Context, doc *model.Document, status model.Status) {
	if err := s.docs.UpdateStatus(ctx, doc.ID, status); err != nil {
		logutil.GetLogger(ctx).Error("persist document status failed",
			zap.String("document_id", doc.ID), zap.String("status", string(status)), zap.Error(err))
	}
	doc.Status = status
}

// process returns a non-nil error only for request-level failures (unhandled
// panic, unconfigured embedder); every modeled stage failure becomes a
// document status instead.
func (s *IngestService) process(ctx context.Context, doc *model.Document, data []byte, contentType string) (chunkCount int, reqErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			logutil.GetLogger(ctx).Error("ingest pipeline panic",
				zap.String("document_id", doc.ID), zap.Any("panic", rec))
			s.setStatus(ctx, doc, model.StatusFailed)
			chunkCount = 0
			reqErr = appErr.ErrInternal
		}
	}()

	elements, err := s.extractor.Extract(ctx, data, doc.Filename, contentType)
	if err != nil {
		logutil.GetLogger(ctx).Warn("extract document failed",
			zap.String("document_id", doc.ID), zap.String("filename", doc.Filename), zap.Error(err))
		s.setStatus(ctx, doc, model.StatusParsingFailed)
		return 0, nil
	}
	chunks := s.buildChunks(doc, elements)
	if len(chunks) == 0 {
		s.setStatus(ctx, doc, model.StatusNoContent)
		return 0, nil
	}

	embedded, err := s.embedAll(ctx, chunks)
	if err != nil {
		// the embedder is misconfigured, not the document
		s.setStatus(ctx, doc, model.StatusFailed)
		return 0, err
	}
	if err := s.chunks.BatchInsert(ctx, embedded); err != nil {
		logutil.GetLogger(ctx).Error("persist chunks failed",
			zap.String("document_id", doc.ID), zap.Int("chunks", len(embedded)), zap.Error(err))
		s.setStatus(ctx, doc, model.StatusDBSaveFailed)
		return 0, nil
	}

	entries := make([]searchindex.Entry, 0, len(embedded))
	for _, chunk := range embedded {
		entries = append(entries, searchindex.Entry{ID: chunk.ID, Text: chunk.Text, Metadata: chunk.Metadata})
	}
	if _, err := s.index.BulkUpsert(ctx, doc.ID, entries); err != nil {
		logutil.GetLogger(ctx).Error("index chunks failed",
			zap.String("document_id", doc.ID), zap.Error(err))
		s.setStatus(ctx, doc, model.StatusIndexFailed)
		return len(embedded), nil
	}
	s.setStatus(ctx, doc, model.StatusProcessed)
	return len(embedded), nil
}

func (s *IngestService) buildChunks(doc *model.Document, elements []extract.Element) []model.DocumentChunk {
	chunks := make([]model.DocumentChunk, 0)
	position := 0
	for _, element := range elements {
		for _, window := range s.chunker.Split(element.Text) {
			meta := model.Metadata{}
			for k, v := range element.Metadata {
				meta[k] = v
			}
			meta.SetString("filename", doc.Filename)
			meta.SetString("storage_key", doc.StorageKey)
			meta.SetString("document_id", doc.ID)
			meta.SetString("owner_id", doc.OwnerID)
			meta.SetInt("position", position)
			chunks = append(chunks, model.DocumentChunk{
				ID:         newID(),
				DocumentID: doc.ID,
				Text:       window,
				Metadata:   meta,
				Position:   position,
			})
			position++
		}
	}
	return chunks
}

// embedAll fans the chunks out over the worker pool. A chunk whose embedding
// fails (provider error or wrong dimension) is dropped with a warning; the
// rest of the document still goes through. An unconfigured embedder is the one
// exception: that is a deployment problem, so it fails the request instead of
// silently dropping every chunk.
func (s *IngestService) embedAll(ctx context.Context, chunks []model.DocumentChunk) ([]model.DocumentChunk, error) {
	var wg sync.WaitGroup
	var unavailable atomic.Bool
	ok := make([]bool, len(chunks))
	for i := range chunks {
		i := i
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			vec, err := s.embedder.Embed(ctx, chunks[i].Text, embedTaskDocument)
			if err != nil {
				if errors.Is(err, ai.ErrUnavailable) {
					unavailable.Store(true)
					return
				}
				logutil.GetLogger(ctx).Warn("embed chunk failed",
					zap.String("document_id", chunks[i].DocumentID),
					zap.Int("position", chunks[i].Position), zap.Error(err))
				return
			}
			if s.embedDim > 0 && len(vec) != s.embedDim {
				logutil.GetLogger(ctx).Warn("embedding dimension mismatch",
					zap.String("document_id", chunks[i].DocumentID),
					zap.Int("position", chunks[i].Position),
					zap.Int("got", len(vec)), zap.Int("want", s.embedDim))
				return
			}
			chunks[i].Embedding = vec
			ok[i] = true
		})
		if err != nil {
			wg.Done()
			logutil.GetLogger(ctx).Warn("submit embed task failed", zap.Error(err))
		}
	}
	wg.Wait()

	if unavailable.Load() {
		return nil, ai.ErrUnavailable
	}
	kept := make([]model.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if ok[i] {
			kept = append(kept, chunk)
		}
	}
	return kept, nil
}
