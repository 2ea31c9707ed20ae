// Package job holds the background jobs wired into the cron scheduler.
package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askmydocs/askmydocs/internal/model"
	"github.com/askmydocs/askmydocs/internal/searchindex"
	"github.com/askmydocs/askmydocs/internal/service"
)

// ReindexJob retries the search-index step for documents whose ingestion
// stopped at the index-failed status. The chunk rows in the database are the
// source of truth, so the index entries can always be rebuilt from them. This
// is the only path that moves a document out of a failure status.
type ReindexJob struct {
	docs      service.DocumentStore
	chunks    service.ChunkStore
	index     searchindex.Index
	batchSize uint
}

func NewReindexJob(docs service.DocumentStore, chunks service.ChunkStore, index searchindex.Index, batchSize int) *ReindexJob {
	if batchSize < 1 {
		batchSize = 20
	}
	return &ReindexJob{docs: docs, chunks: chunks, index: index, batchSize: uint(batchSize)}
}

func (j *ReindexJob) Name() string {
	return "reindex_failed_documents"
}

func (j *ReindexJob) Run(ctx context.Context) error {
	docs, err := j.docs.ListByStatus(ctx, model.StatusIndexFailed, j.batchSize)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := j.reindexOne(ctx, doc); err != nil {
			logutil.GetLogger(ctx).Warn("reindex document failed",
				zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	return nil
}

func (j *ReindexJob) reindexOne(ctx context.Context, doc model.Document) error {
	chunks, err := j.chunks.ListByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	entries := make([]searchindex.Entry, 0, len(chunks))
	for _, chunk := range chunks {
		entries = append(entries, searchindex.Entry{ID: chunk.ID, Text: chunk.Text, Metadata: chunk.Metadata})
	}
	if _, err := j.index.BulkUpsert(ctx, doc.ID, entries); err != nil {
		return err
	}
	if err := j.docs.UpdateStatus(ctx, doc.ID, model.StatusProcessed); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("document reindexed",
		zap.String("document_id", doc.ID), zap.Int("chunks", len(entries)))
	return nil
}
