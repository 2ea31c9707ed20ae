package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askmydocs/askmydocs/internal/filestore"
	"github.com/askmydocs/askmydocs/internal/model"
	appErr "github.com/askmydocs/askmydocs/internal/pkg/errors"
)

func seedDocument(docs *fakeDocStore, chunks *fakeChunkStore, ownerID, docID string, chunkCount int) {
	docs.docs[docID] = &model.Document{
		ID:         docID,
		OwnerID:    ownerID,
		Filename:   "seed.txt",
		StorageKey: "uploads/" + ownerID + "/seed.txt",
		Status:     model.StatusProcessed,
	}
	for i := 0; i < chunkCount; i++ {
		chunks.inserted = append(chunks.inserted, model.DocumentChunk{
			ID: docID + "-c", DocumentID: docID, Text: "chunk", Position: i,
		})
	}
}

func TestDocumentGet_WithChunkCount(t *testing.T) {
	docs := newFakeDocStore()
	chunks := &fakeChunkStore{}
	svc := NewDocumentService(docs, chunks, newFakeBlobStore(), newFakeIndex())
	seedDocument(docs, chunks, "owner-1", "doc-1", 3)

	detail, err := svc.Get(context.Background(), "owner-1", "doc-1")
	require.NoError(t, err)
	require.Equal(t, "doc-1", detail.ID)
	require.Equal(t, 3, detail.ChunkCount)

	_, err = svc.Get(context.Background(), "owner-2", "doc-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentDelete_Order(t *testing.T) {
	events := []string{}
	docs := newFakeDocStore()
	docs.events = &events
	chunks := &fakeChunkStore{}
	blobs := newFakeBlobStore()
	blobs.events = &events
	index := newFakeIndex()
	index.events = &events
	svc := NewDocumentService(docs, chunks, blobs, index)
	seedDocument(docs, chunks, "owner-1", "doc-1", 2)
	blobs.saved["uploads/owner-1/seed.txt"] = []byte("data")
	index.entries["doc-1"] = nil

	require.NoError(t, svc.Delete(context.Background(), "owner-1", "doc-1"))
	// chunk rows first, then external stores, then the authoritative row
	require.Equal(t, []string{"chunks_deleted", "index_deleted", "blob_deleted", "doc_deleted"}, events)
	require.NotContains(t, docs.docs, "doc-1")
	require.Empty(t, blobs.saved)
}

func TestDocumentDelete_NotFoundAndForeignOwner(t *testing.T) {
	docs := newFakeDocStore()
	chunks := &fakeChunkStore{}
	svc := NewDocumentService(docs, chunks, newFakeBlobStore(), newFakeIndex())
	seedDocument(docs, chunks, "owner-1", "doc-1", 1)

	err := svc.Delete(context.Background(), "owner-1", "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// someone else's document looks exactly like a missing one
	err = svc.Delete(context.Background(), "owner-2", "doc-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Contains(t, docs.docs, "doc-1")
}

func TestDocumentDelete_MissingBlobIsFine(t *testing.T) {
	docs := newFakeDocStore()
	chunks := &fakeChunkStore{}
	blobs := newFakeBlobStore()
	blobs.deleteErr = filestore.ErrNotExist
	svc := NewDocumentService(docs, chunks, blobs, newFakeIndex())
	seedDocument(docs, chunks, "owner-1", "doc-1", 1)

	require.NoError(t, svc.Delete(context.Background(), "owner-1", "doc-1"))
	require.NotContains(t, docs.docs, "doc-1")
}

func TestDocumentDelete_IndexErrorDoesNotBlock(t *testing.T) {
	docs := newFakeDocStore()
	chunks := &fakeChunkStore{}
	index := newFakeIndex()
	index.deleteErr = errors.New("es down")
	svc := NewDocumentService(docs, chunks, newFakeBlobStore(), index)
	seedDocument(docs, chunks, "owner-1", "doc-1", 1)

	require.NoError(t, svc.Delete(context.Background(), "owner-1", "doc-1"))
	require.NotContains(t, docs.docs, "doc-1")
}

func TestDocumentList_ScopedToOwner(t *testing.T) {
	docs := newFakeDocStore()
	chunks := &fakeChunkStore{}
	svc := NewDocumentService(docs, chunks, newFakeBlobStore(), newFakeIndex())
	seedDocument(docs, chunks, "owner-1", "doc-1", 0)
	seedDocument(docs, chunks, "owner-2", "doc-2", 0)

	listed, err := svc.List(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "doc-1", listed[0].ID)
}
