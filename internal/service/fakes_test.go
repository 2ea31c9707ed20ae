package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/askmydocs/askmydocs/internal/extract"
	"github.com/askmydocs/askmydocs/internal/model"
	appErr "github.com/askmydocs/askmydocs/internal/pkg/errors"
	"github.com/askmydocs/askmydocs/internal/searchindex"
)

type fakeDocStore struct {
	mu        sync.Mutex
	docs      map[string]*model.Document
	createErr error
	updateErr error
	events    *[]string
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[string]*model.Document{}}
}

func (f *fakeDocStore) Create(ctx context.Context, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	clone := *doc
	f.docs[doc.ID] = &clone
	return nil
}

func (f *fakeDocStore) UpdateStatus(ctx context.Context, docID string, status model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	doc, ok := f.docs[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	doc.Status = status
	return nil
}

func (f *fakeDocStore) GetByID(ctx context.Context, ownerID, docID string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[docID]
	if !ok || doc.OwnerID != ownerID {
		return nil, appErr.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (f *fakeDocStore) List(ctx context.Context, ownerID string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Document, 0)
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocStore) ListByStatus(ctx context.Context, status model.Status, limit uint) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Document, 0)
	for _, doc := range f.docs {
		if doc.Status == status {
			out = append(out, *doc)
		}
		if limit > 0 && uint(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDocStore) DeleteWithChunks(ctx context.Context, ownerID, docID string, between func(context.Context)) error {
	f.record("chunks_deleted")
	if between != nil {
		between(ctx)
	}
	f.mu.Lock()
	doc, ok := f.docs[docID]
	if !ok || doc.OwnerID != ownerID {
		f.mu.Unlock()
		return appErr.ErrNotFound
	}
	delete(f.docs, docID)
	f.mu.Unlock()
	f.record("doc_deleted")
	return nil
}

func (f *fakeDocStore) record(event string) {
	if f.events == nil {
		return
	}
	f.mu.Lock()
	*f.events = append(*f.events, event)
	f.mu.Unlock()
}

type fakeChunkStore struct {
	mu        sync.Mutex
	inserted  []model.DocumentChunk
	insertErr error
}

func (f *fakeChunkStore) BatchInsert(ctx context.Context, chunks []model.DocumentChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeChunkStore) ListByDocument(ctx context.Context, docID string) ([]model.DocumentChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.DocumentChunk, 0)
	for _, chunk := range f.inserted {
		if chunk.DocumentID == docID {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (f *fakeChunkStore) CountByDocument(ctx context.Context, docID string) (int, error) {
	chunks, _ := f.ListByDocument(ctx, docID)
	return len(chunks), nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	saved     map[string][]byte
	deleted   []string
	saveErr   error
	deleteErr error
	events    *[]string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{saved: map[string][]byte{}}
}

func (f *fakeBlobStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[key] = data
	return nil
}

func (f *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.saved[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	if f.deleteErr != nil {
		f.mu.Unlock()
		return f.deleteErr
	}
	delete(f.saved, key)
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	if f.events != nil {
		f.mu.Lock()
		*f.events = append(*f.events, "blob_deleted")
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeBlobStore) Ping(ctx context.Context) error { return nil }
func (f *fakeBlobStore) Type() string                   { return "fake" }

type fakeIndex struct {
	mu         sync.Mutex
	entries    map[string][]searchindex.Entry
	upsertErr  error
	deleteErr  error
	deleted    []string
	events     *[]string
	ensureDone bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: map[string][]searchindex.Entry{}}
}

func (f *fakeIndex) EnsureIndex(ctx context.Context) error {
	f.ensureDone = true
	return nil
}

func (f *fakeIndex) BulkUpsert(ctx context.Context, documentID string, entries []searchindex.Entry) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.entries[documentID] = append(f.entries[documentID], entries...)
	return len(entries), nil
}

func (f *fakeIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	f.mu.Lock()
	if f.deleteErr != nil {
		f.mu.Unlock()
		return f.deleteErr
	}
	delete(f.entries, documentID)
	f.deleted = append(f.deleted, documentID)
	f.mu.Unlock()
	if f.events != nil {
		f.mu.Lock()
		*f.events = append(*f.events, "index_deleted")
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeIndex) Ping(ctx context.Context) error { return nil }

type fakeEmbedder struct {
	dim      int
	failSub  string
	embedErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.failSub != "" && strings.Contains(text, f.failSub) {
		return nil, appErr.ErrInternal
	}
	vec := make([]float32, f.dim)
	for i := range vec {
		vec[i] = float32(len(text))
	}
	return vec, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fakeExtractor struct {
	elements []extract.Element
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, filename, contentType string) ([]extract.Element, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.elements, nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return appErr.ErrConflict
	}
	clone := *user
	f.users[user.Email] = &clone
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[email]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *user
	return &clone, nil
}
