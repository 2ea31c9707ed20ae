package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askmydocs/askmydocs/internal/model"
	"github.com/askmydocs/askmydocs/internal/pkg/dbutil"
	appErr "github.com/askmydocs/askmydocs/internal/pkg/errors"
)

var documentFields = []string{"id", "owner_id", "filename", "storage_key", "status", "ctime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"owner_id":    doc.OwnerID,
		"filename":    doc.Filename,
		"storage_key": doc.StorageKey,
		"status":      string(doc.Status),
		"ctime":       doc.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, docID string, status model.Status) error {
	where := map[string]interface{}{
		"id": docID,
	}
	update := map[string]interface{}{
		"status": string(status),
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, ownerID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":       docID,
		"owner_id": ownerID,
	}
	return r.getOne(ctx, where)
}

func (r *DocumentRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.StorageKey, &doc.Status, &doc.Ctime); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, ownerID string) ([]model.Document, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"_orderby": "ctime desc",
	}
	return r.list(ctx, where)
}

func (r *DocumentRepo) ListByStatus(ctx context.Context, status model.Status, limit uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"status":   string(status),
		"_orderby": "ctime asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	return r.list(ctx, where)
}

func (r *DocumentRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.StorageKey, &doc.Status, &doc.Ctime); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteWithChunks removes the chunk rows and the document row inside one
// transaction. The chunk purge is best-effort; the document row delete is the
// authoritative step and its failure rolls back everything. between runs after
// the chunk delete and before the row delete so that external cleanup (search
// index, blob store) happens while the relational changes are still
// uncommitted.
func (r *DocumentRepo) DeleteWithChunks(ctx context.Context, ownerID, docID string, between func(context.Context)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sqlStr, args, err := builder.BuildDelete("document_chunks", map[string]interface{}{"document_id": docID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		logutil.GetLogger(ctx).Error("delete chunk rows failed", zap.String("document_id", docID), zap.Error(err))
	}

	if between != nil {
		between(ctx)
	}

	sqlStr, args, err = builder.BuildDelete("documents", map[string]interface{}{"id": docID, "owner_id": ownerID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return tx.Commit()
}
