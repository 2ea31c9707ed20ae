package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/askmydocs/askmydocs/internal/model"
	"github.com/askmydocs/askmydocs/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// BatchInsert persists all chunks of one document in a single transaction so
// the document's chunk set is either fully visible or absent.
func (r *ChunkRepo) BatchInsert(ctx context.Context, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		meta, err := chunk.Metadata.Value()
		if err != nil {
			return err
		}
		rows = append(rows, map[string]interface{}{
			"id":          chunk.ID,
			"document_id": chunk.DocumentID,
			"chunk_text":  chunk.Text,
			"metadata":    meta,
			"embedding":   pgvector.NewVector(chunk.Embedding),
			"position":    chunk.Position,
		})
	}
	sqlStr, args, err := builder.BuildInsert("document_chunks", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, docID string) ([]model.DocumentChunk, error) {
	where := map[string]interface{}{
		"document_id": docID,
		"_orderby":    "position asc",
	}
	sqlStr, args, err := builder.BuildSelect("document_chunks", where,
		[]string{"id", "document_id", "chunk_text", "metadata", "embedding", "position"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chunks := make([]model.DocumentChunk, 0)
	for rows.Next() {
		var chunk model.DocumentChunk
		var vec pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text, &chunk.Metadata, &vec, &chunk.Position); err != nil {
			return nil, err
		}
		chunk.Embedding = vec.Slice()
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, docID string) (int, error) {
	sqlStr, args := dbutil.Finalize("SELECT COUNT(1) FROM document_chunks WHERE document_id = ?", []interface{}{docID})
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
