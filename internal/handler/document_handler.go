package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/askmydocs/askmydocs/internal/pkg/errcode"
	"github.com/askmydocs/askmydocs/internal/pkg/response"
	"github.com/askmydocs/askmydocs/internal/service"
)

const maxUploadBytes = 32 << 20

type DocumentHandler struct {
	ingest    *service.IngestService
	documents *service.DocumentService
}

func NewDocumentHandler(ingest *service.IngestService, documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, documents: documents}
}

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	StorageKey string `json:"storage_key"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
}

// Upload answers 200 even when the pipeline ends in a failure status: the
// document row exists and records what happened. Only request-level problems
// (bad file, blob save failure) turn into error responses.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}

	contentType := file.Header.Get("Content-Type")
	doc, chunkCount, err := h.ingest.Upload(c.Request.Context(), getUserID(c), file.Filename, contentType, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, uploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		StorageKey: doc.StorageKey,
		Status:     string(doc.Status),
		ChunkCount: chunkCount,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs, "total": len(docs)})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	detail, err := h.documents.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
