package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askmydocs/askmydocs/internal/ai"
	"github.com/askmydocs/askmydocs/internal/filestore"
	"github.com/askmydocs/askmydocs/internal/pkg/response"
	"github.com/askmydocs/askmydocs/internal/searchindex"
)

type HealthHandler struct {
	db       *sql.DB
	index    searchindex.Index
	blobs    filestore.Store
	embedder ai.IEmbedder
}

func NewHealthHandler(db *sql.DB, index searchindex.Index, blobs filestore.Store, embedder ai.IEmbedder) *HealthHandler {
	return &HealthHandler{db: db, index: index, blobs: blobs, embedder: embedder}
}

type healthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result := healthStatus{Status: "ok", Components: map[string]string{}}
	check := func(name string, err error) {
		if err != nil {
			result.Status = "degraded"
			result.Components[name] = err.Error()
			return
		}
		result.Components[name] = "ok"
	}
	check("database", h.db.PingContext(ctx))
	check("search_index", h.index.Ping(ctx))
	check("blob_store", h.blobs.Ping(ctx))
	if h.embedder == nil || h.embedder.ModelName() == "" {
		result.Status = "degraded"
		result.Components["embedder"] = "not configured"
	} else {
		result.Components["embedder"] = "ok"
	}
	response.Success(c, result)
}
