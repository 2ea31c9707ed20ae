package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/askmydocs/askmydocs/internal/pkg/errcode"
	"github.com/askmydocs/askmydocs/internal/pkg/response"
	"github.com/askmydocs/askmydocs/internal/service"
)

type QueryHandler struct {
	query *service.QueryService
}

func NewQueryHandler(query *service.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

type queryRequest struct {
	Question string `json:"question"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	result, err := h.query.Query(c.Request.Context(), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
