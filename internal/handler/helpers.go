package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askmydocs/askmydocs/internal/ai"
	"github.com/askmydocs/askmydocs/internal/middleware"
	"github.com/askmydocs/askmydocs/internal/pkg/errcode"
	appErr "github.com/askmydocs/askmydocs/internal/pkg/errors"
	"github.com/askmydocs/askmydocs/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrEmbedderUnavailable, "embedding provider unavailable")
	case errors.Is(err, appErr.ErrIngest):
		response.Error(c, errcode.ErrUploadFailed, "upload failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
