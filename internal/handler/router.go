package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/askmydocs/askmydocs/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Documents *DocumentHandler
	Query     *QueryHandler
	Health    *HealthHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Health)
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/documents", deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)
	authGroup.POST("/query", deps.Query.Query)
}
