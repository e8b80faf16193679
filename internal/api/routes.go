// Package api exposes image composition over HTTP.
package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API under /api.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/compose", h.compose)
		api.POST("/layout", h.resolveLayout)
	}
}

// NewRouter returns a gin engine with the API routes, logging and recovery.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = 32 << 20
	RegisterRoutes(r, h)
	return r
}
