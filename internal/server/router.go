package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the middleware stack and routes around a Handler.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(RequestID())
	router.Use(Logger(logger))
	router.Use(Recovery(logger))

	router.GET("/health", h.Health)
	router.GET("/categories", h.Categories)
	router.GET("/stats", h.Stats)
	router.POST("/classify", h.Classify)
	router.POST("/insights", h.Insights)
	router.POST("/batch-classify", h.BatchClassify)

	return router
}
