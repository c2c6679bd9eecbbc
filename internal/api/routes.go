package api

import (
	"github.com/gin-gonic/gin"

	"github.com/empirica-legal/expediente-tracker/internal/cache"
	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/checker"
	"github.com/empirica-legal/expediente-tracker/internal/config"
	"github.com/empirica-legal/expediente-tracker/internal/courts"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, store *database.Store, cacheService cache.Cache, chk *checker.Checker,
	catalog *courts.Catalog, classifier func() (*calendar.Classifier, error), log *logger.Logger, cfg *config.Config) {
	h := NewHandlers(store, cacheService, chk, catalog, classifier, log, cfg)

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/cache/stats", h.CacheStats)

		api.POST("/cases", h.CreateCase)
		api.GET("/cases", h.ListCases)
		api.GET("/cases/:id", h.GetCase)
		api.DELETE("/cases/:id", h.DeleteCase)

		api.GET("/cases/:id/publications", h.ListPublications)
		api.POST("/cases/:id/publications/read", h.MarkPublicationsRead)

		api.POST("/cases/:id/check", h.TriggerCheck)
		api.GET("/cases/:id/status", h.CheckStatus)

		api.POST("/relay/results", h.RelayResults)

		api.GET("/tombstones", h.Tombstones)
		api.GET("/calendar/classify", h.ClassifyDate)
		api.GET("/courts", h.ListCourts)
	}
}
