package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/empirica-legal/expediente-tracker/internal/cache"
	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/checker"
	"github.com/empirica-legal/expediente-tracker/internal/config"
	"github.com/empirica-legal/expediente-tracker/internal/courts"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/fetch"
	"github.com/empirica-legal/expediente-tracker/pkg/logger"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	store      *database.Store
	cache      cache.Cache
	checker    *checker.Checker
	catalog    *courts.Catalog
	classifier func() (*calendar.Classifier, error)
	logger     *logger.Logger
	cfg        *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(store *database.Store, cacheService cache.Cache, chk *checker.Checker, catalog *courts.Catalog,
	classifier func() (*calendar.Classifier, error), log *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		store:      store,
		cache:      cacheService,
		checker:    chk,
		catalog:    catalog,
		classifier: classifier,
		logger:     log,
		cfg:        cfg,
	}
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	var count int64
	dbHealthy := h.store.DB().Model(&database.TrackedCase{}).Count(&count).Error == nil

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealthy,
		"cache":    h.cache.Stats(),
		"time":     time.Now().Unix(),
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.cache.Stats(),
	})
}

// CreateCase registers a new tracked case. The (number, court) pair is
// checked against active cases; a hit is a conflict, not a new row.
func (h *Handlers) CreateCase(c *gin.Context) {
	var req struct {
		CaseNumber string `json:"case_number"`
		PartyName  string `json:"party_name"`
		Court      string `json:"court" binding:"required"`
		Comment    string `json:"comment"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.CaseNumber == "" && req.PartyName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "either case_number or party_name is required",
		})
		return
	}

	court, ok := h.catalog.Lookup(req.Court)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown court: " + req.Court})
		return
	}

	tracked := &database.TrackedCase{
		CaseNumber: req.CaseNumber,
		PartyName:  req.PartyName,
		CourtID:    court.ID,
		CourtName:  court.Name,
		Category:   court.Category,
		Comment:    req.Comment,
	}

	if err := h.store.CreateCase(tracked); err != nil {
		if errors.Is(err, database.ErrDuplicateCase) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "case is already tracked"})
			return
		}
		h.logger.Error("Failed to create case", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": tracked})
}

// ListCases returns tracked cases with pagination
func (h *Handlers) ListCases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	includeInactive := c.Query("include_inactive") == "true"

	cases, total, err := h.store.ListCases(includeInactive, (page-1)*limit, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cases,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetCase returns one tracked case
func (h *Handlers) GetCase(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	tracked, err := h.store.GetCase(id)
	if err != nil {
		if errors.Is(err, database.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": tracked})
}

// DeleteCase deactivates a case (soft by default) and writes a tombstone
func (h *Handlers) DeleteCase(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}
	permanent := c.Query("permanent") == "true"

	if err := h.store.DeactivateCase(id, permanent); err != nil {
		if errors.Is(err, database.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.cache.Delete(cache.ResultKey(id))
	c.JSON(http.StatusOK, gin.H{"success": true, "permanent": permanent})
}

// ListPublications returns the stored publication history of a case
func (h *Handlers) ListPublications(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	if _, err := h.store.GetCase(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "case not found"})
		return
	}

	pubs, err := h.store.StoredPublications(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": pubs})
}

// MarkPublicationsRead clears the unread state of a case's publications
func (h *Handlers) MarkPublicationsRead(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	if err := h.store.MarkAllRead(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TriggerCheck runs a manual check cycle for a case. Manual triggers get a
// fresh sequence number, so they supersede any in-flight scheduled cycle.
func (h *Handlers) TriggerCheck(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.SourceTimeout*2)
	defer cancel()

	seq := h.checker.NextSequence(id)
	result, err := h.checker.RunCheckCycle(ctx, id, seq)
	if err != nil {
		if errors.Is(err, database.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "case not found"})
			return
		}
		h.logger.Error("Manual check failed", "case_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.cache.Set(cache.ResultKey(id), result)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// CheckStatus returns the cached result of the most recent check
func (h *Handlers) CheckStatus(c *gin.Context) {
	id, ok := h.caseID(c)
	if !ok {
		return
	}

	if result, found := h.cache.Get(cache.ResultKey(id)); found {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": result, "fromCache": true})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no recent check for this case"})
}

// RelayResults ingests rows scraped by the companion browser extension and
// feeds them through a reconciliation cycle as the extension-fidelity source.
func (h *Handlers) RelayResults(c *gin.Context) {
	var req struct {
		CaseID uint        `json:"case_id" binding:"required"`
		Rows   []fetch.Row `json:"rows"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	source := &fetch.StaticSource{
		SourceName: "extension-relay",
		SourceKind: fetch.KindExtension,
		Rows:       req.Rows,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.SourceTimeout)
	defer cancel()

	seq := h.checker.NextSequence(req.CaseID)
	result, err := h.checker.RunCheckCycleWith(ctx, req.CaseID, seq, []fetch.Source{source})
	if err != nil {
		if errors.Is(err, database.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "case not found"})
			return
		}
		h.logger.Error("Relay ingest failed", "case_id", req.CaseID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.cache.Set(cache.ResultKey(req.CaseID), result)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// Tombstones returns deletion records for sync clients
func (h *Handlers) Tombstones(c *gin.Context) {
	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "since must be RFC3339"})
			return
		}
		since = parsed
	}

	tombs, err := h.store.Tombstones(since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tombs})
}

// ClassifyDate classifies a date as business or non-business
func (h *Handlers) ClassifyDate(c *gin.Context) {
	raw := c.Query("date")
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "date must be YYYY-MM-DD"})
		return
	}

	classifier, err := h.classifier()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	cls, err := classifier.Classify(date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	next, err := classifier.NextBusinessDay(date)
	response := gin.H{
		"success": true,
		"date":    raw,
		"data":    cls,
	}
	if err == nil {
		response["next_business_day"] = next.Format("2006-01-02")
	}
	c.JSON(http.StatusOK, response)
}

// ListCourts returns the catalog names for pickers and validation
func (h *Handlers) ListCourts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.catalog.Names()})
}

func (h *Handlers) caseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid case id"})
		return 0, false
	}
	return uint(id), true
}
