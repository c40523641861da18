package apihandlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"threatcat/internal/models"
	"threatcat/internal/services"
	"threatcat/internal/store"
)

// PredictionAPI is the part of services.PredictionService the handlers use.
type PredictionAPI interface {
	Analyze(ctx context.Context, text string) (*models.Prediction, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Prediction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	Stats(ctx context.Context) (map[string]int, error)
}

// ThreatAPI is the part of services.ThreatService the handlers use.
type ThreatAPI interface {
	List(ctx context.Context, f store.ThreatFilter) ([]*models.Threat, int, error)
	Get(ctx context.Context, id int64) (*models.Threat, error)
	Stats(ctx context.Context) (*models.ThreatStats, error)
}

type APIHandler struct {
	Predictions PredictionAPI
	Threats     ThreatAPI
}

func NewAPIHandler(predictions PredictionAPI, threats ThreatAPI) *APIHandler {
	return &APIHandler{Predictions: predictions, Threats: threats}
}

// ThreatListResponse is one page of GET /api/threats.
type ThreatListResponse struct {
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Data  []*models.Threat `json:"data"`
}

// AnalyzeRequest is the body of POST /api/threats/analyze. Description is
// a pointer so a missing field can be told apart from an empty one.
type AnalyzeRequest struct {
	Description *string `json:"description"`
}

type AnalyzeResponse struct {
	PredictedCategory string          `json:"predicted_category"`
	PredictedSeverity models.Severity `json:"predicted_severity"`
	ID                uuid.UUID       `json:"id"`
}

func (h *APIHandler) AnalyzeThreatHandler(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Missing or invalid 'description' in request body")
		return
	}
	if req.Description == nil || strings.TrimSpace(*req.Description) == "" {
		BadRequest(c, "Missing or invalid 'description' in request body")
		return
	}

	p, err := h.Predictions.Analyze(c.Request.Context(), *req.Description)
	if err != nil {
		log.Errorf("AnalyzeThreatHandler: prediction failed: %v", err)
		if errors.Is(err, models.ErrValidation) {
			BadRequest(c, err.Error())
			return
		}
		Internal(c, "Failed to analyze threat description")
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		PredictedCategory: p.Category,
		PredictedSeverity: p.Severity,
		ID:                p.ID,
	})
}

func (h *APIHandler) ListPredictionsHandler(c *gin.Context) {
	limit, offset, err := parsePagination(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	items, err := h.Predictions.ListRecent(c.Request.Context(), limit, offset)
	if err != nil {
		h.historyError(c, "ListPredictionsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RecentPredictionsHandler serves the dashboard's recents feed: a bare
// array of the latest predictions.
func (h *APIHandler) RecentPredictionsHandler(c *gin.Context) {
	limit, offset, err := parsePagination(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	items, err := h.Predictions.ListRecent(c.Request.Context(), limit, offset)
	if err != nil {
		h.historyError(c, "RecentPredictionsHandler", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *APIHandler) GetPredictionHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "Invalid prediction id")
		return
	}

	p, err := h.Predictions.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, fmt.Sprintf("Prediction not found with ID: %s", id))
			return
		}
		h.historyError(c, "GetPredictionHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *APIHandler) PredictionStatsHandler(c *gin.Context) {
	counts, err := h.Predictions.Stats(c.Request.Context())
	if err != nil {
		h.historyError(c, "PredictionStatsHandler", err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "categories": counts})
}

func (h *APIHandler) ListThreatsHandler(c *gin.Context) {
	f, page, err := parseThreatFilter(c)
	if err != nil {
		BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	items, total, err := h.Threats.List(c.Request.Context(), f)
	if err != nil {
		h.historyError(c, "ListThreatsHandler", err)
		return
	}
	c.JSON(http.StatusOK, ThreatListResponse{Total: total, Page: page, Limit: f.Limit, Data: items})
}

func (h *APIHandler) GetThreatHandler(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "Invalid threat id")
		return
	}

	t, err := h.Threats.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, fmt.Sprintf("Threat not found with ID: %d", id))
			return
		}
		h.historyError(c, "GetThreatHandler", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *APIHandler) ThreatStatsHandler(c *gin.Context) {
	stats, err := h.Threats.Stats(c.Request.Context())
	if err != nil {
		h.historyError(c, "ThreatStatsHandler", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// historyError maps a store failure to a response. A missing database
// is 503, anything else 500.
func (h *APIHandler) historyError(c *gin.Context, op string, err error) {
	if errors.Is(err, services.ErrHistoryDisabled) || errors.Is(err, services.ErrCatalogDisabled) {
		ServiceUnavailable(c, err.Error())
		return
	}
	Internal(c, fmt.Sprintf("%s: %v", op, err))
}

func parsePagination(c *gin.Context) (limit, offset int, err error) {
	limit = 5
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit: %s", l)
		}
	}
	if o := c.Query("offset"); o != "" {
		offset, err = strconv.Atoi(o)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset: %s", o)
		}
	}
	return limit, offset, nil
}

// parseThreatFilter reads page (from 1, default 1), limit (default 10),
// category, search, severity and sort=createdAt_asc|createdAt_desc.
func parseThreatFilter(c *gin.Context) (f store.ThreatFilter, page int, err error) {
	page, f.Limit = 1, 10
	if p := c.Query("page"); p != "" {
		page, err = strconv.Atoi(p)
		if err != nil || page < 1 {
			return f, 0, fmt.Errorf("invalid page: %s", p)
		}
	}
	if l := c.Query("limit"); l != "" {
		f.Limit, err = strconv.Atoi(l)
		if err != nil || f.Limit <= 0 {
			return f, 0, fmt.Errorf("invalid limit: %s", l)
		}
	}
	f.Offset = (page - 1) * f.Limit
	f.Category = strings.TrimSpace(c.Query("category"))
	f.Search = strings.TrimSpace(c.Query("search"))
	if s := c.Query("severity"); s != "" {
		sev, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return f, 0, fmt.Errorf("invalid severity: %s", s)
		}
		f.Severity = &sev
	}
	switch sort := c.Query("sort"); sort {
	case "", "createdAt_desc":
	case "createdAt_asc":
		f.Ascending = true
	default:
		return f, 0, fmt.Errorf("invalid sort: %s", sort)
	}
	return f, page, nil
}

// NewRouter registers every route on a gin engine.
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	api := router.Group("/api")
	{
		threats := api.Group("/threats")
		{
			threats.GET("", h.ListThreatsHandler)
			threats.GET("/stats", h.ThreatStatsHandler)
			threats.GET("/:id", h.GetThreatHandler)
			threats.POST("/analyze", h.AnalyzeThreatHandler)
			// The dashboard polls /recents for the latest few predictions.
			threats.GET("/recents", h.RecentPredictionsHandler)
		}
		predictions := api.Group("/predictions")
		{
			predictions.GET("", h.ListPredictionsHandler)
			predictions.GET("/stats", h.PredictionStatsHandler)
			predictions.GET("/:id", h.GetPredictionHandler)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}
