package server

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guestdesk/internal/domain"
	"guestdesk/internal/llm"
	"guestdesk/internal/storage/sqlite"
)

// ClassifierService is the pipeline surface the handlers depend on.
type ClassifierService interface {
	Classify(ctx context.Context, req domain.ClassificationRequest) (domain.ClassificationResult, llm.Usage)
	ClassifyBatch(ctx context.Context, reqs []domain.ClassificationRequest) ([]domain.ClassificationResult, []llm.Usage)
	Insights(ctx context.Context, guestMessage string) map[string]any
}

// Notifier receives results that may need staff alerts.
type Notifier interface {
	NotifyUrgent(req domain.ClassificationRequest, result domain.ClassificationResult)
}

// Handler carries the handler dependencies. The db and notifier are
// optional; a nil db disables history recording and stats.
type Handler struct {
	classifier  ClassifierService
	db          *sql.DB
	notifier    Notifier
	llmProvider string
	llmModel    string
	logger      *zap.Logger
}

func NewHandler(classifier ClassifierService, db *sql.DB, notifier Notifier, llmProvider, llmModel string, logger *zap.Logger) *Handler {
	return &Handler{
		classifier:  classifier,
		db:          db,
		notifier:    notifier,
		llmProvider: llmProvider,
		llmModel:    llmModel,
		logger:      logger,
	}
}

// Classify handles POST /classify. The response body mirrors the
// ClassificationResult exactly; the pipeline never errors, so the only
// failure here is a bad request body.
func (h *Handler) Classify(c *gin.Context) {
	var req domain.ClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.GuestMessage) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest_message is required"})
		return
	}

	result, usage := h.classifier.Classify(c.Request.Context(), req)
	h.record(c.GetString("request_id"), req, result, usage)
	if h.notifier != nil {
		h.notifier.NotifyUrgent(req, result)
	}

	c.JSON(http.StatusOK, result)
}

// BatchClassify handles POST /batch-classify: an array of request bodies
// in, results in the same order plus a processed count out.
func (h *Handler) BatchClassify(c *gin.Context) {
	var reqs []domain.ClassificationRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for i, req := range reqs {
		if strings.TrimSpace(req.GuestMessage) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guest_message is required", "index": i})
			return
		}
	}

	results, usages := h.classifier.ClassifyBatch(c.Request.Context(), reqs)
	requestID := c.GetString("request_id")
	totalUsage := llm.Usage{}
	for i, result := range results {
		h.record(requestID, reqs[i], result, usages[i])
		totalUsage.Add(usages[i])
		if h.notifier != nil {
			h.notifier.NotifyUrgent(reqs[i], result)
		}
	}
	h.logger.Info("batch classified",
		zap.Int("count", len(results)),
		zap.Int64("tokens", totalUsage.TotalTokens()))

	c.JSON(http.StatusOK, gin.H{
		"results":         results,
		"total_processed": len(results),
	})
}

// Insights handles POST /insights. The payload is open-ended; on terminal
// failure the pipeline returns {"error": ...} and the status reflects it.
func (h *Handler) Insights(c *gin.Context) {
	var req domain.ClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.GuestMessage) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest_message is required"})
		return
	}

	payload := h.classifier.Insights(c.Request.Context(), req.GuestMessage)
	if _, failed := payload["error"]; failed && len(payload) == 1 {
		c.JSON(http.StatusBadGateway, payload)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// Categories handles GET /categories: the static taxonomy, straight from
// configuration data.
func (h *Handler) Categories(c *gin.Context) {
	categories := make(map[string]domain.CategoryInfo, len(domain.Taxonomy))
	for key, info := range domain.Taxonomy {
		categories[string(key)] = info
	}
	c.JSON(http.StatusOK, gin.H{
		"categories":  categories,
		"description": "Available service categories for classification",
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_status": "healthy",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats handles GET /stats: aggregate history for the trailing 30 days.
func (h *Handler) Stats(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store not configured"})
		return
	}
	stats, err := sqlite.GetStats(h.db, time.Now().AddDate(0, 0, -30))
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats query failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// record writes one audit row; failures are logged, never surfaced.
func (h *Handler) record(requestID string, req domain.ClassificationRequest, result domain.ClassificationResult, usage llm.Usage) {
	if h.db == nil {
		return
	}
	err := sqlite.InsertHistory(h.db, sqlite.HistoryRecord{
		RequestID:     requestID,
		GuestID:       req.GuestID,
		RoomNumber:    req.RoomNumber,
		TicketCreated: result.ShouldCreateTicket,
		Categories:    result.Categories,
		Confidence:    result.Confidence,
		Priority:      result.SuggestedPriority,
		Fallback:      result.Fallback,
		LLMProvider:   h.llmProvider,
		LLMModel:      h.llmModel,
		TokensIn:      usage.InputTokens,
		TokensOut:     usage.OutputTokens,
	})
	if err != nil {
		h.logger.Error("history insert failed", zap.Error(err))
	}
}
