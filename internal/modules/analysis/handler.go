package analysis

import (
	"strconv"
	"strings"
	"time"

	"github.com/factshield/core/internal/pkg/ratelimit"
	"github.com/factshield/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// minAcquiredLength is the floor for scraped article bodies; anything
// shorter is treated as a failed extraction.
const minAcquiredLength = 100

type analyzeRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type Handler struct {
	service  *Service
	acquirer Acquirer
	limiter  *ratelimit.Limiter
	logger   *zap.Logger
}

func NewHandler(service *Service, acquirer Acquirer, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{service: service, acquirer: acquirer, limiter: limiter, logger: logger}
}

// Register wires the analysis routes. rateLimit guards only the
// expensive POST path; the informational GETs stay unmetered.
func (h *Handler) Register(rg *gin.RouterGroup, rateLimit gin.HandlerFunc) {
	rg.POST("/analyze", rateLimit, h.Analyze)
	rg.GET("/analyze", h.AnalyzeInfo)
	rg.GET("/stats", h.StatsInfo)
	rg.GET("/ratelimit", h.RateLimitInfo)
}

// Analyze handles POST /analyze. Exactly one of text or url is required;
// when both are present the text wins and the url is kept as attribution.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid JSON body")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	req.URL = strings.TrimSpace(req.URL)
	if req.Text == "" && req.URL == "" {
		response.BadRequest(c, "either text or url is required")
		return
	}

	text := req.Text
	if text == "" {
		if h.acquirer == nil {
			response.BadRequest(c, "url analysis is not available; submit text directly")
			return
		}
		acquired, err := h.acquirer.Acquire(c.Request.Context(), req.URL)
		if err != nil || acquired == nil || !acquired.Success {
			h.logger.Warn("article acquisition failed", zap.String("url", req.URL), zap.Error(err))
			response.BadRequest(c, "could not extract article text from the URL; submit text directly")
			return
		}
		text = strings.TrimSpace(acquired.Text)
		if len([]rune(text)) < minAcquiredLength {
			response.BadRequest(c, "extracted article text is too short to analyze")
			return
		}
	}

	if len([]rune(text)) < MinTextLength {
		response.BadRequest(c, "text must be at least 50 characters long")
		return
	}

	start := time.Now()
	result, cached := h.service.Analyze(c.Request.Context(), text, req.URL)

	if cached {
		c.Header("X-Cache-Status", "HIT")
	} else {
		c.Header("X-Cache-Status", "MISS")
	}

	response.OK(c, gin.H{
		"data": result,
		"meta": gin.H{
			"cached":           cached,
			"processingTimeMs": time.Since(start).Milliseconds(),
		},
	})
}

// AnalyzeInfo handles GET /analyze with usage guidance.
func (h *Handler) AnalyzeInfo(c *gin.Context) {
	response.OK(c, gin.H{
		"message": "submit a POST request to analyze content",
		"usage": gin.H{
			"method": "POST",
			"body":   gin.H{"text": "article text (min 50 chars)", "url": "optional article URL"},
		},
		"limits": gin.H{
			"minTextLength":    MinTextLength,
			"maxTextLength":    MaxTextLength,
			"requestsPerMin":   ratelimit.DefaultLimit,
			"cacheTTLMinutes":  h.service.CacheStats().TTLMinutes,
			"supportedMethods": []string{"GET", "POST"},
		},
	})
}

// StatsInfo handles GET /stats with pipeline counters and cache health.
func (h *Handler) StatsInfo(c *gin.Context) {
	status := "healthy"
	if !h.service.Healthy() {
		status = "degraded"
	}
	response.OK(c, gin.H{
		"api":    h.service.APIStats(),
		"cache":  h.service.CacheStats(),
		"status": status,
	})
}

// RateLimitInfo handles GET /ratelimit with anonymized client state.
func (h *Handler) RateLimitInfo(c *gin.Context) {
	stats := h.limiter.Stats()
	response.OK(c, gin.H{
		"limit":         strconv.Itoa(ratelimit.DefaultLimit) + " requests per minute",
		"activeClients": stats.ActiveClients,
		"clients":       stats.Clients,
	})
}
