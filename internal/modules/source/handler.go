package source

import (
	"github.com/gin-gonic/gin"
	"github.com/factshield/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/source", h.checkSource)
}

type checkSourceDTO struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// POST /source — credibility lookup by domain or URL.
func (h *Handler) checkSource(c *gin.Context) {
	var dto checkSourceDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	domain := dto.Domain
	if domain == "" && dto.URL != "" {
		domain = ExtractDomain(dto.URL)
	}
	if domain == "" {
		response.BadRequest(c, "either domain or url must be provided")
		return
	}

	info := h.svc.Lookup(domain)
	response.OK(c, gin.H{
		"domain":      info.Domain,
		"credibility": info.Credibility,
		"score":       Score(info.Credibility),
	})
}
