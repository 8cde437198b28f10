package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/douanenc/backend/internal/services/stats"
)

// StatsHandler serves workflow counters for the dashboard.
type StatsHandler struct {
	svc *stats.Service
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(svc *stats.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Overview handles GET /api/stats. Counters are computed from fresh
// aggregate queries on every request, never from cached values.
func (h *StatsHandler) Overview(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}

	overview, err := h.svc.Compute()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
