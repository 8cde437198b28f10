package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/douanenc/backend/internal/services/sydonia"
)

// SydoniaHandler proxies declaration lookups against the external
// registry so officers can preview a filing before opening a control.
type SydoniaHandler struct {
	client *sydonia.Client
}

// NewSydoniaHandler creates a new Sydonia handler
func NewSydoniaHandler(client *sydonia.Client) *SydoniaHandler {
	return &SydoniaHandler{client: client}
}

// GetDeclaration handles GET /api/sydonia/declaration/:id
func (h *SydoniaHandler) GetDeclaration(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}

	declaration, err := h.client.GetDeclaration(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, declaration)
}
