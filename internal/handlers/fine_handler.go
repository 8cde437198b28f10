package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/douanenc/backend/internal/services/control"
)

// FineHandler exposes issued customs fines and their payment notices.
type FineHandler struct {
	svc *control.Service
}

// NewFineHandler creates a new fine handler
func NewFineHandler(svc *control.Service) *FineHandler {
	return &FineHandler{svc: svc}
}

// List handles GET /api/fines
func (h *FineHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	fines, err := h.svc.ListFines(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fines)
}

// PaymentNotice handles GET /api/fines/:id/payment-notice
func (h *FineHandler) PaymentNotice(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fine ID"})
		return
	}

	path, err := h.svc.EnsurePaymentNotice(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, "avis_paiement_"+id.String()+".pdf")
}
