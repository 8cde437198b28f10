package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/services/control"
)

// ControlHandler exposes the control lifecycle over HTTP.
type ControlHandler struct {
	svc *control.Service
}

// NewControlHandler creates a new control handler
func NewControlHandler(svc *control.Service) *ControlHandler {
	return &ControlHandler{svc: svc}
}

// InitiateControlRequest represents the request body for opening a control
type InitiateControlRequest struct {
	DeclarationID string `json:"declaration_id" binding:"required"`
}

// UpdateComplianceRequest carries the replacement check list
type UpdateComplianceRequest struct {
	ComplianceChecks models.ComplianceChecks `json:"compliance_checks" binding:"required"`
}

// NonComplianceRequest carries the officer's finding
type NonComplianceRequest struct {
	Type                 models.NonComplianceType `json:"non_compliance_type" binding:"required"`
	Details              string                   `json:"non_compliance_details" binding:"required"`
	FiscalImpact         float64                  `json:"fiscal_impact"`
	ApplicableRegulation string                   `json:"applicable_regulation" binding:"required"`
}

// DeclarantValidationRequest carries the declarant's outcome
type DeclarantValidationRequest struct {
	Acknowledged bool                `json:"acknowledged"`
	FineDecision models.FineDecision `json:"fine_decision" binding:"required"`
}

// Initiate handles POST /api/controls
func (h *ControlHandler) Initiate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req InitiateControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, err := h.svc.Initiate(c.Request.Context(), actor, req.DeclarationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ctrl)
}

// UpdateCompliance handles PUT /api/controls/:id/compliance
func (h *ControlHandler) UpdateCompliance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid control ID"})
		return
	}

	var req UpdateComplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, err := h.svc.UpdateCompliance(actor, id, req.ComplianceChecks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl)
}

// RecordNonCompliance handles POST /api/controls/:id/non-compliance
func (h *ControlHandler) RecordNonCompliance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid control ID"})
		return
	}

	var req NonComplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, err := h.svc.RecordNonCompliance(actor, id, control.NonComplianceInput{
		Type:                 req.Type,
		Details:              req.Details,
		FiscalImpact:         req.FiscalImpact,
		ApplicableRegulation: req.ApplicableRegulation,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl)
}

// DeclarantValidation handles POST /api/controls/:id/declarant-validation
func (h *ControlHandler) DeclarantValidation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid control ID"})
		return
	}

	var req DeclarantValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, err := h.svc.DeclarantValidation(actor, id, control.DeclarantInput{
		Acknowledged: req.Acknowledged,
		FineDecision: req.FineDecision,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl)
}

// List handles GET /api/controls
func (h *ControlHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	controls, err := h.svc.List(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, controls)
}

// Get handles GET /api/controls/:id
func (h *ControlHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid control ID"})
		return
	}

	ctrl, err := h.svc.Get(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl)
}

// History handles GET /api/controls/:id/history
func (h *ControlHandler) History(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid control ID"})
		return
	}

	ctrl, err := h.svc.Get(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.History)
}

// Certificate handles GET /api/controls/:id/certificate. A missing
// artifact is re-rendered from the committed control before serving.
func (h *ControlHandler) Certificate(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid control ID"})
		return
	}

	// View access first: the artifact follows the control's visibility.
	if _, err := h.svc.Get(actor, id); err != nil {
		respondError(c, err)
		return
	}

	path, err := h.svc.EnsureCertificate(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, "certificat_visite_"+id.String()+".pdf")
}
