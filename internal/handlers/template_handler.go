package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/services/schema"
)

// TemplateHandler exposes template schema management.
type TemplateHandler struct {
	svc *schema.Service
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(svc *schema.Service) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// TemplateRequest represents the request body for template create/update
type TemplateRequest struct {
	Name         string            `json:"name" binding:"required"`
	DocumentType string            `json:"document_type" binding:"required"`
	Fields       models.FieldList  `json:"fields"`
	Checklist    models.StringList `json:"checklist"`
}

func (r TemplateRequest) toInput() schema.TemplateInput {
	return schema.TemplateInput{
		Name:         r.Name,
		DocumentType: r.DocumentType,
		Fields:       r.Fields,
		Checklist:    r.Checklist,
	}
}

// List handles GET /api/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.svc.ListTemplates()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// Create handles POST /api/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.svc.CreateTemplate(actor, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// Update handles PUT /api/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.svc.UpdateTemplate(actor, id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// Delete handles DELETE /api/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template ID"})
		return
	}

	if err := h.svc.DeleteTemplate(actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}

// ListRegulations handles GET /api/regulations
func (h *TemplateHandler) ListRegulations(c *gin.Context) {
	regulations, err := h.svc.ListRegulations()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, regulations)
}
