package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/services/document"
	"github.com/douanenc/backend/internal/services/pdf"
)

// DocumentHandler exposes the document lifecycle over HTTP.
type DocumentHandler struct {
	svc      *document.Service
	renderer *pdf.Renderer
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(svc *document.Service, renderer *pdf.Renderer) *DocumentHandler {
	return &DocumentHandler{svc: svc, renderer: renderer}
}

// CreateDocumentRequest represents the request body for document creation
type CreateDocumentRequest struct {
	Title        string      `json:"title" binding:"required"`
	DocumentType string      `json:"document_type" binding:"required"`
	TemplateID   uuid.UUID   `json:"template_id" binding:"required"`
	Content      models.JSON `json:"content"`
}

// UpdateDocumentRequest represents the request body for draft edits
type UpdateDocumentRequest struct {
	Title   *string     `json:"title"`
	Content models.JSON `json:"content"`
}

// DecisionRequest carries a validation officer's decision
type DecisionRequest struct {
	Status models.DocumentStatus `json:"status" binding:"required"`
}

// Create handles POST /api/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.svc.Create(actor, document.CreateInput{
		Title:        req.Title,
		DocumentType: req.DocumentType,
		TemplateID:   req.TemplateID,
		Content:      req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Update handles PUT /api/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.svc.Update(actor, id, document.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Submit handles POST /api/documents/:id/submit
func (h *DocumentHandler) Submit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	doc, err := h.svc.Submit(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Decide handles POST /api/documents/:id/decision
func (h *DocumentHandler) Decide(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.svc.Decide(actor, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List handles GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	docs, err := h.svc.List(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Get handles GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	doc, err := h.svc.Get(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// History handles GET /api/documents/:id/history
func (h *DocumentHandler) History(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	doc, err := h.svc.Get(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc.History)
}

// Download handles GET /api/documents/:id/pdf. The artifact is
// rendered from the stored content every time, so it always reflects
// the document as persisted.
func (h *DocumentHandler) Download(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	doc, err := h.svc.Get(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	template, err := h.svc.Template(doc.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}

	path, err := h.renderer.RenderDocument(doc, template)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to render document"})
		return
	}
	c.FileAttachment(path, "document_"+doc.ID.String()+".pdf")
}
