package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/douanenc/backend/internal/services/schema"
)

// DocumentTypeHandler exposes the document-type taxonomy.
type DocumentTypeHandler struct {
	svc *schema.Service
}

// NewDocumentTypeHandler creates a new document type handler
func NewDocumentTypeHandler(svc *schema.Service) *DocumentTypeHandler {
	return &DocumentTypeHandler{svc: svc}
}

// DocumentTypeRequest represents the request body for taxonomy entries
type DocumentTypeRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// List handles GET /api/document-types
func (h *DocumentTypeHandler) List(c *gin.Context) {
	docTypes, err := h.svc.ListDocumentTypes()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docTypes)
}

// Create handles POST /api/document-types
func (h *DocumentTypeHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req DocumentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docType, err := h.svc.CreateDocumentType(actor, schema.DocumentTypeInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, docType)
}

// Update handles PUT /api/document-types/:id
func (h *DocumentTypeHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document type ID"})
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docType, err := h.svc.UpdateDocumentType(actor, id, schema.DocumentTypeInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docType)
}

// Delete handles DELETE /api/document-types/:id
func (h *DocumentTypeHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document type ID"})
		return
	}

	if err := h.svc.DeleteDocumentType(actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document type deleted"})
}
