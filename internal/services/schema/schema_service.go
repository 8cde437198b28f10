package schema

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/audit"
	"github.com/douanenc/backend/internal/authz"
	"github.com/douanenc/backend/internal/models"
)

// Service manages the document-type taxonomy and template schemas.
// Delete operations are blocked while the target is referenced by any
// document, template or control.
type Service struct {
	db      *gorm.DB
	auditor *audit.Logger
}

// NewService creates a schema service
func NewService(db *gorm.DB, auditor *audit.Logger) *Service {
	return &Service{db: db, auditor: auditor}
}

// DocumentTypeInput carries the fields of a taxonomy entry.
type DocumentTypeInput struct {
	Code        string
	Name        string
	Description string
}

// CreateDocumentType registers a taxonomy entry. Codes are stored
// uppercase and must be unique.
func (s *Service) CreateDocumentType(actor authz.Actor, input DocumentTypeInput) (*models.DocumentType, error) {
	if err := authz.Require(actor.Role, authz.OpDocumentTypeManage); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, apperrors.InvalidArgument("code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidArgument("name is required")
	}

	var existing models.DocumentType
	if err := s.db.Where("code = ?", code).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("document type code %s already exists", code)
	}

	docType := models.DocumentType{
		Code:        code,
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   actor.ID,
	}
	if err := s.db.Create(&docType).Error; err != nil {
		return nil, apperrors.From(err)
	}

	s.auditor.Info(audit.EventTypeSchema, "document type created: "+code, &actor.ID, &docType.ID, nil)
	return &docType, nil
}

// UpdateDocumentType edits the name and description of a taxonomy
// entry. The code is part of its identity and cannot change while
// templates and documents reference it.
func (s *Service) UpdateDocumentType(actor authz.Actor, id uuid.UUID, input DocumentTypeInput) (*models.DocumentType, error) {
	if err := authz.Require(actor.Role, authz.OpDocumentTypeManage); err != nil {
		return nil, err
	}

	docType, err := s.loadDocumentType(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if strings.TrimSpace(input.Name) != "" {
		updates["name"] = input.Name
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if err := s.db.Model(docType).Updates(updates).Error; err != nil {
		return nil, apperrors.From(err)
	}

	return s.loadDocumentType(id)
}

// DeleteDocumentType removes a taxonomy entry unless a template or
// document still references its code.
func (s *Service) DeleteDocumentType(actor authz.Actor, id uuid.UUID) error {
	if err := authz.Require(actor.Role, authz.OpDocumentTypeManage); err != nil {
		return err
	}

	docType, err := s.loadDocumentType(id)
	if err != nil {
		return err
	}

	var documents, templates int64
	if err := s.db.Model(&models.Document{}).Where("document_type = ?", docType.Code).Count(&documents).Error; err != nil {
		return apperrors.From(err)
	}
	if err := s.db.Model(&models.Template{}).Where("document_type = ?", docType.Code).Count(&templates).Error; err != nil {
		return apperrors.From(err)
	}
	if documents > 0 || templates > 0 {
		return apperrors.ReferentialIntegrity(
			"cannot delete document type %s: %d document(s) and %d template(s) reference it",
			docType.Code, documents, templates)
	}

	if err := s.db.Delete(docType).Error; err != nil {
		return apperrors.From(err)
	}

	s.auditor.Info(audit.EventTypeSchema, "document type deleted: "+docType.Code, &actor.ID, &docType.ID, nil)
	return nil
}

// ListDocumentTypes returns the taxonomy, readable by every role.
func (s *Service) ListDocumentTypes() ([]models.DocumentType, error) {
	var docTypes []models.DocumentType
	if err := s.db.Order("code asc").Find(&docTypes).Error; err != nil {
		return nil, apperrors.From(err)
	}
	return docTypes, nil
}

// TemplateInput carries the fields of a template schema.
type TemplateInput struct {
	Name         string
	DocumentType string
	Fields       models.FieldList
	Checklist    models.StringList
}

// CreateTemplate registers a template schema for a document type.
func (s *Service) CreateTemplate(actor authz.Actor, input TemplateInput) (*models.Template, error) {
	if err := authz.Require(actor.Role, authz.OpTemplateCreate); err != nil {
		return nil, err
	}
	if err := validateTemplateInput(input); err != nil {
		return nil, err
	}

	template := models.Template{
		Name:         input.Name,
		DocumentType: strings.ToUpper(input.DocumentType),
		Fields:       input.Fields,
		Checklist:    input.Checklist,
	}
	if err := s.db.Create(&template).Error; err != nil {
		return nil, apperrors.From(err)
	}

	s.auditor.Info(audit.EventTypeSchema, "template created: "+template.Name, &actor.ID, &template.ID, nil)
	return &template, nil
}

// UpdateTemplate replaces a template's schema. Existing documents keep
// the content they were drafted with; validation always reads the
// current schema.
func (s *Service) UpdateTemplate(actor authz.Actor, id uuid.UUID, input TemplateInput) (*models.Template, error) {
	if err := authz.Require(actor.Role, authz.OpTemplateUpdate); err != nil {
		return nil, err
	}
	if err := validateTemplateInput(input); err != nil {
		return nil, err
	}

	template, err := s.loadTemplate(id)
	if err != nil {
		return nil, err
	}

	err = s.db.Model(template).Updates(map[string]interface{}{
		"name":          input.Name,
		"document_type": strings.ToUpper(input.DocumentType),
		"fields":        input.Fields,
		"checklist":     input.Checklist,
		"updated_at":    time.Now(),
	}).Error
	if err != nil {
		return nil, apperrors.From(err)
	}

	return s.loadTemplate(id)
}

// DeleteTemplate removes a template unless a document references it.
func (s *Service) DeleteTemplate(actor authz.Actor, id uuid.UUID) error {
	if err := authz.Require(actor.Role, authz.OpTemplateDelete); err != nil {
		return err
	}

	template, err := s.loadTemplate(id)
	if err != nil {
		return err
	}

	var documents int64
	if err := s.db.Model(&models.Document{}).Where("template_id = ?", template.ID).Count(&documents).Error; err != nil {
		return apperrors.From(err)
	}
	if documents > 0 {
		return apperrors.ReferentialIntegrity(
			"cannot delete template: %d document(s) are using this template", documents)
	}

	if err := s.db.Delete(template).Error; err != nil {
		return apperrors.From(err)
	}

	s.auditor.Info(audit.EventTypeSchema, "template deleted: "+template.Name, &actor.ID, &template.ID, nil)
	return nil
}

// ListTemplates returns all templates, readable by every role.
func (s *Service) ListTemplates() ([]models.Template, error) {
	var templates []models.Template
	if err := s.db.Order("created_at asc").Find(&templates).Error; err != nil {
		return nil, apperrors.From(err)
	}
	return templates, nil
}

// ListRegulations returns the regulation catalogue.
func (s *Service) ListRegulations() ([]models.Regulation, error) {
	var regulations []models.Regulation
	if err := s.db.Order("code asc").Find(&regulations).Error; err != nil {
		return nil, apperrors.From(err)
	}
	return regulations, nil
}

func (s *Service) loadDocumentType(id uuid.UUID) (*models.DocumentType, error) {
	var docType models.DocumentType
	if err := s.db.First(&docType, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("document type %s not found", id)
		}
		return nil, apperrors.From(err)
	}
	return &docType, nil
}

func (s *Service) loadTemplate(id uuid.UUID) (*models.Template, error) {
	var template models.Template
	if err := s.db.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("template %s not found", id)
		}
		return nil, apperrors.From(err)
	}
	return &template, nil
}

func validateTemplateInput(input TemplateInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.InvalidArgument("name is required")
	}
	if strings.TrimSpace(input.DocumentType) == "" {
		return apperrors.InvalidArgument("document_type is required")
	}
	seen := make(map[string]bool, len(input.Fields))
	for _, field := range input.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return apperrors.InvalidArgument("every field needs a name")
		}
		if !field.Type.Valid() {
			return apperrors.InvalidArgument("unknown field type %q for field %s", field.Type, field.Name)
		}
		if seen[field.Name] {
			return apperrors.InvalidArgument("duplicate field name %s", field.Name)
		}
		seen[field.Name] = true
	}
	return nil
}
