package document

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/audit"
	"github.com/douanenc/backend/internal/authz"
	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/queue"
)

// Service implements the document lifecycle: tolerant draft creation,
// owner-gated submit, and the validation officer's decisions.
type Service struct {
	db      *gorm.DB
	auditor *audit.Logger
	jobs    queue.Enqueuer
}

// NewService creates a document service
func NewService(db *gorm.DB, auditor *audit.Logger, jobs queue.Enqueuer) *Service {
	return &Service{db: db, auditor: auditor, jobs: jobs}
}

// RenderPayload is the queue payload for a document render.
type RenderPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// CreateInput carries the fields of a new draft.
type CreateInput struct {
	Title        string
	DocumentType string
	TemplateID   uuid.UUID
	Content      models.JSON
}

// Create stores a new draft for the acting drafting agent. Content is
// checked against the template's field names (unknown keys are
// rejected) but required values are not enforced yet: a draft may be
// saved incomplete, the gap is reported at submit time.
func (s *Service) Create(actor authz.Actor, input CreateInput) (*models.Document, error) {
	if err := authz.Require(actor.Role, authz.OpDocumentCreate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.InvalidArgument("title is required")
	}

	var template models.Template
	if err := s.db.First(&template, "id = ?", input.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("template %s not found", input.TemplateID)
		}
		return nil, apperrors.From(err)
	}
	if template.DocumentType != input.DocumentType {
		return nil, apperrors.InvalidArgument(
			"template %s belongs to document type %s, not %s",
			template.ID, template.DocumentType, input.DocumentType)
	}

	if err := validateContentKeys(input.Content, template.Fields); err != nil {
		return nil, err
	}

	doc := models.Document{
		Title:         input.Title,
		DocumentType:  input.DocumentType,
		TemplateID:    template.ID,
		Content:       input.Content,
		Status:        models.DocumentStatusDraft,
		CreatedBy:     actor.ID,
		CreatedByName: actor.FullName,
	}
	doc.History = doc.History.Append("created", actor.ID, actor.FullName, map[string]interface{}{
		"document_type": input.DocumentType,
	})

	if err := s.db.Create(&doc).Error; err != nil {
		return nil, apperrors.From(err)
	}

	s.auditor.Info(audit.EventTypeDocument, "document created", &actor.ID, &doc.ID, nil)
	return &doc, nil
}

// UpdateInput carries an edit to a draft.
type UpdateInput struct {
	Title   *string
	Content models.JSON
}

// Update edits a draft. Only the creating drafting agent may edit, and
// only while the document is still in draft.
func (s *Service) Update(actor authz.Actor, id uuid.UUID, input UpdateInput) (*models.Document, error) {
	if err := authz.Require(actor.Role, authz.OpDocumentUpdate); err != nil {
		return nil, err
	}

	doc, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if doc.CreatedBy != actor.ID {
		return nil, apperrors.Forbidden("only the creator may edit this document")
	}
	if doc.Status != models.DocumentStatusDraft {
		return nil, apperrors.PreconditionFailed("document is not in draft status")
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.InvalidArgument("title cannot be empty")
		}
		updates["title"] = *input.Title
	}
	if input.Content != nil {
		var template models.Template
		if err := s.db.First(&template, "id = ?", doc.TemplateID).Error; err != nil {
			return nil, apperrors.From(err)
		}
		if err := validateContentKeys(input.Content, template.Fields); err != nil {
			return nil, err
		}
		updates["content"] = input.Content
	}
	updates["history"] = doc.History.Append("updated", actor.ID, actor.FullName, nil)

	result := s.db.Model(&models.Document{}).
		Where("id = ? AND status = ?", doc.ID, models.DocumentStatusDraft).
		Updates(updates)
	if result.Error != nil {
		return nil, apperrors.From(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.PreconditionFailed("document left draft status concurrently")
	}

	return s.load(id)
}

// Submit moves a draft to under_control. Succeeds iff the document is
// in draft, the actor is its creator and a drafting agent, and every
// required template field has a value. The status change is a
// conditional update keyed on the current status so a concurrent
// submit cannot apply twice.
func (s *Service) Submit(actor authz.Actor, id uuid.UUID) (*models.Document, error) {
	if err := authz.Require(actor.Role, authz.OpDocumentSubmit); err != nil {
		return nil, err
	}

	doc, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if doc.CreatedBy != actor.ID {
		return nil, apperrors.PreconditionFailed("only the creator may submit this document")
	}
	if doc.Status != models.DocumentStatusDraft {
		return nil, apperrors.PreconditionFailed("document is not in draft status")
	}

	var template models.Template
	if err := s.db.First(&template, "id = ?", doc.TemplateID).Error; err != nil {
		return nil, apperrors.From(err)
	}
	if missing := template.Fields.MissingRequired(doc.Content); len(missing) > 0 {
		return nil, apperrors.PreconditionFailed(
			"required fields missing a value: %s", strings.Join(missing, ", "))
	}

	history := doc.History.Append("submitted_for_control", actor.ID, actor.FullName, nil)
	result := s.db.Model(&models.Document{}).
		Where("id = ? AND status = ?", doc.ID, models.DocumentStatusDraft).
		Updates(map[string]interface{}{
			"status":     models.DocumentStatusUnderControl,
			"history":    history,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, apperrors.From(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.PreconditionFailed("document left draft status concurrently")
	}

	// Pre-render the print artifact for the control officer. The status
	// is already durable; a lost job only delays the first download.
	if _, err := s.jobs.EnqueueJob(queue.JobTypeRenderDocument, RenderPayload{DocumentID: doc.ID}); err != nil {
		log.Printf("document render for %s not enqueued: %v", doc.ID, err)
	}

	s.auditor.Info(audit.EventTypeDocument, "document submitted for control", &actor.ID, &doc.ID, nil)
	return s.load(id)
}

// Decide applies a validation officer's decision: under_control moves
// to under_validation, under_validation to validated or rejected.
func (s *Service) Decide(actor authz.Actor, id uuid.UUID, target models.DocumentStatus) (*models.Document, error) {
	if err := authz.Require(actor.Role, authz.OpDocumentDecide); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, apperrors.InvalidArgument("unknown document status %q", target)
	}

	doc, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !doc.Status.CanTransition(target) {
		return nil, apperrors.PreconditionFailed(
			"document cannot move from %s to %s", doc.Status, target)
	}

	history := doc.History.Append("decision_"+string(target), actor.ID, actor.FullName, nil)
	result := s.db.Model(&models.Document{}).
		Where("id = ? AND status = ?", doc.ID, doc.Status).
		Updates(map[string]interface{}{
			"status":     target,
			"history":    history,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, apperrors.From(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.PreconditionFailed("document status changed concurrently")
	}

	s.auditor.Info(audit.EventTypeDocument, "document decision: "+string(target), &actor.ID, &doc.ID, nil)
	return s.load(id)
}

// Get returns a document the actor is allowed to view.
func (s *Service) Get(actor authz.Actor, id uuid.UUID) (*models.Document, error) {
	doc, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDraftingAgent && doc.CreatedBy != actor.ID {
		return nil, apperrors.Forbidden("not authorized to view this document")
	}
	return doc, nil
}

// List returns the documents visible to the actor's role: drafting
// agents see their own, control officers see documents under control
// or assigned to them, validation officers and the MOA see all.
func (s *Service) List(actor authz.Actor) ([]models.Document, error) {
	query := s.db.Order("created_at desc")

	switch actor.Role {
	case models.RoleDraftingAgent:
		query = query.Where("created_by = ?", actor.ID)
	case models.RoleControlOfficer:
		query = query.Where("status = ? OR assigned_to = ?", models.DocumentStatusUnderControl, actor.ID)
	}

	var docs []models.Document
	if err := query.Find(&docs).Error; err != nil {
		return nil, apperrors.From(err)
	}
	return docs, nil
}

// Template loads the template a document was built from.
func (s *Service) Template(id uuid.UUID) (*models.Template, error) {
	var template models.Template
	if err := s.db.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("template %s not found", id)
		}
		return nil, apperrors.From(err)
	}
	return &template, nil
}

func (s *Service) load(id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := s.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("document %s not found", id)
		}
		return nil, apperrors.From(err)
	}
	return &doc, nil
}

// validateContentKeys rejects content keys the template schema does
// not declare.
func validateContentKeys(content models.JSON, fields models.FieldList) error {
	for key := range content {
		if !fields.Has(key) {
			return apperrors.InvalidArgument("field %q is not part of the template schema", key)
		}
	}
	return nil
}
