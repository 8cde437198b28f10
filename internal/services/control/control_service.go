package control

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/audit"
	"github.com/douanenc/backend/internal/authz"
	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/queue"
	"github.com/douanenc/backend/internal/services/pdf"
	"github.com/douanenc/backend/internal/services/sydonia"
	"github.com/douanenc/backend/internal/utils"
)

// History actions recorded on control transitions.
const (
	ActionInitiated      = "Contrôle initié"
	ActionChecksUpdated  = "Vérifications mises à jour"
	ActionCompliantDone  = "Contrôle conforme - Terminé"
	ActionCertificate    = "Certificat de visite généré"
	actionFinalizePrefix = "Contrôle finalisé: "
)

// controlTemplateType is the document-type code whose active template
// checklist seeds a new control's compliance checks.
const controlTemplateType = "CUSTOMS_REPORT"

// defaultChecklist seeds controls when no template carries a checklist
// for the control document type.
var defaultChecklist = []string{
	"Vérification identité importateur",
	"Contrôle cohérence déclaration/marchandises",
	"Vérification origine marchandises",
	"Contrôle valeur déclarée",
	"Vérification classement tarifaire",
	"Contrôle des documents d'accompagnement",
	"Vérification du régime douanier",
}

// Service implements the control lifecycle. Every transition validates
// role and current state before mutating, applies the change as a
// conditional update keyed on the current status, and appends exactly
// one history entry. PDF artifacts are rendered after the state
// commit and reconciled on read when missing.
type Service struct {
	db       *gorm.DB
	auditor  *audit.Logger
	renderer *pdf.Renderer
	sydonia  *sydonia.Client
	jobs     queue.Enqueuer
}

// NewService creates a control service
func NewService(db *gorm.DB, auditor *audit.Logger, renderer *pdf.Renderer, sydoniaClient *sydonia.Client, jobs queue.Enqueuer) *Service {
	return &Service{
		db:       db,
		auditor:  auditor,
		renderer: renderer,
		sydonia:  sydoniaClient,
		jobs:     jobs,
	}
}

// RenderCertificatePayload is the queue payload for a certificate
// render.
type RenderCertificatePayload struct {
	ControlID uuid.UUID `json:"control_id"`
}

// RenderPaymentNoticePayload is the queue payload for a payment-notice
// render.
type RenderPaymentNoticePayload struct {
	FineID uuid.UUID `json:"fine_id"`
}

// Initiate opens a control on a declaration. The declaration snapshot
// is captured from Sydonia and the compliance checks are seeded from
// the active template checklist, each pending. Several controls per
// declaration are allowed.
func (s *Service) Initiate(ctx context.Context, actor authz.Actor, declarationID string) (*models.Control, error) {
	if err := authz.Require(actor.Role, authz.OpControlInitiate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(declarationID) == "" {
		return nil, apperrors.InvalidArgument("declaration_id is required")
	}

	declaration, err := s.sydonia.GetDeclaration(ctx, declarationID)
	if err != nil {
		return nil, err
	}

	checks := make(models.ComplianceChecks, 0, len(defaultChecklist))
	for _, item := range s.checklistItems() {
		checks = append(checks, models.ComplianceCheck{
			ID:     uuid.New(),
			Item:   item,
			Status: models.CompliancePending,
		})
	}

	ctrl := models.Control{
		DeclarationID:      declarationID,
		ControlOfficerID:   actor.ID,
		ControlOfficerName: actor.FullName,
		Status:             models.ControlStatusInitiated,
		ComplianceChecks:   checks,
	}
	ctrl.History = ctrl.History.Append(ActionInitiated, actor.ID, actor.FullName, map[string]interface{}{
		"declaration_id": declarationID,
	})

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(declaration).Error; err != nil {
			return err
		}
		return tx.Create(&ctrl).Error
	})
	if err != nil {
		return nil, apperrors.From(err)
	}

	s.auditor.Info(audit.EventTypeControl, "control initiated", &actor.ID, &ctrl.ID, map[string]interface{}{
		"declaration_id": declarationID,
	})
	return &ctrl, nil
}

// UpdateCompliance replaces the check list wholesale and derives the
// next status from its contents: any pending check keeps the control
// in progress, full resolution with at least one non-compliant item
// parks it at compliance_check, full resolution with none completes
// the control outright. Allowed until a certificate is generated.
func (s *Service) UpdateCompliance(actor authz.Actor, id uuid.UUID, checks models.ComplianceChecks) (*models.Control, error) {
	if err := authz.Require(actor.Role, authz.OpControlUpdateChecks); err != nil {
		return nil, err
	}

	ctrl, err := s.load(id)
	if err != nil {
		return nil, err
	}
	switch ctrl.Status {
	case models.ControlStatusInitiated, models.ControlStatusInProgress, models.ControlStatusComplianceCheck:
	default:
		return nil, apperrors.PreconditionFailed(
			"compliance checks cannot be updated once the control is %s", ctrl.Status)
	}
	if len(checks) == 0 {
		return nil, apperrors.InvalidArgument("compliance_checks cannot be empty")
	}

	now := time.Now().UTC()
	for i := range checks {
		if !checks[i].Status.Valid() {
			return nil, apperrors.InvalidArgument("unknown compliance status %q", checks[i].Status)
		}
		if checks[i].ID == uuid.Nil {
			checks[i].ID = uuid.New()
		}
		if checks[i].Status != models.CompliancePending && checks[i].CheckedAt == nil {
			checks[i].CheckedBy = actor.FullName
			checks[i].CheckedAt = &now
		}
	}

	nextStatus := checks.DeriveStatus()
	action := ActionChecksUpdated
	details := map[string]interface{}{
		"non_compliant_count": checks.NonCompliantCount(),
	}
	if nextStatus == models.ControlStatusCompleted {
		action = ActionCompliantDone
		details = nil
	}

	history := ctrl.History.Append(action, actor.ID, actor.FullName, details)
	result := s.db.Model(&models.Control{}).
		Where("id = ? AND status = ?", ctrl.ID, ctrl.Status).
		Updates(map[string]interface{}{
			"compliance_checks": checks,
			"status":            nextStatus,
			"history":           history,
			"updated_at":        now,
		})
	if result.Error != nil {
		return nil, apperrors.From(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.PreconditionFailed("control status changed concurrently")
	}

	s.auditor.Info(audit.EventTypeControl, "compliance checks updated", &actor.ID, &ctrl.ID, details)
	return s.load(id)
}

// NonComplianceInput carries a non-compliance finding.
type NonComplianceInput struct {
	Type                 models.NonComplianceType
	Details              string
	FiscalImpact         float64
	ApplicableRegulation string
}

// RecordNonCompliance records the officer's finding and moves the
// control to certificate_generated. Only valid from compliance_check
// with at least one non-compliant check. The certificate itself is
// rendered by a background job after this commit; a missing artifact
// is re-rendered on demand from the fields persisted here.
func (s *Service) RecordNonCompliance(actor authz.Actor, id uuid.UUID, input NonComplianceInput) (*models.Control, error) {
	if err := authz.Require(actor.Role, authz.OpControlNonCompliance); err != nil {
		return nil, err
	}

	ctrl, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if ctrl.Status != models.ControlStatusComplianceCheck {
		return nil, apperrors.PreconditionFailed(
			"non-compliance can only be recorded from compliance_check, control is %s", ctrl.Status)
	}
	if ctrl.ComplianceChecks.NonCompliantCount() == 0 {
		return nil, apperrors.PreconditionFailed("control has no non-compliant check")
	}
	if !input.Type.Valid() {
		return nil, apperrors.InvalidArgument("unknown non-compliance type %q", input.Type)
	}
	if strings.TrimSpace(input.Details) == "" {
		return nil, apperrors.InvalidArgument("non_compliance_details is required")
	}
	if input.FiscalImpact < 0 {
		return nil, apperrors.InvalidArgument("fiscal_impact cannot be negative")
	}
	if strings.TrimSpace(input.ApplicableRegulation) == "" {
		return nil, apperrors.InvalidArgument("applicable_regulation is required")
	}

	history := ctrl.History.Append(ActionCertificate, actor.ID, actor.FullName, map[string]interface{}{
		"non_compliance_type": string(input.Type),
	})
	result := s.db.Model(&models.Control{}).
		Where("id = ? AND status = ?", ctrl.ID, models.ControlStatusComplianceCheck).
		Updates(map[string]interface{}{
			"non_compliance_type":    input.Type,
			"non_compliance_details": input.Details,
			"fiscal_impact":          input.FiscalImpact,
			"applicable_regulation":  input.ApplicableRegulation,
			"status":                 models.ControlStatusCertificateGenerated,
			"history":                history,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return nil, apperrors.From(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.PreconditionFailed("control status changed concurrently")
	}

	// Status is durable; the render happens after, never before.
	if _, err := s.jobs.EnqueueJob(queue.JobTypeRenderCertificate, RenderCertificatePayload{ControlID: ctrl.ID}); err != nil {
		log.Printf("certificate render for control %s not enqueued: %v", ctrl.ID, err)
	}

	s.auditor.Info(audit.EventTypeControl, "non-compliance recorded", &actor.ID, &ctrl.ID, map[string]interface{}{
		"non_compliance_type": string(input.Type),
		"fiscal_impact":       input.FiscalImpact,
	})
	return s.load(id)
}

// DeclarantInput carries the declarant validation outcome.
type DeclarantInput struct {
	Acknowledged bool
	FineDecision models.FineDecision
}

// DeclarantValidation finalizes a control after the declarant has
// acknowledged the certificate. A pass_over completes the control; a
// customs_fine issues a fine for the recorded fiscal impact in the
// same transaction as the status change.
func (s *Service) DeclarantValidation(actor authz.Actor, id uuid.UUID, input DeclarantInput) (*models.Control, error) {
	if err := authz.Require(actor.Role, authz.OpControlDeclarant); err != nil {
		return nil, err
	}

	ctrl, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if ctrl.Status != models.ControlStatusCertificateGenerated {
		return nil, apperrors.PreconditionFailed(
			"declarant validation requires certificate_generated, control is %s", ctrl.Status)
	}
	if !input.Acknowledged {
		return nil, apperrors.PreconditionFailed("declarant must acknowledge the certificate")
	}
	if !input.FineDecision.Valid() {
		return nil, apperrors.InvalidArgument("unknown fine decision %q", input.FineDecision)
	}

	nextStatus := models.ControlStatusCompleted
	if input.FineDecision == models.FineDecisionCustomsFine {
		nextStatus = models.ControlStatusFineIssued
	}

	history := ctrl.History.Append(actionFinalizePrefix+string(input.FineDecision), actor.ID, actor.FullName, map[string]interface{}{
		"decision": string(input.FineDecision),
	})

	var fine *models.CustomsFine
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Control{}).
			Where("id = ? AND status = ?", ctrl.ID, models.ControlStatusCertificateGenerated).
			Updates(map[string]interface{}{
				"declarant_acknowledged": true,
				"fine_decision":          input.FineDecision,
				"status":                 nextStatus,
				"history":                history,
				"updated_at":             time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.PreconditionFailed("control status changed concurrently")
		}

		if input.FineDecision != models.FineDecisionCustomsFine {
			return nil
		}

		amount := 0.0
		if ctrl.FiscalImpact != nil {
			amount = *ctrl.FiscalImpact
		}
		regulation := ""
		if ctrl.ApplicableRegulation != nil {
			regulation = *ctrl.ApplicableRegulation
		}
		loNumber := utils.GenerateLONumber(ctrl.ID)
		fine = &models.CustomsFine{
			ControlID:       ctrl.ID,
			DeclarationID:   ctrl.DeclarationID,
			Amount:          amount,
			RegulationCode:  regulation,
			Status:          models.FineStatusIssued,
			SydoniaLONumber: &loNumber,
		}
		return tx.Create(fine).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.From(err)
	}

	if fine != nil {
		if _, err := s.jobs.EnqueueJob(queue.JobTypeRenderPaymentNotice, RenderPaymentNoticePayload{FineID: fine.ID}); err != nil {
			log.Printf("payment notice render for fine %s not enqueued: %v", fine.ID, err)
		}
	}

	s.auditor.Info(audit.EventTypeControl, "control finalized: "+string(input.FineDecision), &actor.ID, &ctrl.ID, nil)
	return s.load(id)
}

// Get returns a control the actor may view. Control officers only see
// their own controls; validation officers see all.
func (s *Service) Get(actor authz.Actor, id uuid.UUID) (*models.Control, error) {
	if !actor.Role.IsOfficer() {
		return nil, apperrors.Forbidden("only control officers may view controls")
	}
	ctrl, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleControlOfficer && ctrl.ControlOfficerID != actor.ID {
		return nil, apperrors.Forbidden("not authorized to view this control")
	}
	return ctrl, nil
}

// List returns the controls visible to the actor's role.
func (s *Service) List(actor authz.Actor) ([]models.Control, error) {
	if !actor.Role.IsOfficer() {
		return nil, apperrors.Forbidden("only control officers may list controls")
	}

	query := s.db.Order("created_at desc")
	if actor.Role == models.RoleControlOfficer {
		query = query.Where("control_officer_id = ?", actor.ID)
	}

	var controls []models.Control
	if err := query.Find(&controls).Error; err != nil {
		return nil, apperrors.From(err)
	}
	return controls, nil
}

// ListFines returns issued fines, restricted to officers.
func (s *Service) ListFines(actor authz.Actor) ([]models.CustomsFine, error) {
	if !actor.Role.IsOfficer() {
		return nil, apperrors.Forbidden("only control officers may list fines")
	}
	var fines []models.CustomsFine
	if err := s.db.Order("created_at desc").Find(&fines).Error; err != nil {
		return nil, apperrors.From(err)
	}
	return fines, nil
}

// EnsureCertificate returns the certificate artifact path for a
// control, rendering it from committed data when the background job
// has not run yet or the file went missing.
func (s *Service) EnsureCertificate(id uuid.UUID) (string, error) {
	ctrl, err := s.load(id)
	if err != nil {
		return "", err
	}
	switch ctrl.Status {
	case models.ControlStatusCertificateGenerated, models.ControlStatusCompleted, models.ControlStatusFineIssued:
	default:
		return "", apperrors.PreconditionFailed("certificate not generated yet")
	}
	if ctrl.NonComplianceType == nil {
		return "", apperrors.PreconditionFailed("control has no non-compliance finding")
	}

	if ctrl.CertificatePath != nil {
		if _, statErr := os.Stat(*ctrl.CertificatePath); statErr == nil {
			return *ctrl.CertificatePath, nil
		}
	}

	path, err := s.renderer.RenderCertificateOfVisit(ctrl, s.declarationFor(ctrl.DeclarationID))
	if err != nil {
		return "", apperrors.DependencyFailure("certificate render failed", err)
	}
	if err := s.db.Model(&models.Control{}).Where("id = ?", ctrl.ID).
		Update("certificate_path", path).Error; err != nil {
		return "", apperrors.From(err)
	}
	return path, nil
}

// EnsurePaymentNotice returns the payment notice artifact path for a
// fine, rendering it when missing.
func (s *Service) EnsurePaymentNotice(id uuid.UUID) (string, error) {
	var fine models.CustomsFine
	if err := s.db.First(&fine, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound("fine %s not found", id)
		}
		return "", apperrors.From(err)
	}

	if fine.PaymentNoticePath != nil {
		if _, statErr := os.Stat(*fine.PaymentNoticePath); statErr == nil {
			return *fine.PaymentNoticePath, nil
		}
	}

	path, err := s.renderer.RenderPaymentNotice(&fine, s.declarationFor(fine.DeclarationID))
	if err != nil {
		return "", apperrors.DependencyFailure("payment notice render failed", err)
	}
	if err := s.db.Model(&models.CustomsFine{}).Where("id = ?", fine.ID).
		Update("payment_notice_path", path).Error; err != nil {
		return "", apperrors.From(err)
	}
	return path, nil
}

// checklistItems returns the checklist of the most recent template for
// the control document type, falling back to the built-in list.
func (s *Service) checklistItems() []string {
	var template models.Template
	err := s.db.Where("document_type = ?", controlTemplateType).
		Order("created_at desc").First(&template).Error
	if err == nil && len(template.Checklist) > 0 {
		return template.Checklist
	}
	return defaultChecklist
}

// declarationFor loads the latest snapshot for a declaration ID; a nil
// return only thins out the rendered artifact.
func (s *Service) declarationFor(declarationID string) *models.Declaration {
	var declaration models.Declaration
	err := s.db.Where("declaration_id = ?", declarationID).
		Order("created_at desc").First(&declaration).Error
	if err != nil {
		return nil
	}
	return &declaration
}

func (s *Service) load(id uuid.UUID) (*models.Control, error) {
	var ctrl models.Control
	if err := s.db.First(&ctrl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("control %s not found", id)
		}
		return nil, apperrors.From(err)
	}
	return &ctrl, nil
}
