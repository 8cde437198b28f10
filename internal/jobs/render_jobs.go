package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/queue"
	"github.com/douanenc/backend/internal/services/control"
	"github.com/douanenc/backend/internal/services/document"
	"github.com/douanenc/backend/internal/services/pdf"
)

// RegisterRenderJobHandlers wires the PDF render job types. Handlers
// read only committed data, so re-running a render is always safe.
func RegisterRenderJobHandlers(q *queue.Queue, db *gorm.DB, renderer *pdf.Renderer) {
	q.RegisterHandler(queue.JobTypeRenderCertificate, renderCertificateHandler(db, renderer))
	q.RegisterHandler(queue.JobTypeRenderPaymentNotice, renderPaymentNoticeHandler(db, renderer))
	q.RegisterHandler(queue.JobTypeRenderDocument, renderDocumentHandler(db, renderer))
}

func renderCertificateHandler(db *gorm.DB, renderer *pdf.Renderer) queue.JobHandler {
	return func(ctx context.Context, job queue.Job) error {
		var payload control.RenderCertificatePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("malformed certificate payload: %w", err)
		}

		var ctrl models.Control
		if err := db.First(&ctrl, "id = ?", payload.ControlID).Error; err != nil {
			return fmt.Errorf("control %s not found: %w", payload.ControlID, err)
		}
		if ctrl.NonComplianceType == nil {
			return fmt.Errorf("control %s has no non-compliance finding", ctrl.ID)
		}

		path, err := renderer.RenderCertificateOfVisit(&ctrl, latestDeclaration(db, ctrl.DeclarationID))
		if err != nil {
			return err
		}
		return db.Model(&models.Control{}).Where("id = ?", ctrl.ID).
			Update("certificate_path", path).Error
	}
}

func renderPaymentNoticeHandler(db *gorm.DB, renderer *pdf.Renderer) queue.JobHandler {
	return func(ctx context.Context, job queue.Job) error {
		var payload control.RenderPaymentNoticePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("malformed payment notice payload: %w", err)
		}

		var fine models.CustomsFine
		if err := db.First(&fine, "id = ?", payload.FineID).Error; err != nil {
			return fmt.Errorf("fine %s not found: %w", payload.FineID, err)
		}

		path, err := renderer.RenderPaymentNotice(&fine, latestDeclaration(db, fine.DeclarationID))
		if err != nil {
			return err
		}
		return db.Model(&models.CustomsFine{}).Where("id = ?", fine.ID).
			Update("payment_notice_path", path).Error
	}
}

func renderDocumentHandler(db *gorm.DB, renderer *pdf.Renderer) queue.JobHandler {
	return func(ctx context.Context, job queue.Job) error {
		var payload document.RenderPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("malformed document payload: %w", err)
		}

		var doc models.Document
		if err := db.First(&doc, "id = ?", payload.DocumentID).Error; err != nil {
			return fmt.Errorf("document %s not found: %w", payload.DocumentID, err)
		}
		var template models.Template
		if err := db.First(&template, "id = ?", doc.TemplateID).Error; err != nil {
			return fmt.Errorf("template for document %s not found: %w", doc.ID, err)
		}

		_, err := renderer.RenderDocument(&doc, &template)
		return err
	}
}

func latestDeclaration(db *gorm.DB, declarationID string) *models.Declaration {
	var declaration models.Declaration
	err := db.Where("declaration_id = ?", declarationID).
		Order("created_at desc").First(&declaration).Error
	if err != nil {
		return nil
	}
	return &declaration
}
