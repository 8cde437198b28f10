package jobs

import (
	"log"
	"os"
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/queue"
	"github.com/douanenc/backend/internal/services/control"
)

// StartReconciliation runs a periodic sweep that re-enqueues renders
// for committed state with no artifact: controls past the
// non-compliance transition whose certificate file is absent, and
// issued fines without a payment notice. This keeps the "status first,
// artifact second" ordering recoverable after a crash or a lost queue
// push.
func StartReconciliation(db *gorm.DB, q *queue.Queue) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	scheduler.Every(5).Minutes().Do(func() {
		reconcileCertificates(db, q)
		reconcilePaymentNotices(db, q)
	})

	scheduler.StartAsync()
	return scheduler
}

func reconcileCertificates(db *gorm.DB, q *queue.Queue) {
	var controls []models.Control
	err := db.Where("status IN ?", []models.ControlStatus{
		models.ControlStatusCertificateGenerated,
		models.ControlStatusCompleted,
		models.ControlStatusFineIssued,
	}).Where("non_compliance_type IS NOT NULL").Find(&controls).Error
	if err != nil {
		log.Printf("reconciliation: failed to list controls: %v", err)
		return
	}

	for i := range controls {
		if artifactExists(controls[i].CertificatePath) {
			continue
		}
		if _, err := q.EnqueueJob(queue.JobTypeRenderCertificate, control.RenderCertificatePayload{ControlID: controls[i].ID}); err != nil {
			log.Printf("reconciliation: failed to enqueue certificate render for %s: %v", controls[i].ID, err)
		}
	}
}

func reconcilePaymentNotices(db *gorm.DB, q *queue.Queue) {
	var fines []models.CustomsFine
	if err := db.Where("status = ?", models.FineStatusIssued).Find(&fines).Error; err != nil {
		log.Printf("reconciliation: failed to list fines: %v", err)
		return
	}

	for i := range fines {
		if artifactExists(fines[i].PaymentNoticePath) {
			continue
		}
		if _, err := q.EnqueueJob(queue.JobTypeRenderPaymentNotice, control.RenderPaymentNoticePayload{FineID: fines[i].ID}); err != nil {
			log.Printf("reconciliation: failed to enqueue payment notice render for %s: %v", fines[i].ID, err)
		}
	}
}

func artifactExists(path *string) bool {
	if path == nil || *path == "" {
		return false
	}
	_, err := os.Stat(*path)
	return err == nil
}
