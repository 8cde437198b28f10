package control

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/audit"
	"github.com/douanenc/backend/internal/authz"
	"github.com/douanenc/backend/internal/config"
	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/queue"
	"github.com/douanenc/backend/internal/services/pdf"
	"github.com/douanenc/backend/internal/services/sydonia"
)

// fakeEnqueuer records enqueued jobs instead of touching Redis.
type fakeEnqueuer struct {
	jobs []queue.JobType
}

func (f *fakeEnqueuer) EnqueueJob(jobType queue.JobType, payload interface{}) (uuid.UUID, error) {
	f.jobs = append(f.jobs, jobType)
	return uuid.New(), nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Control{},
		&models.Declaration{},
		&models.CustomsFine{},
		&models.Template{},
		&models.AuditLog{},
	)
	require.NoError(t, err)
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeEnqueuer) {
	db := setupTestDB(t)
	renderer, err := pdf.NewRenderer(t.TempDir())
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{}
	svc := NewService(db, audit.NewLogger(db), renderer, sydonia.NewClient(config.SydoniaConfig{}), enqueuer)
	return svc, db, enqueuer
}

func controlOfficer() authz.Actor {
	return authz.Actor{
		ID:       uuid.New(),
		Username: "controleur",
		FullName: "Officier de Contrôle",
		Role:     models.RoleControlOfficer,
	}
}

func initiated(t *testing.T, svc *Service, officer authz.Actor) *models.Control {
	ctrl, err := svc.Initiate(context.Background(), officer, "DEC-2024-001")
	require.NoError(t, err)
	return ctrl
}

// resolveAll returns the control's checks with every item set to the
// given status.
func resolveAll(ctrl *models.Control, status models.ComplianceStatus) models.ComplianceChecks {
	checks := make(models.ComplianceChecks, len(ctrl.ComplianceChecks))
	copy(checks, ctrl.ComplianceChecks)
	for i := range checks {
		checks[i].Status = status
	}
	return checks
}

func toComplianceCheck(t *testing.T, svc *Service, officer authz.Actor) *models.Control {
	ctrl := initiated(t, svc, officer)
	checks := resolveAll(ctrl, models.ComplianceCompliant)
	checks[0].Status = models.ComplianceNonCompliant
	updated, err := svc.UpdateCompliance(officer, ctrl.ID, checks)
	require.NoError(t, err)
	require.Equal(t, models.ControlStatusComplianceCheck, updated.Status)
	return updated
}

func toCertificateGenerated(t *testing.T, svc *Service, officer authz.Actor) *models.Control {
	ctrl := toComplianceCheck(t, svc, officer)
	updated, err := svc.RecordNonCompliance(officer, ctrl.ID, NonComplianceInput{
		Type:                 models.NonComplianceValue,
		Details:              "Valeur déclarée inférieure à la facture",
		FiscalImpact:         11250,
		ApplicableRegulation: "CD-230",
	})
	require.NoError(t, err)
	require.Equal(t, models.ControlStatusCertificateGenerated, updated.Status)
	return updated
}

func TestInitiate(t *testing.T) {
	svc, db, _ := newTestService(t)
	officer := controlOfficer()

	ctrl := initiated(t, svc, officer)

	assert.Equal(t, models.ControlStatusInitiated, ctrl.Status)
	assert.Equal(t, officer.ID, ctrl.ControlOfficerID)
	assert.NotEmpty(t, ctrl.ComplianceChecks)
	for _, check := range ctrl.ComplianceChecks {
		assert.Equal(t, models.CompliancePending, check.Status)
		assert.NotEqual(t, uuid.Nil, check.ID)
	}
	require.Len(t, ctrl.History, 1)
	assert.Equal(t, ActionInitiated, ctrl.History[0].Action)

	// The declaration snapshot was captured in the same transaction.
	var declaration models.Declaration
	require.NoError(t, db.Where("declaration_id = ?", "DEC-2024-001").First(&declaration).Error)
	assert.NotEmpty(t, declaration.ImporterName)
}

func TestInitiateSeedsChecksFromTemplateChecklist(t *testing.T) {
	svc, db, _ := newTestService(t)
	require.NoError(t, db.Create(&models.Template{
		Name:         "Rapport de contrôle douanier",
		DocumentType: "CUSTOMS_REPORT",
		Checklist:    models.StringList{"Premier point", "Second point"},
	}).Error)

	ctrl := initiated(t, svc, controlOfficer())

	require.Len(t, ctrl.ComplianceChecks, 2)
	assert.Equal(t, "Premier point", ctrl.ComplianceChecks[0].Item)
	assert.Equal(t, "Second point", ctrl.ComplianceChecks[1].Item)
}

func TestInitiateRequiresOfficer(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Initiate(context.Background(), authz.Actor{
		ID:   uuid.New(),
		Role: models.RoleDraftingAgent,
	}, "DEC-2024-001")
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestUpdateComplianceKeepsInProgressWhilePending(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := initiated(t, svc, officer)

	checks := resolveAll(ctrl, models.ComplianceCompliant)
	checks[len(checks)-1].Status = models.CompliancePending

	updated, err := svc.UpdateCompliance(officer, ctrl.ID, checks)
	require.NoError(t, err)
	assert.Equal(t, models.ControlStatusInProgress, updated.Status)
	require.Len(t, updated.History, 2)
	assert.Equal(t, ActionChecksUpdated, updated.History[1].Action)
}

func TestUpdateComplianceAllCompliantCompletes(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := initiated(t, svc, officer)

	updated, err := svc.UpdateCompliance(officer, ctrl.ID, resolveAll(ctrl, models.ComplianceCompliant))
	require.NoError(t, err)
	assert.Equal(t, models.ControlStatusCompleted, updated.Status)

	// Exactly one entry for the whole transition, not an update entry
	// plus a completion entry.
	require.Len(t, updated.History, 2)
	assert.Equal(t, ActionCompliantDone, updated.History[1].Action)

	// Resolved items were stamped.
	for _, check := range updated.ComplianceChecks {
		assert.Equal(t, officer.FullName, check.CheckedBy)
		assert.NotNil(t, check.CheckedAt)
	}
}

func TestUpdateComplianceRejectedAfterCertificate(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := toCertificateGenerated(t, svc, officer)

	_, err := svc.UpdateCompliance(officer, ctrl.ID, resolveAll(ctrl, models.ComplianceCompliant))
	assert.True(t, apperrors.IsKind(err, apperrors.KindPreconditionFailed))
}

func TestUpdateComplianceRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := initiated(t, svc, officer)

	checks := resolveAll(ctrl, models.ComplianceStatus("maybe"))
	_, err := svc.UpdateCompliance(officer, ctrl.ID, checks)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))
}

func TestRecordNonComplianceEnqueuesCertificateRender(t *testing.T) {
	svc, _, enqueuer := newTestService(t)
	officer := controlOfficer()

	ctrl := toCertificateGenerated(t, svc, officer)

	require.NotNil(t, ctrl.NonComplianceType)
	assert.Equal(t, models.NonComplianceValue, *ctrl.NonComplianceType)
	require.NotNil(t, ctrl.FiscalImpact)
	assert.Equal(t, 11250.0, *ctrl.FiscalImpact)
	assert.Equal(t, ActionCertificate, ctrl.History[len(ctrl.History)-1].Action)

	require.Len(t, enqueuer.jobs, 1)
	assert.Equal(t, queue.JobTypeRenderCertificate, enqueuer.jobs[0])
}

func TestRecordNonComplianceOnlyFromComplianceCheck(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := initiated(t, svc, officer)

	_, err := svc.RecordNonCompliance(officer, ctrl.ID, NonComplianceInput{
		Type:                 models.NonComplianceValue,
		Details:              "x",
		ApplicableRegulation: "CD-230",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindPreconditionFailed))
}

func TestRecordNonComplianceValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := toComplianceCheck(t, svc, officer)

	_, err := svc.RecordNonCompliance(officer, ctrl.ID, NonComplianceInput{
		Type:                 models.NonComplianceValue,
		Details:              "",
		ApplicableRegulation: "CD-230",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))

	_, err = svc.RecordNonCompliance(officer, ctrl.ID, NonComplianceInput{
		Type:                 models.NonComplianceValue,
		Details:              "x",
		FiscalImpact:         -1,
		ApplicableRegulation: "CD-230",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))

	_, err = svc.RecordNonCompliance(officer, ctrl.ID, NonComplianceInput{
		Type:                 models.NonComplianceType("fraud"),
		Details:              "x",
		ApplicableRegulation: "CD-230",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))
}

func TestDeclarantValidationRequiresAcknowledgement(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := toCertificateGenerated(t, svc, officer)

	_, err := svc.DeclarantValidation(officer, ctrl.ID, DeclarantInput{
		Acknowledged: false,
		FineDecision: models.FineDecisionPassOver,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindPreconditionFailed))
}

func TestDeclarantValidationPassOverCompletes(t *testing.T) {
	svc, db, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := toCertificateGenerated(t, svc, officer)

	finalized, err := svc.DeclarantValidation(officer, ctrl.ID, DeclarantInput{
		Acknowledged: true,
		FineDecision: models.FineDecisionPassOver,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ControlStatusCompleted, finalized.Status)
	assert.True(t, finalized.DeclarantAcknowledged)
	assert.Equal(t, actionFinalizePrefix+"pass_over", finalized.History[len(finalized.History)-1].Action)

	var fines int64
	db.Model(&models.CustomsFine{}).Count(&fines)
	assert.Zero(t, fines)
}

func TestDeclarantValidationCustomsFineIssuesFine(t *testing.T) {
	svc, db, enqueuer := newTestService(t)
	officer := controlOfficer()
	ctrl := toCertificateGenerated(t, svc, officer)

	finalized, err := svc.DeclarantValidation(officer, ctrl.ID, DeclarantInput{
		Acknowledged: true,
		FineDecision: models.FineDecisionCustomsFine,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ControlStatusFineIssued, finalized.Status)

	var fine models.CustomsFine
	require.NoError(t, db.Where("control_id = ?", ctrl.ID).First(&fine).Error)
	assert.Equal(t, 11250.0, fine.Amount)
	assert.Equal(t, "CD-230", fine.RegulationCode)
	assert.Equal(t, models.FineStatusIssued, fine.Status)
	require.NotNil(t, fine.SydoniaLONumber)
	assert.NotEmpty(t, *fine.SydoniaLONumber)

	// Certificate render from RecordNonCompliance plus the payment
	// notice render.
	require.Len(t, enqueuer.jobs, 2)
	assert.Equal(t, queue.JobTypeRenderPaymentNotice, enqueuer.jobs[1])
}

func TestDeclarantValidationIsFinal(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := toCertificateGenerated(t, svc, officer)

	_, err := svc.DeclarantValidation(officer, ctrl.ID, DeclarantInput{
		Acknowledged: true,
		FineDecision: models.FineDecisionPassOver,
	})
	require.NoError(t, err)

	_, err = svc.DeclarantValidation(officer, ctrl.ID, DeclarantInput{
		Acknowledged: true,
		FineDecision: models.FineDecisionCustomsFine,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindPreconditionFailed))
}

func TestListScopesControlOfficerToOwnControls(t *testing.T) {
	svc, _, _ := newTestService(t)
	officerA := controlOfficer()
	officerB := controlOfficer()

	initiated(t, svc, officerA)
	initiated(t, svc, officerB)

	own, err := svc.List(officerA)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, officerA.ID, own[0].ControlOfficerID)

	all, err := svc.List(authz.Actor{ID: uuid.New(), Role: models.RoleValidationOfficer})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(authz.Actor{ID: uuid.New(), Role: models.RoleDraftingAgent})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestGetDeniesForeignControlToOfficer(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := controlOfficer()
	ctrl := initiated(t, svc, owner)

	_, err := svc.Get(controlOfficer(), ctrl.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestEnsureCertificateBeforeGenerationFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := initiated(t, svc, officer)

	_, err := svc.EnsureCertificate(ctrl.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPreconditionFailed))
}

func TestEnsureCertificateRendersMissingArtifact(t *testing.T) {
	svc, db, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := toCertificateGenerated(t, svc, officer)

	// The fake enqueuer never ran the render job, so the first read has
	// to render synchronously.
	path, err := svc.EnsureCertificate(ctrl.ID)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	var reloaded models.Control
	require.NoError(t, db.First(&reloaded, "id = ?", ctrl.ID).Error)
	require.NotNil(t, reloaded.CertificatePath)
	assert.Equal(t, path, *reloaded.CertificatePath)

	// A second read serves the existing file.
	again, err := svc.EnsureCertificate(ctrl.ID)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestEnsurePaymentNoticeRendersMissingArtifact(t *testing.T) {
	svc, db, _ := newTestService(t)
	officer := controlOfficer()
	ctrl := toCertificateGenerated(t, svc, officer)

	_, err := svc.DeclarantValidation(officer, ctrl.ID, DeclarantInput{
		Acknowledged: true,
		FineDecision: models.FineDecisionCustomsFine,
	})
	require.NoError(t, err)

	var fine models.CustomsFine
	require.NoError(t, db.Where("control_id = ?", ctrl.ID).First(&fine).Error)

	path, err := svc.EnsurePaymentNotice(fine.ID)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
}
