package schema

import (
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
	"github.com/douanenc/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.DocumentType{},
		&models.Template{},
		&models.Document{},
		&models.Regulation{},
		&models.AuditLog{},
	)
	require.NoError(t, err)
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, audit.NewLogger(db)), db
}

func moa() authz.Actor {
	return authz.Actor{
		ID:       uuid.New(),
		Username: "moa",
		FullName: "Maîtrise d'Ouvrage",
		Role:     models.RoleMOA,
	}
}

func TestCreateDocumentTypeUppercasesCode(t *testing.T) {
	svc, _ := newTestService(t)

	docType, err := svc.CreateDocumentType(moa(), DocumentTypeInput{
		Code: "customs_report",
		Name: "Rapport de contrôle douanier",
	})
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMS_REPORT", docType.Code)
}

func TestCreateDocumentTypeRejectsDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateDocumentType(moa(), DocumentTypeInput{Code: "CUSTOMS_REPORT", Name: "Rapport"})
	require.NoError(t, err)

	_, err = svc.CreateDocumentType(moa(), DocumentTypeInput{Code: "customs_report", Name: "Doublon"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestCreateDocumentTypeRequiresMOA(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateDocumentType(authz.Actor{
		ID:   uuid.New(),
		Role: models.RoleValidationOfficer,
	}, DocumentTypeInput{Code: "X", Name: "X"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestDeleteDocumentTypeBlockedByReferences(t *testing.T) {
	svc, db := newTestService(t)

	docType, err := svc.CreateDocumentType(moa(), DocumentTypeInput{Code: "CUSTOMS_REPORT", Name: "Rapport"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Template{
		Name:         "Rapport",
		DocumentType: "CUSTOMS_REPORT",
	}).Error)

	err = svc.DeleteDocumentType(moa(), docType.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindReferentialIntegrity))

	// Once the reference is gone the delete succeeds.
	require.NoError(t, db.Where("document_type = ?", "CUSTOMS_REPORT").Delete(&models.Template{}).Error)
	require.NoError(t, svc.DeleteDocumentType(moa(), docType.ID))
}

func TestCreateTemplateValidatesFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateTemplate(moa(), TemplateInput{
		Name:         "Invalide",
		DocumentType: "CUSTOMS_REPORT",
		Fields: models.FieldList{
			{Name: "a", Type: models.FieldTypeText},
			{Name: "a", Type: models.FieldTypeText},
		},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))

	_, err = svc.CreateTemplate(moa(), TemplateInput{
		Name:         "Invalide",
		DocumentType: "CUSTOMS_REPORT",
		Fields: models.FieldList{
			{Name: "a", Type: models.FieldType("checkbox")},
		},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidArgument))
}

func TestDeleteTemplateBlockedByDocuments(t *testing.T) {
	svc, db := newTestService(t)

	template, err := svc.CreateTemplate(moa(), TemplateInput{
		Name:         "Rapport",
		DocumentType: "CUSTOMS_REPORT",
		Fields: models.FieldList{
			{Name: "findings", Label: "Constatations", Type: models.FieldTypeTextarea, Required: true},
		},
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Document{
		Title:        "Doc",
		DocumentType: "CUSTOMS_REPORT",
		TemplateID:   template.ID,
		Status:       models.DocumentStatusDraft,
		CreatedBy:    uuid.New(),
	}).Error)

	err = svc.DeleteTemplate(moa(), template.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindReferentialIntegrity))
}

func TestUpdateTemplateReplacesSchema(t *testing.T) {
	svc, _ := newTestService(t)

	template, err := svc.CreateTemplate(moa(), TemplateInput{
		Name:         "Rapport",
		DocumentType: "CUSTOMS_REPORT",
		Fields: models.FieldList{
			{Name: "findings", Label: "Constatations", Type: models.FieldTypeTextarea, Required: true},
		},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(moa(), template.ID, TemplateInput{
		Name:         "Rapport v2",
		DocumentType: "CUSTOMS_REPORT",
		Fields: models.FieldList{
			{Name: "findings", Label: "Constatations", Type: models.FieldTypeTextarea, Required: true},
			{Name: "decision", Label: "Décision", Type: models.FieldTypeSelect, Required: true,
				Options: []string{"Conforme", "Non-conforme"}},
		},
		Checklist: models.StringList{"Nouveau point"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Rapport v2", updated.Name)
	require.Len(t, updated.Fields, 2)
	assert.Equal(t, models.StringList{"Nouveau point"}, updated.Checklist)
}

func TestListRegulations(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, db.Create(&models.Regulation{
		Code: "CD-230", Title: "Sous-évaluation", Category: "Value", FineRate: 0.25,
	}).Error)
	require.NoError(t, db.Create(&models.Regulation{
		Code: "CD-215", Title: "Fausse déclaration d'origine", Category: "Origin", FineRate: 0.15,
	}).Error)

	regulations, err := svc.ListRegulations()
	require.NoError(t, err)
	require.Len(t, regulations, 2)
	assert.Equal(t, "CD-215", regulations[0].Code)
}
