package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/douanenc/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Document{}, &models.Control{}, &models.CustomsFine{})
	require.NoError(t, err)
	return db
}

func seedDocument(t *testing.T, db *gorm.DB, status models.DocumentStatus) {
	require.NoError(t, db.Create(&models.Document{
		Title:        "Doc",
		DocumentType: "CUSTOMS_REPORT",
		TemplateID:   uuid.New(),
		Status:       status,
		CreatedBy:    uuid.New(),
	}).Error)
}

func seedControl(t *testing.T, db *gorm.DB, status models.ControlStatus) *models.Control {
	ctrl := models.Control{
		DeclarationID:    "DEC-2024-001",
		ControlOfficerID: uuid.New(),
		Status:           status,
	}
	require.NoError(t, db.Create(&ctrl).Error)
	return &ctrl
}

func TestComputeCountsByStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedDocument(t, db, models.DocumentStatusDraft)
	seedDocument(t, db, models.DocumentStatusDraft)
	seedDocument(t, db, models.DocumentStatusValidated)

	seedControl(t, db, models.ControlStatusInProgress)
	fined := seedControl(t, db, models.ControlStatusFineIssued)

	require.NoError(t, db.Create(&models.CustomsFine{
		ControlID:     fined.ID,
		DeclarationID: fined.DeclarationID,
		Amount:        1000,
		Status:        models.FineStatusIssued,
	}).Error)

	overview, err := svc.Compute()
	require.NoError(t, err)

	assert.Equal(t, int64(2), overview.DocumentsByStatus[models.DocumentStatusDraft])
	assert.Equal(t, int64(1), overview.DocumentsByStatus[models.DocumentStatusValidated])
	assert.Equal(t, int64(3), overview.TotalDocuments)

	assert.Equal(t, int64(1), overview.ControlsByStatus[models.ControlStatusInProgress])
	assert.Equal(t, int64(1), overview.ControlsByStatus[models.ControlStatusFineIssued])
	assert.Equal(t, int64(2), overview.TotalControls)

	assert.Equal(t, int64(1), overview.TotalFines)
}

func TestComputeReflectsTransitions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	ctrl := seedControl(t, db, models.ControlStatusInitiated)

	before, err := svc.Compute()
	require.NoError(t, err)
	assert.Equal(t, int64(1), before.ControlsByStatus[models.ControlStatusInitiated])

	require.NoError(t, db.Model(&models.Control{}).
		Where("id = ?", ctrl.ID).
		Update("status", models.ControlStatusCompleted).Error)

	after, err := svc.Compute()
	require.NoError(t, err)
	assert.Zero(t, after.ControlsByStatus[models.ControlStatusInitiated])
	assert.Equal(t, int64(1), after.ControlsByStatus[models.ControlStatusCompleted])
}

func TestComputeEmptyDatabase(t *testing.T) {
	svc := NewService(setupTestDB(t))

	overview, err := svc.Compute()
	require.NoError(t, err)
	assert.Zero(t, overview.TotalDocuments)
	assert.Zero(t, overview.TotalControls)
	assert.Zero(t, overview.TotalFines)
	assert.Empty(t, overview.DocumentsByStatus)
	assert.Empty(t, overview.ControlsByStatus)
}
