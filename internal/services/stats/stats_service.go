package stats

import (
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/models"
)

// Service computes read-side workflow statistics. Counts are always
// recomputed from the current lifecycle state, never cached.
type Service struct {
	db *gorm.DB
}

// NewService creates a stats service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Overview groups documents and controls by status.
type Overview struct {
	DocumentsByStatus map[models.DocumentStatus]int64 `json:"documents_by_status"`
	ControlsByStatus  map[models.ControlStatus]int64  `json:"controls_by_status"`
	TotalDocuments    int64                           `json:"total_documents"`
	TotalControls     int64                           `json:"total_controls"`
	TotalFines        int64                           `json:"total_fines"`
}

type statusCount struct {
	Status string
	Count  int64
}

// Compute builds a fresh overview.
func (s *Service) Compute() (*Overview, error) {
	overview := &Overview{
		DocumentsByStatus: make(map[models.DocumentStatus]int64),
		ControlsByStatus:  make(map[models.ControlStatus]int64),
	}

	var docCounts []statusCount
	err := s.db.Model(&models.Document{}).
		Select("status, count(*) as count").Group("status").Scan(&docCounts).Error
	if err != nil {
		return nil, apperrors.From(err)
	}
	for _, row := range docCounts {
		overview.DocumentsByStatus[models.DocumentStatus(row.Status)] = row.Count
		overview.TotalDocuments += row.Count
	}

	var controlCounts []statusCount
	err = s.db.Model(&models.Control{}).
		Select("status, count(*) as count").Group("status").Scan(&controlCounts).Error
	if err != nil {
		return nil, apperrors.From(err)
	}
	for _, row := range controlCounts {
		overview.ControlsByStatus[models.ControlStatus(row.Status)] = row.Count
		overview.TotalControls += row.Count
	}

	if err := s.db.Model(&models.CustomsFine{}).Count(&overview.TotalFines).Error; err != nil {
		return nil, apperrors.From(err)
	}

	return overview, nil
}
