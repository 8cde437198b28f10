package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Regulation is a customs code article an officer may cite when
// recording a non-compliance finding.
type Regulation struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Code        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"type:varchar(50)" json:"category"`
	FineRate    float64   `json:"fine_rate"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate sets the UUID primary key.
func (r *Regulation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
