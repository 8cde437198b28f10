package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is a cross-cutting audit record, one row per state-changing
// operation, separate from the per-entity history arrays.
type AuditLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	TargetID    *uuid.UUID `gorm:"type:uuid;index" json:"target_id,omitempty"`
	EventType   string     `gorm:"type:varchar(50);index" json:"event_type"`
	Severity    string     `gorm:"type:varchar(20)" json:"severity"`
	Description string     `gorm:"type:text" json:"description"`
	IPAddress   string     `gorm:"type:varchar(64)" json:"ip_address"`
	Metadata    string     `gorm:"type:text" json:"metadata"`
	Success     bool       `gorm:"index" json:"success"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// BeforeCreate sets the UUID primary key.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
