package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FineStatus is the payment state of a customs fine.
type FineStatus string

const (
	FineStatusPending   FineStatus = "pending"
	FineStatusIssued    FineStatus = "issued"
	FineStatusPaid      FineStatus = "paid"
	FineStatusCancelled FineStatus = "cancelled"
)

// CustomsFine is created when a declarant validation ends with a
// customs_fine decision. Amount mirrors the control's fiscal impact.
type CustomsFine struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ControlID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"control_id"`
	DeclarationID     string     `gorm:"type:varchar(100);index;not null" json:"declaration_id"`
	Amount            float64    `json:"amount"`
	RegulationCode    string     `gorm:"type:varchar(50)" json:"regulation_code"`
	Status            FineStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	SydoniaLONumber   *string    `gorm:"type:varchar(50)" json:"sydonia_lo_number,omitempty"`
	PaymentNoticePath *string    `gorm:"type:text" json:"payment_notice_path,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BeforeCreate sets the UUID primary key.
func (f *CustomsFine) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
