package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentStatus is the document lifecycle state.
type DocumentStatus string

const (
	DocumentStatusDraft           DocumentStatus = "draft"
	DocumentStatusUnderControl    DocumentStatus = "under_control"
	DocumentStatusUnderValidation DocumentStatus = "under_validation"
	DocumentStatusValidated       DocumentStatus = "validated"
	DocumentStatusRejected        DocumentStatus = "rejected"
)

// Valid reports whether s is one of the known document statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusUnderControl, DocumentStatusUnderValidation,
		DocumentStatusValidated, DocumentStatusRejected:
		return true
	}
	return false
}

// documentTransitions maps each status to the statuses reachable from
// it. Draft moves only through submit; the later steps are driven by
// the validation officer's decision.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusDraft:           {DocumentStatusUnderControl},
	DocumentStatusUnderControl:    {DocumentStatusUnderValidation},
	DocumentStatusUnderValidation: {DocumentStatusValidated, DocumentStatusRejected},
	DocumentStatusValidated:       {},
	DocumentStatusRejected:        {},
}

// CanTransition reports whether a document may move from one status to
// another.
func (s DocumentStatus) CanTransition(to DocumentStatus) bool {
	for _, next := range documentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Document is a drafted administrative act built from a template.
type Document struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	DocumentType  string          `gorm:"type:varchar(50);index;not null" json:"document_type"`
	TemplateID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"template_id"`
	Content       JSON            `gorm:"type:jsonb" json:"content"`
	Status        DocumentStatus  `gorm:"type:varchar(30);index;not null;default:'draft'" json:"status"`
	CreatedBy     uuid.UUID       `gorm:"type:uuid;index;not null" json:"created_by"`
	CreatedByName string          `gorm:"type:varchar(255)" json:"created_by_name"`
	AssignedTo    *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to,omitempty"`
	History       ActionHistories `gorm:"type:jsonb" json:"history"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate sets the UUID primary key.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
