package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ControlStatus is the control lifecycle state.
type ControlStatus string

const (
	ControlStatusInitiated            ControlStatus = "initiated"
	ControlStatusInProgress           ControlStatus = "in_progress"
	ControlStatusComplianceCheck      ControlStatus = "compliance_check"
	ControlStatusNonCompliant         ControlStatus = "non_compliant"
	ControlStatusCertificateGenerated ControlStatus = "certificate_generated"
	ControlStatusDeclarantValidation  ControlStatus = "declarant_validation"
	ControlStatusCompleted            ControlStatus = "completed"
	ControlStatusFineIssued           ControlStatus = "fine_issued"
)

// Terminal reports whether no further transition is possible.
func (s ControlStatus) Terminal() bool {
	return s == ControlStatusCompleted || s == ControlStatusFineIssued
}

// ComplianceStatus is the resolution state of a single checklist item.
type ComplianceStatus string

const (
	CompliancePending      ComplianceStatus = "pending"
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
)

// Valid reports whether s is one of the known compliance statuses.
func (s ComplianceStatus) Valid() bool {
	switch s {
	case CompliancePending, ComplianceCompliant, ComplianceNonCompliant:
		return true
	}
	return false
}

// NonComplianceType classifies a recorded non-compliance finding.
type NonComplianceType string

const (
	NonComplianceSpecies        NonComplianceType = "species"
	NonComplianceOrigin         NonComplianceType = "origin"
	NonComplianceValue          NonComplianceType = "value"
	NonComplianceClassification NonComplianceType = "classification"
	NonComplianceDocumentation  NonComplianceType = "documentation"
)

// Valid reports whether t is one of the known non-compliance types.
func (t NonComplianceType) Valid() bool {
	switch t {
	case NonComplianceSpecies, NonComplianceOrigin, NonComplianceValue,
		NonComplianceClassification, NonComplianceDocumentation:
		return true
	}
	return false
}

// FineDecision is the declarant-validation outcome.
type FineDecision string

const (
	FineDecisionPassOver    FineDecision = "pass_over"
	FineDecisionCustomsFine FineDecision = "customs_fine"
)

// Valid reports whether d is one of the known fine decisions.
func (d FineDecision) Valid() bool {
	return d == FineDecisionPassOver || d == FineDecisionCustomsFine
}

// ComplianceCheck is one inspection item of a control, seeded from the
// template checklist.
type ComplianceCheck struct {
	ID        uuid.UUID        `json:"id"`
	Item      string           `json:"item"`
	Status    ComplianceStatus `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	CheckedBy string           `json:"checked_by,omitempty"`
	CheckedAt *time.Time       `json:"checked_at,omitempty"`
}

// ComplianceChecks is the ordered check list stored as a JSON column.
type ComplianceChecks []ComplianceCheck

// Value implements the driver.Valuer interface for ComplianceChecks
func (c ComplianceChecks) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal([]ComplianceCheck{})
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for ComplianceChecks
func (c *ComplianceChecks) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}

	bytes, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, c)
}

// PendingCount returns the number of unresolved checks.
func (c ComplianceChecks) PendingCount() int {
	n := 0
	for _, check := range c {
		if check.Status == CompliancePending {
			n++
		}
	}
	return n
}

// NonCompliantCount returns the number of non-compliant checks.
func (c ComplianceChecks) NonCompliantCount() int {
	n := 0
	for _, check := range c {
		if check.Status == ComplianceNonCompliant {
			n++
		}
	}
	return n
}

// AllResolved reports whether every check has moved out of pending.
func (c ComplianceChecks) AllResolved() bool {
	return len(c) > 0 && c.PendingCount() == 0
}

// DeriveStatus computes the control status implied by the check list.
// Any pending item keeps the control in progress; full resolution with
// at least one non-compliant item parks it at compliance_check awaiting
// the officer's finding; full resolution with none non-compliant
// completes the control outright.
func (c ComplianceChecks) DeriveStatus() ControlStatus {
	if !c.AllResolved() {
		return ControlStatusInProgress
	}
	if c.NonCompliantCount() > 0 {
		return ControlStatusComplianceCheck
	}
	return ControlStatusCompleted
}

// Control is a customs declaration control.
type Control struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	DeclarationID        string             `gorm:"type:varchar(100);index;not null" json:"declaration_id"`
	ControlOfficerID     uuid.UUID          `gorm:"type:uuid;index;not null" json:"control_officer_id"`
	ControlOfficerName   string             `gorm:"type:varchar(255)" json:"control_officer_name"`
	Status               ControlStatus      `gorm:"type:varchar(30);index;not null;default:'initiated'" json:"status"`
	ComplianceChecks     ComplianceChecks   `gorm:"type:jsonb" json:"compliance_checks"`
	NonComplianceType    *NonComplianceType `gorm:"type:varchar(30)" json:"non_compliance_type,omitempty"`
	NonComplianceDetails *string            `gorm:"type:text" json:"non_compliance_details,omitempty"`
	FiscalImpact         *float64           `json:"fiscal_impact,omitempty"`
	ApplicableRegulation *string            `gorm:"type:varchar(50)" json:"applicable_regulation,omitempty"`
	DeclarantAcknowledged bool              `gorm:"default:false" json:"declarant_acknowledged"`
	FineDecision         *FineDecision      `gorm:"type:varchar(20)" json:"fine_decision,omitempty"`
	CertificatePath      *string            `gorm:"type:text" json:"certificate_path,omitempty"`
	History              ActionHistories    `gorm:"type:jsonb" json:"history"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	DeletedAt            gorm.DeletedAt     `gorm:"index" json:"-"`
}

// BeforeCreate sets the UUID primary key.
func (c *Control) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
