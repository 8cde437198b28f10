package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies a user's workflow role. Roles are immutable once
// assigned and gate every lifecycle transition.
type Role string

const (
	RoleDraftingAgent     Role = "drafting_agent"
	RoleControlOfficer    Role = "control_officer"
	RoleValidationOfficer Role = "validation_officer"
	RoleMOA               Role = "moa"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDraftingAgent, RoleControlOfficer, RoleValidationOfficer, RoleMOA:
		return true
	}
	return false
}

// IsOfficer reports whether the role belongs to the control side of
// the workflow (controls list, compliance checks, finalization).
func (r Role) IsOfficer() bool {
	return r == RoleControlOfficer || r == RoleValidationOfficer
}

// User represents an agent of the customs administration.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string         `gorm:"type:varchar(255);not null" json:"full_name"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role           `gorm:"type:varchar(30);not null" json:"role"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	TOTPSecret   *string        `gorm:"type:varchar(255)" json:"-"`
	TOTPEnabled  bool           `gorm:"default:false" json:"totp_enabled"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate sets the UUID primary key.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
