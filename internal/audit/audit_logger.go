package audit

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/models"
)

// EventType represents the type of audit event
type EventType string

// EventSeverity represents the severity level of an audit event
type EventSeverity string

const (
	// Event types
	EventTypeAuth     EventType = "auth"
	EventTypeDocument EventType = "document"
	EventTypeControl  EventType = "control"
	EventTypeSchema   EventType = "schema"

	// Severity levels
	SeverityInfo    EventSeverity = "info"
	SeverityWarning EventSeverity = "warning"
	SeverityError   EventSeverity = "error"
)

// Logger writes audit rows alongside the per-entity history arrays.
// Failures to audit are logged, never propagated: an audit problem must
// not roll back a committed workflow transition.
type Logger struct {
	db *gorm.DB
}

// NewLogger creates a new audit logger
func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// Log records an audit event.
func (l *Logger) Log(eventType EventType, severity EventSeverity, description string,
	userID, targetID *uuid.UUID, success bool, metadata map[string]interface{}) {

	metadataJSON := ""
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(raw)
		}
	}

	entry := models.AuditLog{
		UserID:      userID,
		TargetID:    targetID,
		EventType:   string(eventType),
		Severity:    string(severity),
		Description: description,
		Metadata:    metadataJSON,
		Success:     success,
	}

	if err := l.db.Create(&entry).Error; err != nil {
		log.Printf("failed to write audit log entry: %v", err)
	}
}

// Info records a successful state-changing operation.
func (l *Logger) Info(eventType EventType, description string, userID, targetID *uuid.UUID, metadata map[string]interface{}) {
	l.Log(eventType, SeverityInfo, description, userID, targetID, true, metadata)
}
