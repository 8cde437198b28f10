package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FieldType is the closed enumeration of template field widgets.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeDate, FieldTypeSelect:
		return true
	}
	return false
}

// TemplateField describes one field of a document template.
type TemplateField struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// FieldList is the ordered field schema stored as a JSON column.
type FieldList []TemplateField

// Value implements the driver.Valuer interface for FieldList
func (f FieldList) Value() (driver.Value, error) {
	if f == nil {
		return json.Marshal([]TemplateField{})
	}
	return json.Marshal(f)
}

// Scan implements the sql.Scanner interface for FieldList
func (f *FieldList) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}

	bytes, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, f)
}

// Names returns the field names in schema order.
func (f FieldList) Names() []string {
	names := make([]string, 0, len(f))
	for _, field := range f {
		names = append(names, field.Name)
	}
	return names
}

// Has reports whether the schema declares a field with the given name.
func (f FieldList) Has(name string) bool {
	for _, field := range f {
		if field.Name == name {
			return true
		}
	}
	return false
}

// MissingRequired returns the names of required fields that have no
// non-empty value in content, in schema order.
func (f FieldList) MissingRequired(content JSON) []string {
	var missing []string
	for _, field := range f {
		if !field.Required {
			continue
		}
		value, ok := content[field.Name]
		if !ok || value == nil || value == "" {
			missing = append(missing, field.Name)
		}
	}
	return missing
}

// Template is an immutable field/checklist schema for one document
// type. Its checklist seeds the compliance checks of a new control.
type Template struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	DocumentType string     `gorm:"type:varchar(50);index;not null" json:"document_type"`
	Fields       FieldList  `gorm:"type:jsonb" json:"fields"`
	Checklist    StringList `gorm:"type:jsonb" json:"checklist"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate sets the UUID primary key.
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
