package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JSON is a custom type for handling JSON data in GORM
type JSON map[string]interface{}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, err := asBytes(value)
	if err != nil {
		return err
	}

	var result JSON
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// StringList is an ordered list of strings stored as a JSON column.
type StringList []string

// Value implements the driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for StringList
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	bytes, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, l)
}

// ActionHistory is a single audit-history entry attached to a document
// or a control. Entries are append-only: once written they are never
// rewritten or removed.
type ActionHistory struct {
	ID        uuid.UUID              `json:"id"`
	Action    string                 `json:"action"`
	UserID    uuid.UUID              `json:"user_id"`
	UserName  string                 `json:"user_name"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ActionHistories is the JSON-encoded history column.
type ActionHistories []ActionHistory

// Value implements the driver.Valuer interface for ActionHistories
func (h ActionHistories) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal([]ActionHistory{})
	}
	return json.Marshal(h)
}

// Scan implements the sql.Scanner interface for ActionHistories
func (h *ActionHistories) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}

	bytes, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, h)
}

// Append returns a new history with an entry added. The receiver is
// never mutated, which keeps prior entries byte-identical across
// transitions.
func (h ActionHistories) Append(action string, userID uuid.UUID, userName string, details map[string]interface{}) ActionHistories {
	entry := ActionHistory{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		UserName:  userName,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
	out := make(ActionHistories, 0, len(h)+1)
	out = append(out, h...)
	return append(out, entry)
}

func asBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported column type for JSON scan")
	}
}
