package entity

import (
	"encoding/json"
	"time"
)

// AuditRecord is the persisted form of an audit event.
type AuditRecord struct {
	ID           int64           `json:"id"`
	EventID      string          `json:"event_id"`
	Action       string          `json:"action"`
	AuditData    json.RawMessage `json:"audit_data"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	AuditBy      string          `json:"audit_by"`
	AuditOn      string          `json:"audit_on"`
	CreatedAt    time.Time       `json:"created_at"`
}
