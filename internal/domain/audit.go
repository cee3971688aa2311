package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is one audit trail record. Audit rows are written synchronously
// after an engine operation settles, outside the money transaction.
type AuditLog struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents an auditable engine action
type AuditAction string

const (
	AuditActionTransfer       AuditAction = "transaction.transfer"
	AuditActionDeposit        AuditAction = "transaction.deposit"
	AuditActionAccountBlock   AuditAction = "account.block"
	AuditActionAccountUnblock AuditAction = "account.unblock"
)

// AuditStatus represents the outcome of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
