package model

import (
	"time"

	"github.com/google/uuid"
)

// SecurityEvent is an append-only audit record. AuditHash is a
// per-entry authenticity stamp over the entry's own fields plus a
// server secret; it does not chain to prior entries.
type SecurityEvent struct {
	ID          uuid.UUID `json:"id" db:"id"`
	EventType   string    `json:"event_type" db:"event_type"`
	Description string    `json:"description" db:"description"`
	ActorID     uuid.UUID `json:"actor_id" db:"actor_id"`
	ActorEmail  string    `json:"actor_email" db:"actor_email"`
	Portal      string    `json:"portal" db:"portal"`
	IPAddress   string    `json:"ip_address" db:"ip_address"`
	UserAgent   string    `json:"user_agent" db:"user_agent"`
	AuditHash   string    `json:"audit_hash" db:"audit_hash"`
	OccurredAt  time.Time `json:"occurred_at" db:"occurred_at"`
}

const (
	// Event types
	EventTypeLogin           = "login"
	EventTypeLoginFailed     = "login_failed"
	EventTypeTokenRefresh    = "token_refresh"
	EventTypePasswordReset   = "password_reset"
	EventTypePatientDelete   = "patient_delete"
	EventTypeScreeningDelete = "screening_delete"
	EventTypeUserCreate      = "user_create"
	EventTypeUserUpdate      = "user_update"
	EventTypeUserDelete      = "user_delete"
	EventTypeAccessDenied    = "access_denied"
)

// SecurityEventFilters narrows audit listings by type and time range.
type SecurityEventFilters struct {
	EventType string     `json:"event_type" form:"event_type"`
	ActorID   string     `json:"actor_id" form:"actor_id"`
	From      *time.Time `json:"from" form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `json:"to" form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int        `json:"limit" form:"limit"`
}
