package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEventType names an account lifecycle transition.
type AuditEventType string

const (
	AuditRegistered      AuditEventType = "registered"
	AuditActivated       AuditEventType = "activated"
	AuditBlocked         AuditEventType = "blocked"
	AuditUnblocked       AuditEventType = "unblocked"
	AuditLoginChanged    AuditEventType = "login_changed"
	AuditPasswordChanged AuditEventType = "password_changed"
)

// AuditEvent is a record of a committed lifecycle transition.
type AuditEvent struct {
	UserID     uuid.UUID      `json:"user_id"`
	Type       AuditEventType `json:"type"`
	Status     UserStatus     `json:"status"`
	Reason     *string        `json:"reason,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditJournal archives lifecycle events.
type AuditJournal interface {
	Record(ctx context.Context, event AuditEvent) error
}
