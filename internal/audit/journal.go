// Package audit archives account lifecycle events.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dtroode/finance-server/internal/model"
)

const contentType = "application/json"

var (
	_ model.AuditJournal = (*Journal)(nil)
	_ model.AuditJournal = Noop{}
)

// Journal writes each event as a JSON object to storage.
type Journal struct {
	storage model.Storage
}

func NewJournal(storage model.Storage) *Journal {
	return &Journal{storage: storage}
}

// Key returns the object key of event: audit/<user id>/<unix nanos>-<type>.json.
func Key(event model.AuditEvent) string {
	return fmt.Sprintf("audit/%s/%d-%s.json", event.UserID, event.OccurredAt.UnixNano(), event.Type)
}

func (j *Journal) Record(ctx context.Context, event model.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	if err := j.storage.Upload(ctx, Key(event), bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return fmt.Errorf("failed to store audit event: %w", err)
	}

	return nil
}

// Noop drops events. Used when no archive is configured.
type Noop struct{}

func (Noop) Record(context.Context, model.AuditEvent) error { return nil }
