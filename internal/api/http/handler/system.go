package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

// LifecycleService defines privileged account transitions.
type LifecycleService interface {
	Activate(ctx context.Context, userID uuid.UUID) error
	Block(ctx context.Context, userID uuid.UUID, reason *string) error
	Unblock(ctx context.Context, userID uuid.UUID, reason *string) error
}

// System handles privileged account actions called by internal services.
type System struct {
	lifecycle LifecycleService
	logger    *logger.Logger
}

func NewSystem(lifecycle LifecycleService, logger *logger.Logger) *System {
	return &System{lifecycle: lifecycle, logger: logger}
}

// Activate handles POST /system/user/activate?userId=.
func (h *System) Activate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := h.lifecycle.Activate(r.Context(), userID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Block handles POST /system/user/block?userId=&reason=.
func (h *System) Block(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := h.lifecycle.Block(r.Context(), userID, reasonParam(r)); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unblock handles POST /system/user/unblock?userId=&reason=.
func (h *System) Unblock(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := h.lifecycle.Unblock(r.Context(), userID, reasonParam(r)); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("userId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewError(model.KindInvalidFormat, "userId must be a UUID", map[string]string{"userId": raw})
	}
	return id, nil
}

// reasonParam returns nil when the reason parameter is absent.
func reasonParam(r *http.Request) *string {
	q := r.URL.Query()
	if !q.Has("reason") {
		return nil
	}
	reason := q.Get("reason")
	return &reason
}
