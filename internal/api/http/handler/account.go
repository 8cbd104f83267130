package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

// AccountService defines self-service account operations.
type AccountService interface {
	Register(ctx context.Context, login, password string) (model.User, error)
	Login(ctx context.Context, login, password string) (string, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string, oldPassword *string) error
	ChangeLogin(ctx context.Context, userID uuid.UUID, newLogin, password string) error
}

// CookieOptions configure the session cookie set on login.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Account handles registration, login and credential changes.
type Account struct {
	accountService AccountService
	contextManager model.ContextManager
	cookie         CookieOptions
	logger         *logger.Logger
}

func NewAccount(accountService AccountService, contextManager model.ContextManager, cookie CookieOptions, logger *logger.Logger) *Account {
	return &Account{
		accountService: accountService,
		contextManager: contextManager,
		cookie:         cookie,
		logger:         logger,
	}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID uuid.UUID `json:"id"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type profileResponse struct {
	ID           uuid.UUID        `json:"id"`
	Login        string           `json:"login"`
	Status       model.UserStatus `json:"status"`
	StatusReason *string          `json:"statusReason,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	ID            *uuid.UUID       `json:"id,omitempty"`
	Login         string           `json:"login,omitempty"`
	Status        model.UserStatus `json:"status,omitempty"`
}

type changePasswordRequest struct {
	NewPassword string  `json:"newPassword"`
	OldPassword *string `json:"oldPassword"`
}

func toProfile(user model.User) profileResponse {
	return profileResponse{
		ID:           user.ID,
		Login:        user.Login,
		Status:       user.Status,
		StatusReason: user.StatusReason,
		CreatedAt:    user.CreatedAt,
	}
}

// Register handles POST /register.
func (h *Account) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	user, err := h.accountService.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ID: user.ID})
}

// Login handles POST /login and sets the session cookie.
func (h *Account) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	token, err := h.accountService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Session handles GET /session for possibly anonymous callers.
func (h *Account) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		ID:            &user.ID,
		Login:         user.Login,
		Status:        user.Status,
	})
}

// Profile handles GET /user.
func (h *Account) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProfile(user))
}

// ChangePassword handles PATCH /user/password.
func (h *Account) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := h.accountService.ChangePassword(r.Context(), user.ID, req.NewPassword, req.OldPassword); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangeLogin handles PATCH /user/login.
func (h *Account) ChangeLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := h.accountService.ChangeLogin(r.Context(), user.ID, req.Login, req.Password); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Account) currentUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		h.logger.Error("Account handler: no user in context",
			"path", r.URL.Path)
		WriteError(w, model.NewErrAuthorizationFailed(), h.logger)
		return model.User{}, false
	}
	return user, true
}
