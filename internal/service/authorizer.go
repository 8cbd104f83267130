package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

// Authorizer resolves session tokens to active users.
type Authorizer struct {
	userStore model.UserStore
	logger    *logger.Logger
}

func NewAuthorizer(userStore model.UserStore, logger *logger.Logger) *Authorizer {
	return &Authorizer{
		userStore: userStore,
		logger:    logger,
	}
}

// Authorize returns the active user owning token. Unknown tokens and tokens of
// inactive accounts both fail as unauthorized.
func (a *Authorizer) Authorize(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, model.NewErrAuthorizationFailed()
	}

	user, err := a.userStore.GetByToken(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Debug("Authorizer: unknown session token")
		return model.User{}, model.NewErrAuthorizationFailed()
	}
	if err != nil {
		a.logger.Error("Authorizer: failed to get user by token",
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by token: %w", err)
	}

	if !user.IsActive() {
		a.logger.Info("Authorizer: token of inactive account",
			"user_id", user.ID,
			"status", user.Status)
		return model.User{}, model.NewErrAccountNotActive(user.Status)
	}

	return user, nil
}

// AuthorizeOptional is Authorize for anonymous-tolerant callers: any failure
// yields no user.
func (a *Authorizer) AuthorizeOptional(ctx context.Context, token string) (model.User, bool) {
	user, err := a.Authorize(ctx, token)
	if err != nil {
		if model.KindOf(err) != model.KindUnauthorized {
			a.logger.Warn("Authorizer: optional authorization failed",
				"error", err.Error())
		}
		return model.User{}, false
	}
	return user, true
}
