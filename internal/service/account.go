package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/finance-server/internal/credential"
	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

// Account runs the account lifecycle: registration, login, activation,
// blocking and credential changes.
type Account struct {
	userStore model.UserStore
	validator *credential.Validator
	hasher    model.PasswordHasher
	issuer    model.TokenIssuer
	journal   model.AuditJournal
	logger    *logger.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAccount(
	userStore model.UserStore,
	validator *credential.Validator,
	hasher model.PasswordHasher,
	issuer model.TokenIssuer,
	journal model.AuditJournal,
	logger *logger.Logger,
) *Account {
	return &Account{
		userStore: userStore,
		validator: validator,
		hasher:    hasher,
		issuer:    issuer,
		journal:   journal,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a user awaiting activation.
func (a *Account) Register(ctx context.Context, login, password string) (model.User, error) {
	login = credential.NormalizeLogin(login)

	a.logger.Debug("Account service: registering user",
		"login", login)

	if err := a.validator.ValidateLogin(ctx, login, true); err != nil {
		a.logger.Info("Account service: login rejected",
			"login", login,
			"error", err.Error())
		return model.User{}, err
	}

	if err := a.validator.ValidatePassword(password); err != nil {
		a.logger.Info("Account service: password rejected",
			"login", login)
		return model.User{}, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.Error("Account service: failed to hash password",
			"login", login,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now().UTC()
	user, err := a.save(ctx, model.User{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: hash,
		Status:       model.StatusAwaitsActivation,
		StatusReason: pendingReason(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.User{}, err
	}

	a.logger.Info("Account service: user registered",
		"user_id", user.ID,
		"login", user.Login)
	a.audit(ctx, user, model.AuditRegistered)

	return user, nil
}

// Login checks credentials and returns the session token of an active account.
func (a *Account) Login(ctx context.Context, login, password string) (string, error) {
	login = credential.NormalizeLogin(login)

	a.logger.Debug("Account service: logging in",
		"login", login)

	user, err := a.userStore.GetByLogin(ctx, login)
	if errors.Is(err, model.ErrNotFound) {
		// keeps response time close to the wrong password case
		a.hasher.Verify(password, a.fakeHash())
		a.logger.Info("Account service: unknown login",
			"login", login)
		return "", model.NewErrInvalidCredentials()
	}
	if err != nil {
		a.logger.Error("Account service: failed to get user by login",
			"login", login,
			"error", err.Error())
		return "", fmt.Errorf("failed to get user by login: %w", err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		a.logger.Info("Account service: wrong password",
			"user_id", user.ID)
		return "", model.NewErrInvalidCredentials()
	}

	if !user.IsActive() {
		a.logger.Info("Account service: login to inactive account",
			"user_id", user.ID,
			"status", user.Status)
		return "", model.NewErrAccessDenied(user.Status)
	}

	if user.SessionToken == "" {
		user.SessionToken = a.issuer.Issue(user.Login, user.PasswordHash)
		user.UpdatedAt = a.now().UTC()
		if user, err = a.save(ctx, user); err != nil {
			return "", err
		}
	}

	a.logger.Info("Account service: user logged in",
		"user_id", user.ID)

	return user.SessionToken, nil
}

// Activate moves an account awaiting activation to active and mints its token.
func (a *Account) Activate(ctx context.Context, userID uuid.UUID) error {
	user, err := a.get(ctx, userID)
	if err != nil {
		return err
	}

	if user.Status != model.StatusAwaitsActivation {
		a.logger.Info("Account service: activation not required",
			"user_id", userID,
			"status", user.Status)
		return model.NewErrActivationNotRequired(userID)
	}

	user.Status = model.StatusActive
	user.StatusReason = nil
	user.SessionToken = a.issuer.Issue(user.Login, user.PasswordHash)
	user.UpdatedAt = a.now().UTC()

	if user, err = a.save(ctx, user); err != nil {
		return err
	}

	a.logger.Info("Account service: user activated",
		"user_id", userID)
	a.audit(ctx, user, model.AuditActivated)

	return nil
}

// Block blocks any account that is not blocked yet. The stored token is kept
// but no longer authorizes.
func (a *Account) Block(ctx context.Context, userID uuid.UUID, reason *string) error {
	user, err := a.get(ctx, userID)
	if err != nil {
		return err
	}

	if user.Status == model.StatusBlocked {
		a.logger.Info("Account service: user already blocked",
			"user_id", userID)
		return model.NewErrAlreadyBlocked(userID)
	}

	user.Status = model.StatusBlocked
	user.StatusReason = reason
	user.UpdatedAt = a.now().UTC()

	if user, err = a.save(ctx, user); err != nil {
		return err
	}

	a.logger.Info("Account service: user blocked",
		"user_id", userID)
	a.audit(ctx, user, model.AuditBlocked)

	return nil
}

// Unblock reactivates a blocked account. The previous token is honored again.
func (a *Account) Unblock(ctx context.Context, userID uuid.UUID, reason *string) error {
	user, err := a.get(ctx, userID)
	if err != nil {
		return err
	}

	if user.Status != model.StatusBlocked {
		a.logger.Info("Account service: user is not blocked",
			"user_id", userID,
			"status", user.Status)
		return model.NewErrNotBlocked(userID)
	}

	user.Status = model.StatusActive
	user.StatusReason = reason
	// blocked before it was ever activated
	if user.SessionToken == "" {
		user.SessionToken = a.issuer.Issue(user.Login, user.PasswordHash)
	}
	user.UpdatedAt = a.now().UTC()

	if user, err = a.save(ctx, user); err != nil {
		return err
	}

	a.logger.Info("Account service: user unblocked",
		"user_id", userID)
	a.audit(ctx, user, model.AuditUnblocked)

	return nil
}

// ChangePassword replaces the password hash. When oldPassword is given it must
// match. A minted token is re-derived from the new hash so the old value stops matching.
func (a *Account) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string, oldPassword *string) error {
	user, err := a.get(ctx, userID)
	if err != nil {
		return err
	}

	if oldPassword != nil && !a.hasher.Verify(*oldPassword, user.PasswordHash) {
		a.logger.Info("Account service: old password mismatch",
			"user_id", userID)
		return model.NewErrPasswordMismatch()
	}

	if err := a.validator.ValidatePassword(newPassword); err != nil {
		a.logger.Info("Account service: new password rejected",
			"user_id", userID)
		return err
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		a.logger.Error("Account service: failed to hash password",
			"user_id", userID,
			"error", err.Error())
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	if user.SessionToken != "" {
		user.SessionToken = a.issuer.Issue(user.Login, hash)
	}
	user.UpdatedAt = a.now().UTC()

	if user, err = a.save(ctx, user); err != nil {
		return err
	}

	a.logger.Info("Account service: password changed",
		"user_id", userID)
	a.audit(ctx, user, model.AuditPasswordChanged)

	return nil
}

// ChangeLogin sets a new login after checking the current password. The
// account goes back to awaiting activation and loses its token.
func (a *Account) ChangeLogin(ctx context.Context, userID uuid.UUID, newLogin, password string) error {
	user, err := a.get(ctx, userID)
	if err != nil {
		return err
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		a.logger.Info("Account service: password mismatch on login change",
			"user_id", userID)
		return model.NewErrPasswordMismatch()
	}

	newLogin = credential.NormalizeLogin(newLogin)
	if err := a.validator.ValidateLogin(ctx, newLogin, true); err != nil {
		a.logger.Info("Account service: new login rejected",
			"user_id", userID,
			"login", newLogin,
			"error", err.Error())
		return err
	}

	user.Login = newLogin
	user.Status = model.StatusAwaitsActivation
	user.StatusReason = pendingReason()
	user.SessionToken = ""
	user.UpdatedAt = a.now().UTC()

	if user, err = a.save(ctx, user); err != nil {
		return err
	}

	a.logger.Info("Account service: login changed",
		"user_id", userID,
		"login", newLogin)
	a.audit(ctx, user, model.AuditLoginChanged)

	return nil
}

func (a *Account) get(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Account service: user not found",
			"user_id", userID)
		return model.User{}, model.NewErrUserNotFound(userID)
	}
	if err != nil {
		a.logger.Error("Account service: failed to get user",
			"user_id", userID,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (a *Account) save(ctx context.Context, user model.User) (model.User, error) {
	saved, err := a.userStore.Save(ctx, user)
	if errors.Is(err, model.ErrLoginTaken) {
		a.logger.Info("Account service: login taken on save",
			"user_id", user.ID,
			"login", user.Login)
		return model.User{}, model.NewErrLoginIsTaken(user.Login)
	}
	if err != nil {
		a.logger.Error("Account service: failed to save user",
			"user_id", user.ID,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}
	return saved, nil
}

func (a *Account) audit(ctx context.Context, user model.User, event model.AuditEventType) {
	err := a.journal.Record(ctx, model.AuditEvent{
		UserID:     user.ID,
		Type:       event,
		Status:     user.Status,
		Reason:     user.StatusReason,
		Actor:      model.ActorFromContext(ctx),
		OccurredAt: user.UpdatedAt,
	})
	if err != nil {
		a.logger.Warn("Account service: failed to record audit event",
			"user_id", user.ID,
			"event", event,
			"error", err.Error())
	}
}

// fakeHash returns a hash of a throwaway password, produced by the configured hasher.
func (a *Account) fakeHash() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash(uuid.NewString())
		if err != nil {
			a.logger.Error("Account service: failed to prepare dummy hash",
				"error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	return a.dummyHash
}

func pendingReason() *string {
	reason := model.ReasonPendingVerification
	return &reason
}
