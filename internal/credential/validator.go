package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/dtroode/finance-server/internal/model"
)

const (
	MinPasswordLength = 5
	MaxPasswordLength = 64
)

// LoginFinder looks users up by normalized login.
type LoginFinder interface {
	GetByLogin(ctx context.Context, login string) (model.User, error)
}

// Validator enforces login and password format rules.
type Validator struct {
	users    LoginFinder
	validate *validator.Validate
}

// NewValidator creates a Validator backed by the given user lookup.
func NewValidator(users LoginFinder) *Validator {
	return &Validator{
		users:    users,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NormalizeLogin lower-cases and trims a login.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// ValidateLogin checks the email shape of the normalized candidate and, for new
// logins, that no other user owns it.
func (v *Validator) ValidateLogin(ctx context.Context, candidate string, isNewLogin bool) error {
	login := NormalizeLogin(candidate)

	if err := v.validate.Var(login, "required,email"); err != nil {
		return model.NewErrInvalidLoginFormat(login)
	}

	if !isNewLogin {
		return nil
	}

	_, err := v.users.GetByLogin(ctx, login)
	switch {
	case err == nil:
		return model.NewErrLoginIsTaken(login)
	case errors.Is(err, model.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to look up login: %w", err)
	}
}

// ValidatePassword rejects blank passwords and those outside the length bounds.
func (v *Validator) ValidatePassword(plaintext string) error {
	if strings.TrimSpace(plaintext) == "" {
		return model.NewErrInvalidPasswordFormat()
	}

	n := utf8.RuneCountInString(plaintext)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return model.NewErrInvalidPasswordFormat()
	}

	return nil
}
