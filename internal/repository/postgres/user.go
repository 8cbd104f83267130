package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/finance-server/internal/model"
)

const (
	uniqueViolation = "23505"
	loginConstraint = "users_login_key"
)

const userColumns = `id, login, password_hash, session_token, status, status_reason, created_at, updated_at`

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user   model.User
		token  sql.NullString
		reason sql.NullString
		status string
	)

	err := row.Scan(&user.ID, &user.Login, &user.PasswordHash, &token, &status, &reason,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}

	user.SessionToken = token.String
	user.Status = model.UserStatus(status)
	if reason.Valid {
		user.StatusReason = &reason.String
	}

	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, what, query string, arg any) (model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by %s: %w", what, err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "id", query, id)
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`
	return r.getOne(ctx, "login", query, login)
}

// GetByToken matches the stored session token exactly. Empty tokens never match.
func (r *UserRepository) GetByToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, model.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE session_token = $1`
	return r.getOne(ctx, "token", query, token)
}

// Save upserts the user in a single statement.
func (r *UserRepository) Save(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (id) DO UPDATE SET
			      login = EXCLUDED.login,
			      password_hash = EXCLUDED.password_hash,
			      session_token = EXCLUDED.session_token,
			      status = EXCLUDED.status,
			      status_reason = EXCLUDED.status_reason,
			      updated_at = EXCLUDED.updated_at
			  RETURNING ` + userColumns

	token := sql.NullString{String: user.SessionToken, Valid: user.SessionToken != ""}
	reason := sql.NullString{}
	if user.StatusReason != nil {
		reason = sql.NullString{String: *user.StatusReason, Valid: true}
	}

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Login, user.PasswordHash, token, string(user.Status), reason,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == loginConstraint {
			return model.User{}, model.ErrLoginTaken
		}
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	return saved, nil
}
