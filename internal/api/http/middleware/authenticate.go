package middleware

import (
	"context"
	"net/http"

	"github.com/dtroode/finance-server/internal/api/http/handler"
	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

// SessionAuthorizer resolves session tokens to active users.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, token string) (model.User, error)
	AuthorizeOptional(ctx context.Context, token string) (model.User, bool)
}

// Authenticate resolves the session token of a request, taken from the
// bearer header or, failing that, the session cookie.
type Authenticate struct {
	authorizer     SessionAuthorizer
	contextManager model.ContextManager
	cookieName     string
	logger         *logger.Logger
}

func NewAuthenticate(authorizer SessionAuthorizer, contextManager model.ContextManager, cookieName string, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		authorizer:     authorizer,
		contextManager: contextManager,
		cookieName:     cookieName,
		logger:         logger,
	}
}

func (m *Authenticate) token(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Required rejects requests without a token of an active account.
func (m *Authenticate) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authorizer.Authorize(r.Context(), m.token(r))
		if err != nil {
			m.logger.Debug("Authenticate middleware: request rejected",
				"path", r.URL.Path,
				"error", err.Error())
			handler.WriteError(w, err, m.logger)
			return
		}

		ctx := m.contextManager.SetUserToContext(r.Context(), user)
		ctx = model.WithActor(ctx, "user:"+user.ID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches the user when the token resolves and lets anonymous
// requests through otherwise.
func (m *Authenticate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if user, ok := m.authorizer.AuthorizeOptional(ctx, m.token(r)); ok {
			ctx = m.contextManager.SetUserToContext(ctx, user)
			ctx = model.WithActor(ctx, "user:"+user.ID.String())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
