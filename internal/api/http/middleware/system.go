package middleware

import (
	"net/http"

	"github.com/dtroode/finance-server/internal/api/http/handler"
	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

// System admits only requests carrying a valid service credential.
type System struct {
	tokens model.ServiceTokenManager
	logger *logger.Logger
}

func NewSystem(tokens model.ServiceTokenManager, logger *logger.Logger) *System {
	return &System{tokens: tokens, logger: logger}
}

func (m *System) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			m.logger.Info("System middleware: missing service credential",
				"path", r.URL.Path)
			handler.WriteError(w, model.NewErrSystemCredential(), m.logger)
			return
		}

		service, err := m.tokens.ParseServiceToken(token)
		if err != nil {
			m.logger.Warn("System middleware: service credential rejected",
				"path", r.URL.Path,
				"error", err.Error())
			handler.WriteError(w, model.NewErrSystemCredential(), m.logger)
			return
		}

		m.logger.Debug("System middleware: service authorized",
			"service", service,
			"path", r.URL.Path)

		ctx := model.WithActor(r.Context(), "service:"+service)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
