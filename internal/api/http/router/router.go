package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/finance-server/internal/api/http/handler"
	"github.com/dtroode/finance-server/internal/api/http/middleware"
	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
)

// Router builds the REST API.
type Router struct {
	accountService   handler.AccountService
	lifecycleService handler.LifecycleService
	authorizer       middleware.SessionAuthorizer
	serviceTokens    model.ServiceTokenManager
	contextManager   model.ContextManager
	db               handler.Pinger
	cookie           handler.CookieOptions
	logger           *logger.Logger
}

func New(
	accountService handler.AccountService,
	lifecycleService handler.LifecycleService,
	authorizer middleware.SessionAuthorizer,
	serviceTokens model.ServiceTokenManager,
	contextManager model.ContextManager,
	db handler.Pinger,
	cookie handler.CookieOptions,
	logger *logger.Logger,
) *Router {
	return &Router{
		accountService:   accountService,
		lifecycleService: lifecycleService,
		authorizer:       authorizer,
		serviceTokens:    serviceTokens,
		contextManager:   contextManager,
		db:               db,
		cookie:           cookie,
		logger:           logger,
	}
}

// Register wires middleware and routes.
func (rt *Router) Register() http.Handler {
	logging := middleware.NewLogging(rt.logger)
	authenticate := middleware.NewAuthenticate(rt.authorizer, rt.contextManager, rt.cookie.Name, rt.logger)
	system := middleware.NewSystem(rt.serviceTokens, rt.logger)

	account := handler.NewAccount(rt.accountService, rt.contextManager, rt.cookie, rt.logger)
	lifecycle := handler.NewSystem(rt.lifecycleService, rt.logger)
	health := handler.NewHealth(rt.db, rt.logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(logging.Handle)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", health.Serve)
	r.Post("/register", account.Register)
	r.Post("/login", account.Login)

	r.With(authenticate.Optional).Get("/session", account.Session)

	r.Route("/user", func(r chi.Router) {
		r.Use(authenticate.Required)
		r.Get("/", account.Profile)
		r.Patch("/password", account.ChangePassword)
		r.Patch("/login", account.ChangeLogin)
	})

	r.Route("/system/user", func(r chi.Router) {
		r.Use(system.Handle)
		r.Post("/activate", lifecycle.Activate)
		r.Post("/block", lifecycle.Block)
		r.Post("/unblock", lifecycle.Unblock)
	})

	return r
}
