package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	grpcRouter "github.com/dtroode/finance-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/finance-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/finance-server/internal/api/http/context"
	"github.com/dtroode/finance-server/internal/api/http/handler"
	httpRouter "github.com/dtroode/finance-server/internal/api/http/router"
	httpServer "github.com/dtroode/finance-server/internal/api/http/server"
	"github.com/dtroode/finance-server/internal/audit"
	"github.com/dtroode/finance-server/internal/config"
	"github.com/dtroode/finance-server/internal/credential"
	"github.com/dtroode/finance-server/internal/logger"
	"github.com/dtroode/finance-server/internal/model"
	"github.com/dtroode/finance-server/internal/password"
	"github.com/dtroode/finance-server/internal/repository/postgres"
	"github.com/dtroode/finance-server/internal/server"
	"github.com/dtroode/finance-server/internal/service"
	storage "github.com/dtroode/finance-server/internal/storage/minio"
	"github.com/dtroode/finance-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	conn, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer conn.Close()

	journal, err := newAuditJournal(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize audit storage", "error", err)
	}

	userRepo := postgres.NewUserRepository(conn.DB)
	hasher := password.NewBcrypt(cfg.Password.BcryptCost)
	validator := credential.NewValidator(userRepo)
	issuer := token.NewSessionIssuer(cfg.Session.TokenSecret)
	serviceTokens := token.NewServiceJWT(cfg.System.Secret, cfg.System.AllowedServices, cfg.System.TokenTTL)

	accountService := service.NewAccount(userRepo, validator, hasher, issuer, journal, logger)
	authorizer := service.NewAuthorizer(userRepo, logger)

	restHandler := httpRouter.New(
		accountService,
		accountService,
		authorizer,
		serviceTokens,
		httpctx.NewManager(),
		conn,
		handler.CookieOptions{Name: cfg.HTTP.SessionCookie, Secure: cfg.HTTP.EnableHTTPS},
		logger,
	).Register()

	grpcSrv, healthSrv := grpcRouter.New(logger).Register()

	servers := []model.Server{
		httpServer.NewHTTPServer(restHandler, fmt.Sprintf(":%s", cfg.HTTP.Port)),
		grpcServer.NewGRPCServer(grpcSrv, healthSrv, fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}

	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			err := s.Start(sl)
			if err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func newAuditJournal(ctx context.Context, cfg config.Storage) (model.AuditJournal, error) {
	if !cfg.Enabled {
		return audit.Noop{}, nil
	}

	client, err := storage.Connect(ctx, storage.Options{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return audit.NewJournal(client), nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
