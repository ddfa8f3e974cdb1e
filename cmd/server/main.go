package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/config"
	"github.com/souenergy/cotacao-backend/internal/repository/mongodb"
	"github.com/souenergy/cotacao-backend/internal/server/handlers"
	"github.com/souenergy/cotacao-backend/internal/server/router"
	authsvc "github.com/souenergy/cotacao-backend/internal/service/auth"
	exportsvc "github.com/souenergy/cotacao-backend/internal/service/export"
	intakesvc "github.com/souenergy/cotacao-backend/internal/service/intake"
	"github.com/souenergy/cotacao-backend/internal/storage/local"
	"github.com/souenergy/cotacao-backend/pkg/clients/mailer"
	"github.com/souenergy/cotacao-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	repo, err := mongodb.NewQuotationRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	store, err := local.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		baseLogger.Fatal("failed to init upload storage", zap.Error(err))
	}

	var mailClient mailer.Client
	if cfg.SMTP.Enabled() {
		mailClient = mailer.NewClient(cfg.SMTP)
		baseLogger.Info("smtp notifications enabled", zap.String("notify_email", cfg.SMTP.NotifyEmail))
	} else {
		baseLogger.Warn("smtp host missing, admin notifications disabled")
	}

	authService, err := authsvc.NewService(cfg.Auth, baseLogger.Named("svc.auth"))
	if err != nil {
		baseLogger.Fatal("failed to init auth service", zap.Error(err))
	}
	intakeService := intakesvc.NewService(repo, store, mailClient, baseLogger.Named("svc.intake"))
	exportService := exportsvc.NewService(repo, baseLogger.Named("svc.export"))

	engine := router.New(router.Handlers{
		Auth:      handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
		Quotation: handlers.NewQuotationHandler(intakeService, repo, baseLogger.Named("handlers.quotation")),
		Image:     handlers.NewImageHandler(store, baseLogger.Named("handlers.image")),
		Export:    handlers.NewExportHandler(exportService, baseLogger.Named("handlers.export")),
	}, authService, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
