package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"destinpq/internal/casestudy"
	"destinpq/internal/config"
	"destinpq/internal/database"
	"destinpq/internal/server"
	"destinpq/internal/services"
	"destinpq/internal/web"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := newLogger(cfg.App.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.Bool("debug", cfg.App.Debug),
	)
	if cfg.Auth.SecretKey == "" {
		logger.Warn("SECRET_KEY is not set; catalog sync is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Init(logger); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	conn := database.GetDB()
	defer func() {
		logger.Info("closing database connections")
		if err := database.Close(conn); err != nil {
			logger.Warn("error closing database", zap.Error(err))
		}
	}()

	catalog := services.NewCatalogService(conn, logger)
	bundled, err := casestudy.Bundled()
	if err != nil {
		return err
	}
	if seeded, err := catalog.SeedIfEmpty(ctx, bundled); err != nil {
		return fmt.Errorf("failed to seed case studies: %w", err)
	} else if seeded {
		logger.Info("seeded case study catalog", zap.Int("count", len(bundled)))
	}

	sheet := casestudy.NewSheetSource(cfg.Sheets, nil)
	caseStudies := services.NewCaseStudyService(catalog, sheet, logger)
	mailer := services.NewEmailService(&cfg.Email, logger)
	if !mailer.IsEnabled() {
		logger.Warn("email delivery is disabled; messages are only logged")
	}
	support := services.NewSupportService(mailer, &cfg.Email, logger)
	pages, err := web.NewRenderer(caseStudies, cfg.Email.SupportAddress, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Config:      cfg,
		CaseStudies: caseStudies,
		Support:     support,
		Health:      services.NewHealthService(conn, cfg.App.Name, cfg.App.Version),
		Pages:       pages,
		Logger:      logger,
	})

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("shutdown timeout exceeded, forcing close")
			_ = httpServer.Close()
		}
		srv.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// validateConfig validates critical configuration values
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.SecretKey != "" && len(cfg.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters for security")
	}
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	return nil
}
