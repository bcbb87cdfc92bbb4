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

	"github.com/gorilla/sessions"
	"github.com/justsurfingit/job-board/internal/auth"
	"github.com/justsurfingit/job-board/internal/board"
	"github.com/justsurfingit/job-board/internal/config"
	"github.com/justsurfingit/job-board/internal/database"
	"github.com/justsurfingit/job-board/internal/handlers"
	"github.com/justsurfingit/job-board/internal/logging"
	"github.com/justsurfingit/job-board/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Example: `  # Start with settings from .env
  api serve

  # Start against an already migrated database
  DATABASE_URL=postgres://... api serve --skip-migrate`,
	RunE: runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer logging.Sync()

		if err := database.Migrate(db); err != nil {
			return err
		}
		logging.Info("Migration complete")
		return nil
	},
}

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Connect a Gmail account and store its OAuth token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return auth.Authorize(cmd.Context(), gmailFiles(cfg), os.Stdin, os.Stdout)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run schema migrations on startup")
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func gmailFiles(cfg *config.Config) auth.GmailFiles {
	return auth.GmailFiles{
		CredentialsFile: cfg.GmailCredentialsFile,
		TokenFile:       cfg.GmailTokenFile,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	if !skipMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applicationService := services.NewApplicationService(db)
	matcherService := services.NewMatcherService(applicationService)

	var llmService *services.LLMService
	if cfg.LLMEnabled() {
		llmService, err = services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logging.Warn("LLM disabled", zap.Error(err))
		}
	} else {
		logging.Warn("GEMINI_API_KEY not set, extraction and mail analysis disabled")
	}

	authState := auth.NewBroadcaster()
	go func() {
		gmailService := auth.Bootstrap(ctx, gmailFiles(cfg), authState)
		if gmailService == nil || llmService == nil {
			return
		}
		emailService := services.NewEmailService(db, llmService, gmailService, applicationService, matcherService)
		emailService.StartWatcher(ctx, cfg.EmailSyncInterval)
	}()

	registry := board.NewRegistry(applicationService, authState, cfg.SessionIdleTTL)
	go registry.RunSweeper(ctx, cfg.SessionIdleTTL/2)

	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionIdleTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	// A nil *LLMService must not reach the handler as a non-nil interface.
	var extractor handlers.PostingExtractor
	if llmService != nil {
		extractor = llmService
	}

	router := &handlers.Router{
		Applications:   handlers.NewApplicationHandler(applicationService, extractor),
		Board:          handlers.NewBoardHandler(registry, cookieStore),
		Health:         handlers.NewHealthHandler(func(ctx context.Context) error { return database.Ping(ctx, db) }, authState),
		AllowedOrigins: cfg.AllowedOrigins(),
	}
	engine, err := router.Engine()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
