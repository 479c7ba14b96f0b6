// Package main initializes and starts the FlashVocab sync server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/config"
	"github.com/atinyakov/FlashVocab/internal/db"
	"github.com/atinyakov/FlashVocab/internal/logger"
	"github.com/atinyakov/FlashVocab/internal/repository"
	"github.com/atinyakov/FlashVocab/internal/server/handler/http"
	"github.com/atinyakov/FlashVocab/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	upstreamTimeout = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	// Parse command-line, .env and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Purge soft-deleted words and expired sessions in the background.
	db.StartSoftDeleteCleaner(ctx, postgresDB,
		options.CleanupInterval,
		options.CleanupRetention,
		zapLogger,
	)

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	wordRepo := repository.NewPostgresWordRepository(postgresDB)
	telegramRepo := repository.NewPostgresTelegramRepository(postgresDB)

	// Initialize business-logic services.
	upstream := &nethttp.Client{Timeout: upstreamTimeout}
	authService := service.NewAuthService(authRepo)
	wordService := service.NewWordService(wordRepo)
	telegramService := service.NewTelegramService(telegramRepo, options.TelegramURL, upstream, zapLogger)
	lookupService := service.NewLookupService(options.TranslateURL, options.DictionaryURL, upstream, zapLogger)

	// Create HTTP handlers and build the router.
	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService},
		&http.WordHandler{WordService: wordService},
		&http.TelegramHandler{TelegramService: telegramService},
		&http.LookupHandler{LookupService: lookupService},
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLS() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
