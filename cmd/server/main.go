package main

import (
	"NoteKeeper/internal/bootstrap"
	"NoteKeeper/internal/config"
	"NoteKeeper/internal/handlers"
	"NoteKeeper/internal/mailer"
	"NoteKeeper/internal/middleware"
	"NoteKeeper/internal/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	storage, err := bootstrap.OpenStorage(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize storage", "error", err)
	}
	defer func() {
		closeCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := storage.Close(closeCtx); err != nil {
			sugar.Errorw("failed to close storage", "error", err)
		}
	}()

	var resetMailer service.ResetMailer = mailer.NewLogMailer(sugar)
	if cfg.SMTPHost != "" {
		resetMailer = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	itemService := service.NewItemService(storage.Items, storage.Users, storage.Blobs, sugar, service.WithLocation(cfg.Location()))
	userService := service.NewUserService(storage.Users, storage.Items, resetMailer, sugar, cfg.FrontendURL)

	h := handlers.NewHandler(userService, itemService, sugar, cfg)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow("Starting server", "addr", srv.Addr)
	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"BlobBackend", cfg.BlobBackend,
		"BlobMaxSizeMB", cfg.BlobMaxSizeMB,
		"TokenTTL", cfg.TokenTTL,
		"SMTP", cfg.SMTPHost != "",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			sugar.Errorw("Server failed", "error", err)
		}
	case <-ctx.Done():
		sugar.Infow("Shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Graceful shutdown failed", "error", err)
		}
	}
}
