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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrisense/agri-api/internal/advice"
	"github.com/agrisense/agri-api/internal/config"
	"github.com/agrisense/agri-api/internal/handlers"
	"github.com/agrisense/agri-api/internal/logger"
	"github.com/agrisense/agri-api/internal/metrics"
	"github.com/agrisense/agri-api/internal/model"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("loading model", zap.String("path", cfg.Model.Path))

	classifier, err := model.Load(model.Options{
		ModelPath:  cfg.Model.Path,
		LibPath:    cfg.Model.LibPath,
		InputName:  cfg.Model.InputName,
		OutputName: cfg.Model.OutputName,
	}, log)
	if err != nil {
		return err
	}
	defer classifier.Close()

	client := advice.New(advice.Options{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, log)

	metrics.Register()

	h := handlers.NewHandler(classifier, advice.NewService(client, log),
		handlers.Options{MaxUploadSize: cfg.App.MaxUploadSize}, log)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handlers.NewRouter(h, cfg.App.CORSOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("address", srv.Addr),
			zap.Strings("cors_origins", cfg.App.CORSOrigins),
			zap.Bool("advice_enabled", client.Enabled()),
			zap.Strings("endpoints", []string{
				"GET /", "GET /health", "GET /metrics",
				"POST /api/agri/predict", "POST /api/agri/chat",
			}))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
