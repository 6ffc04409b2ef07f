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

	"BizCard/internal/config"
	"BizCard/internal/handlers"
	"BizCard/internal/logger"
	"BizCard/internal/middleware"
	"BizCard/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()

	if cfg.Version {
		fmt.Printf("BizCard relay\nVersion: %s\nBuild date: %s\n", version, buildDate)
		return
	}

	// делаем регистратор SugaredLogger
	sugar, err := logger.New(cfg.LogLevelOr("info"))
	if err != nil {
		panic(err)
	}
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = sugar.Sync()
	}()

	//context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	extractor, err := service.NewGeminiExtractor(ctx, cfg, nil, sugar)
	if err != nil {
		sugar.Fatalw("failed to create model client", "error", err)
	}
	if !extractor.Configured() {
		sugar.Warnw("GEMINI_API_KEY is empty: /api/extract will answer 500")
	}

	h := handlers.NewHandler(extractor, sugar, cfg)

	addr := cfg.BaseURL
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"GeminiModel", cfg.GeminiModel,
		"MaxImageMB", cfg.MaxImageMB,
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}
