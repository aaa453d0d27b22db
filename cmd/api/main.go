package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jewelconnect/internal/config"
	"jewelconnect/internal/logger"
	"jewelconnect/internal/server"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Initialize(os.Getenv("APP_ENV"))
		logger.Log.Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.Initialize(cfg.Env)
	defer logger.Sync()

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := server.NewApp(startCtx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		log.Fatal("failed to start background workers", zap.Error(err))
	}
	errs := make(chan error, 1)
	go func() {
		errs <- app.Serve()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errs:
		if err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}

	log.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	log.Info("server exiting")
}
