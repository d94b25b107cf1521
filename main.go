package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/pkg/config"
	"github.com/FACorreiaa/go-dogwalks/internal/server"
	"github.com/FACorreiaa/go-dogwalks/pkg/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, cfg.IsDevelopment(),
		zap.String("service", cfg.Observability.ServiceName),
		zap.String("env", cfg.Env),
		zap.String("version", version),
	); err != nil {
		return err
	}
	l := logger.Log
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := server.InitObservability(cfg.Observability, version, l)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			l.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer srv.Close()

	router, err := server.SetupRouter(srv.Deps(), cfg)
	if err != nil {
		return err
	}
	srv.SetRouter(router)

	if cfg.IsDevelopment() && cfg.Observability.PprofAddr != "" {
		pprofSrv := server.NewPprofServer(cfg.Observability.PprofAddr)
		server.StartPprofServer(pprofSrv, l)
		defer func() { _ = pprofSrv.Close() }()
	}

	if err := server.Serve(ctx, srv.HTTPServer(), l, stop); err != nil {
		l.Error("Server error", zap.Error(err))
		return err
	}

	l.Info("Graceful shutdown complete")
	return nil
}
