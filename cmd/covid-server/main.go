package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Smoyabi/Covid19-Analysis/internal/api"
	"github.com/Smoyabi/Covid19-Analysis/internal/config"
	"github.com/Smoyabi/Covid19-Analysis/internal/store"
	"github.com/Smoyabi/Covid19-Analysis/internal/telemetry"
	"github.com/Smoyabi/Covid19-Analysis/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("covid-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"data_path", cfg.Data.Path,
		"watch", cfg.Data.Watch,
		"auth_mode", cfg.Server.Auth.Mode,
		"stream_interval", cfg.Stream.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One-shot load of the source file. A failure here is not fatal: the
	// server starts with the empty table and every view degrades to "no data".
	st := store.New()
	if err := st.Reload(cfg.Data.Path); err != nil {
		slog.Error("initial load failed — starting with empty dataset",
			"path", cfg.Data.Path, "err", err)
	}

	// Optional: refresh the table when the source file is rewritten.
	if cfg.Data.Watch {
		go func() {
			if err := st.Watch(ctx, cfg.Data.Path); err != nil {
				slog.Error("source watch unavailable", "path", cfg.Data.Path, "err", err)
			}
		}()
	}

	// WebSocket hub — pushes the dataset overview to dashboard clients.
	hub := ws.New(st, cfg.Stream.Interval)
	go hub.Run(ctx)

	// Combined HTTP server: JSON API (behind optional API-key auth),
	// WebSocket stream, and Prometheus metrics.
	auth := cfg.Server.Auth
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.APIKey(auth.Mode, auth.EffectiveHeader(), auth.Key(), api.New(st)))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", telemetry.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("covid-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
