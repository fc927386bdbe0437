package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voiceguard/internal/analytics"
	"voiceguard/internal/bot"
	"voiceguard/internal/config"
	"voiceguard/internal/metrics"
	"voiceguard/internal/modules/audit"
	"voiceguard/internal/settings"
	"voiceguard/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "voiceguard",
		Short:        "Voice channel moderation for delegated moderators",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults to CONFIG_PATH or ./config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and enforce voice commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	root.AddCommand(permsCommand(), blockCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	if configPath != "" {
		_ = os.Setenv("CONFIG_PATH", configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	kv, closeSettings, err := settings.Open(context.Background(), cfg.Settings, store)
	if err != nil {
		logger.Fatal("settings init failed", zap.Error(err))
	}
	defer closeSettings()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	auditLogger := audit.NewLogger(store, logger)
	analyticsService := analytics.New(store)

	botSvc, err := bot.New(cfg, logger, store, kv, auditLogger, analyticsService, m)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started", zap.String("settings_backend", cfg.Settings.Backend))

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr, Handler: healthRouter(registry)}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
	return nil
}

func healthRouter(gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return router
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
