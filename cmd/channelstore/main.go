package main

import (
	"context"
	"net/http"
	"os"

	"github.com/relayops/channelstore/pkg/api"
	"github.com/relayops/channelstore/pkg/auth"
	"github.com/relayops/channelstore/pkg/channels"
	"github.com/relayops/channelstore/pkg/config"
	"github.com/relayops/channelstore/pkg/observability"
	"github.com/relayops/channelstore/pkg/orgs"
	"github.com/relayops/channelstore/pkg/storage"
	"github.com/relayops/channelstore/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	ctx := context.Background()

	var (
		docStore   store.Store
		mongoStore *store.MongoStore
	)
	if cfg.Database.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		mongoStore, err = store.NewMongoStore(connectCtx, cfg.Database.MongoURI, cfg.Database.MongoDatabase)
		cancel()
		if err != nil {
			logger.WithError(err).Error("mongo connection failed")
			os.Exit(1)
		}
		docStore = mongoStore
		logger.WithField("database", cfg.Database.MongoDatabase).Info("connected to mongo")
	} else {
		docStore = store.NewMemoryStore()
		logger.Warn("no mongo uri configured, using in-memory store")
	}

	factory, err := storage.NewFactory(ctx, cfg.Storage, logger, metrics)
	if err != nil {
		logger.WithError(err).Error("storage initialization failed")
		os.Exit(1)
	}
	logger.WithFields(map[string]any{
		"local_root": cfg.Storage.LocalRoot,
		"locations":  factory.Locations(),
	}).Info("storage initialized")

	orgSvc := orgs.NewService(docStore, logger)
	channelSvc := channels.NewService(docStore, factory, auth.AllowAll{}, cfg.Limits, logger, metrics)
	server := api.NewServer(orgSvc, channelSvc, logger)

	// Payload cap plus headroom for the JSON envelope around the content.
	maxBody := int64(cfg.Limits.MaxVersionSizeMB)*1024*1024*2 + 64*1024

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(maxBody),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	go func() {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("api server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("api server failed")
			os.Exit(1)
		}
	}()

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.Register(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	if mongoStore != nil {
		shutdown.Register(func(ctx context.Context) error {
			return mongoStore.Disconnect(ctx)
		})
	}
	if err := shutdown.Wait(); err != nil {
		os.Exit(1)
	}
}
