// Package main runs the coin feed server:
// - /ws: live envelope feed, bootstrap snapshot on connect
// - /ingest/{kind}: write path used by the chain indexer
// - /bootstrap, /health, /status, /metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"coin-feed/internal/bootstrap"
	"coin-feed/internal/config"
	"coin-feed/internal/event"
	"coin-feed/internal/feed"
	"coin-feed/internal/observability"
	"coin-feed/internal/publish"
	"coin-feed/internal/storage"
	chstore "coin-feed/internal/storage/clickhouse"
	"coin-feed/internal/storage/migrations"
	pgstore "coin-feed/internal/storage/postgres"
)

// Server holds all components of the feed service.
type Server struct {
	cfg     config.Config
	log     *logrus.Logger
	metrics *observability.Metrics

	boot     *bootstrap.Service
	hub      *feed.Hub
	recorder *feed.Recorder

	started time.Time
}

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server failed")
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	stores, content, archive, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("", prometheus.DefaultRegisterer)
	boot := bootstrap.NewService(content)

	hubCfg := feed.DefaultHubConfig()
	hubCfg.SendBuffer = cfg.WSSendBuffer
	hubCfg.FrameRate = cfg.WSFrameRate
	hubCfg.FrameBurst = cfg.WSFrameBurst
	hub := feed.NewHub(hubCfg, boot, logger, metrics)

	publishers := publish.MultiPublisher{hub}
	if cfg.NATSURL != "" {
		natsPub, err := publish.NewNATSPublisher(cfg.NATSURL,
			nats.Name("coin-feed-server"),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return err
		}
		publishers = append(publishers, natsPub)
		logger.WithField("url", cfg.NATSURL).Info("publishing envelopes to NATS")
	}
	defer publishers.Close()

	recorder := feed.NewRecorder(stores, publishers, logger, metrics)
	if archive != nil {
		recorder.WithArchive(archive)
	}

	s := &Server{
		cfg:      cfg,
		log:      logger,
		metrics:  metrics,
		boot:     boot,
		hub:      hub,
		recorder: recorder,
		started:  time.Now(),
	}

	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// createStores connects storage backends and applies migrations if asked.
// archive is nil unless a ClickHouse DSN is configured.
func createStores(ctx context.Context, cfg config.Config, logger *logrus.Logger) (feed.Stores, storage.ContentStore, storage.ChartStore, func(), error) {
	if cfg.UseMemory {
		stores, content := feed.NewMemoryStores()
		logger.Info("using in-memory storage")
		return stores, content, nil, func() {}, nil
	}

	pool, err := pgstore.NewPoolWithOptions(ctx, cfg.PostgresDSN, pgstore.PoolOptions{
		MaxConns: int32(cfg.PGMaxConns),
		MinConns: int32(cfg.PGMinConns),
	})
	if err != nil {
		return feed.Stores{}, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.Migrate {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return feed.Stores{}, nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.WithField("applied", applied).Info("postgres migrations done")
	}

	stores, content := feed.NewPostgresStores(pool)
	if cfg.ClickhouseDSN == "" {
		return stores, content, nil, pool.Close, nil
	}

	var chConn *chstore.Conn
	if cfg.Migrate {
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
	}
	if err != nil {
		pool.Close()
		return feed.Stores{}, nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	logger.Info("archiving charts to clickhouse")

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, content, chstore.NewChartStore(chConn), cleanup, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/ws", s.hub)
	mux.Handle("/ingest/", feed.IngestHandler(s.recorder, s.log))
	mux.HandleFunc("GET /bootstrap", s.handleBootstrap)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)

	return mux
}

// handleBootstrap returns the bootstrap snapshot as a JSON array of envelopes.
func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	envs, err := s.boot.Snapshot(r.Context())
	s.metrics.RecordBootstrap(time.Since(start).Seconds(), err)
	if err != nil {
		s.log.WithError(err).Error("bootstrap snapshot failed")
		http.Error(w, "bootstrap unavailable", http.StatusServiceUnavailable)
		return
	}
	if envs == nil {
		envs = []event.Envelope{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envs)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Started string `json:"started"`
	Clients int    `json:"clients"`
	Storage string `json:"storage"`
	Archive bool   `json:"archive"`
	NATS    bool   `json:"nats"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	storageKind := "postgres"
	if s.cfg.UseMemory {
		storageKind = "memory"
	}

	resp := StatusResponse{
		Status:  "running",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Started: s.started.UTC().Format(time.RFC3339),
		Clients: s.hub.Clients(),
		Storage: storageKind,
		Archive: !s.cfg.UseMemory && s.cfg.ClickhouseDSN != "",
		NATS:    s.cfg.NATSURL != "",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
