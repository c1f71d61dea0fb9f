package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/bracket-live-service/internal/app/bracketview"
	"github.com/preston-bernstein/bracket-live-service/internal/config"
	httpserver "github.com/preston-bernstein/bracket-live-service/internal/http"
	"github.com/preston-bernstein/bracket-live-service/internal/http/handlers"
	"github.com/preston-bernstein/bracket-live-service/internal/hub"
	"github.com/preston-bernstein/bracket-live-service/internal/layout"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
	"github.com/preston-bernstein/bracket-live-service/internal/poller"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
	"github.com/preston-bernstein/bracket-live-service/internal/snapshots"
	"github.com/preston-bernstein/bracket-live-service/internal/store"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	store         *store.ViewStore
	hub           *hub.Hub
	feed          *notify.Feed
	brackets      *bracketview.Service
	live          []liveClient
	httpServer    httpServer
	metricsServer httpServer
	poller        Poller
	metricsStop   func(context.Context) error
}

// New constructs a server with default provider, poller and live wiring.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithProvider(cfg, logger, nil)
}

func newServerWithProvider(cfg config.Config, logger *slog.Logger, provider providers.DataProvider) *Server {
	return newServerWithMetrics(cfg, logger, provider, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, provider providers.DataProvider, recorder *metrics.Recorder) *Server {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	if provider == nil {
		provider = newProviderFactory(logger, recorder).build(cfg)
	} else {
		provider = providers.NewRetryingProvider(provider, logger, recorder, normalizeProviderName(cfg.Provider, provider), cfg.Upstream.MaxAttempts, cfg.Upstream.RetryBackoff)
	}

	viewStore := store.NewViewStore(store.WithLimit(cfg.ViewCacheSize))
	viewStore.Pin(cfg.TournamentIDs...)
	fanout := hub.New(context.Background())
	feed := notify.NewFeed(0)
	svc := bracketview.NewService(provider, viewStore, fanout, logger, recorder, bracketview.Config{
		RefreshDelay:         cfg.Refresh.Delay,
		CompleteRefreshDelay: cfg.Refresh.CompleteDelay,
		FetchTimeout:         cfg.Refresh.FetchTimeout,
		Mode:                 renderMode(cfg.Render),
		Archive:              buildArchive(cfg.Archive),
	})
	notifier := notify.Multi{notify.LogNotifier{Logger: logger}, feed, fanout}
	live := buildLiveClients(cfg, svc, notifier, logger, recorder)
	plr := poller.New(svc, cfg.TournamentIDs, logger, recorder, cfg.PollInterval)
	httpSrv := buildHTTPServer(cfg, withLiveResume(svc, live, logger), feed, fanout, logger, recorder, plr, live)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		store:         viewStore,
		hub:           fanout,
		feed:          feed,
		brackets:      svc,
		live:          live,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		poller:        plr,
		metricsStop:   metricsShutdown,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, plr Poller, live ...liveClient) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		poller:     plr,
		live:       live,
	}
}

func renderMode(cfg config.RenderConfig) layout.Mode {
	if cfg.Fit {
		return layout.ModeFit
	}
	return layout.ModeNative
}

func buildHTTPServer(cfg config.Config, svc handlers.BracketService, feed *notify.Feed, fanout *hub.Hub, logger *slog.Logger, recorder *metrics.Recorder, plr Poller, live []liveClient) httpServer {
	var statusFn func() poller.Status
	if plr != nil {
		statusFn = plr.Status
	}
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}

	handler := handlers.NewHandler(svc, feed, logger, recorder, statusFn, liveStates(live))
	var socket http.Handler
	if fanout != nil {
		socket = handlers.NewLiveHandler(fanout, logger, nil)
	}
	router := httpserver.NewRouter(handler, socket, logger, recorder)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the poller, live clients and HTTP server, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.poller.Start(ctx)
	s.startLive(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) startLive(ctx context.Context) {
	for _, c := range s.live {
		if err := c.Start(ctx); err != nil {
			logging.Warn(s.logger, "live client failed to start",
				logging.FieldTournamentID, c.TournamentID(),
				"error", err,
			)
		}
	}
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	if err := s.poller.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop poller", err)
	}

	for _, c := range s.live {
		c.Disconnect()
	}
	if s.brackets != nil {
		s.brackets.Close()
	}
	// Closing the hub ends every open live socket; hijacked connections are not tracked by Shutdown.
	if s.hub != nil {
		s.hub.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// buildArchive returns nil when archiving is off so the service skips it.
func buildArchive(cfg config.ArchiveConfig) bracketview.Archiver {
	if cfg.Dir == "" {
		return nil
	}
	return snapshots.NewWriter(cfg.Dir, cfg.RetentionDays)
}
