package server

import (
	"context"
	"log/slog"

	"github.com/preston-bernstein/bracket-live-service/internal/app/bracketview"
	"github.com/preston-bernstein/bracket-live-service/internal/config"
	"github.com/preston-bernstein/bracket-live-service/internal/http/handlers"
	"github.com/preston-bernstein/bracket-live-service/internal/livesync"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
	"github.com/preston-bernstein/bracket-live-service/internal/render"
)

// liveClient is the part of livesync.Client the server drives.
type liveClient interface {
	Start(ctx context.Context) error
	Disconnect()
	State() livesync.State
	TournamentID() string
	GaveUp() bool
	Restart() error
}

// buildLiveClients creates one subscription per configured tournament.
func buildLiveClients(cfg config.Config, svc *bracketview.Service, notifier notify.Notifier, logger *slog.Logger, recorder *metrics.Recorder) []liveClient {
	if !cfg.Live.Enabled || len(cfg.TournamentIDs) == 0 {
		return nil
	}
	dialer := liveDialer(cfg.Live)
	clients := make([]liveClient, 0, len(cfg.TournamentIDs))
	for _, id := range cfg.TournamentIDs {
		c := livesync.NewClient(livesync.Config{
			TournamentID: id,
			TopicPrefix:  cfg.Live.TopicPrefix,
			Host:         cfg.Live.Host,
			Login:        cfg.Live.Login,
			Passcode:     cfg.Live.Passcode,
			HeartBeat:    cfg.Live.HeartBeat,
			Policy: livesync.Policy{
				MaxRetries:  cfg.Live.MaxReconnects,
				Delay:       cfg.Live.ReconnectDelay,
				Exponential: cfg.Live.Exponential,
			},
		}, dialer, svc, notifier, logger, recorder)
		c.OnStateChange(svc.ObserveStatus(id))
		clients = append(clients, c)
	}
	return clients
}

func liveDialer(cfg config.LiveConfig) livesync.Dialer {
	if cfg.TCPAddr != "" {
		return livesync.TCPDialer{Addr: cfg.TCPAddr}
	}
	return livesync.WebsocketDialer{URL: cfg.URL}
}

// resumingService restarts a live channel that gave up when someone opens or refreshes its page.
type resumingService struct {
	*bracketview.Service
	clients map[string]liveClient
	logger  *slog.Logger
}

func withLiveResume(svc *bracketview.Service, clients []liveClient, logger *slog.Logger) handlers.BracketService {
	if len(clients) == 0 {
		return svc
	}
	byID := make(map[string]liveClient, len(clients))
	for _, c := range clients {
		byID[c.TournamentID()] = c
	}
	return &resumingService{Service: svc, clients: byID, logger: logger}
}

func (r *resumingService) View(ctx context.Context, req bracketview.Request) render.View {
	r.resume(req.TournamentID)
	return r.Service.View(ctx, req)
}

func (r *resumingService) Refresh(ctx context.Context, id string) error {
	r.resume(id)
	return r.Service.Refresh(ctx, id)
}

func (r *resumingService) resume(id string) {
	c, ok := r.clients[id]
	if !ok || !c.GaveUp() {
		return
	}
	if err := c.Restart(); err != nil {
		logging.Warn(r.logger, "live channel resume failed",
			logging.FieldTournamentID, id,
			"error", err,
		)
		return
	}
	logging.Info(r.logger, "live channel resumed", logging.FieldTournamentID, id)
}

// liveStates reports the connection state of every client for the readiness endpoint.
func liveStates(clients []liveClient) func() map[string]string {
	if len(clients) == 0 {
		return nil
	}
	return func() map[string]string {
		out := make(map[string]string, len(clients))
		for _, c := range clients {
			out[c.TournamentID()] = string(c.State())
		}
		return out
	}
}
