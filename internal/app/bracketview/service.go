// Package bracketview turns fetched snapshots into rendered views and applies live events to them.
package bracketview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/layout"
	"github.com/preston-bernstein/bracket-live-service/internal/livesync"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
	"github.com/preston-bernstein/bracket-live-service/internal/render"
	"github.com/preston-bernstein/bracket-live-service/internal/store"
)

const (
	DefaultRefreshDelay         = 500 * time.Millisecond
	DefaultCompleteRefreshDelay = time.Second
	defaultFetchTimeout         = 15 * time.Second
)

// Store is the view state the service reads and writes.
type Store interface {
	Get(id string) (store.Entry, bool)
	SetSnapshot(id string, snap bracket.Snapshot, layout *bracket.Layout) int64
	SetError(id, kind string) int64
	RemoveCard(id string, matchID bracket.ID, want bracket.CardStatus) bool
	TransitionCard(id string, matchID bracket.ID, from, to bracket.CardStatus) bool
	SetDialog(id string, open bool, tables []bracket.Table) int64
	ReplaceTables(id string, tables []bracket.Table) bool
	DialogOpen(id string) bool
	SetStatus(id, status string) int64
	Pinned(id string) bool
	Remove(id string) bool
}

// Publisher tells open pages that their view changed.
type Publisher interface {
	PublishRefresh(tournamentID string, version int64)
	PublishStatus(tournamentID, status string)
}

// Archiver keeps a copy of every successfully fetched snapshot.
type Archiver interface {
	Save(tournamentID string, snap bracket.Snapshot) error
}

// Config tunes refresh timing and rendering.
type Config struct {
	RefreshDelay         time.Duration
	CompleteRefreshDelay time.Duration
	FetchTimeout         time.Duration
	Metrics              layout.Metrics
	Mode                 layout.Mode
	// Archive is optional.
	Archive Archiver
}

// Request selects what a caller wants to see.
type Request struct {
	TournamentID string
	Viewport     layout.Size
	// Mode overrides the configured render mode when set.
	Mode      layout.Mode
	Highlight string
}

// Service coordinates fetching, layout and live updates for bracket views.
type Service struct {
	provider  providers.DataProvider
	store     Store
	publisher Publisher
	logger    *slog.Logger
	recorder  *metrics.Recorder
	cfg       Config
	debounce  *Debouncer
}

var _ livesync.Actions = (*Service)(nil)

// NewService constructs a Service. publisher, logger and recorder may be nil.
func NewService(provider providers.DataProvider, st Store, publisher Publisher, logger *slog.Logger, recorder *metrics.Recorder, cfg Config) *Service {
	if cfg.RefreshDelay <= 0 {
		cfg.RefreshDelay = DefaultRefreshDelay
	}
	if cfg.CompleteRefreshDelay <= 0 {
		cfg.CompleteRefreshDelay = DefaultCompleteRefreshDelay
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Metrics == (layout.Metrics{}) {
		cfg.Metrics = layout.DefaultMetrics()
	}
	if cfg.Mode == "" {
		cfg.Mode = layout.ModeNative
	}
	return &Service{
		provider:  provider,
		store:     st,
		publisher: publisher,
		logger:    logger,
		recorder:  recorder,
		cfg:       cfg,
		debounce:  NewDebouncer(),
	}
}

// Refresh fetches the snapshot of id, rebuilds its layout and publishes the new version.
// Fetch failures are stored as a typed error so the page can show them.
func (s *Service) Refresh(ctx context.Context, id string) error {
	if s.provider == nil {
		return providers.ErrProviderUnavailable
	}
	start := time.Now()
	snap, err := s.provider.FetchSnapshot(ctx, id)
	if err != nil {
		// The caller went away; whatever the view shows stays current.
		if ctx.Err() != nil {
			logging.Warn(s.logger, "bracket fetch abandoned",
				logging.FieldTournamentID, id,
				"error", err,
			)
			return err
		}
		kind := providers.Classify(err)
		s.recorder.RecordRefresh(id, time.Since(start), err)
		logging.Error(s.logger, "bracket fetch failed", err,
			logging.FieldTournamentID, id,
			"kind", string(kind),
		)
		if kind == providers.KindNotFound && !s.store.Pinned(id) {
			s.store.Remove(id)
			return err
		}
		s.publishRefresh(id, s.store.SetError(id, string(kind)))
		return err
	}

	var built *bracket.Layout
	l, err := bracket.BuildLayout(snap)
	switch {
	case err == nil:
		built = &l
		if l.DroppedFinalMatches > 0 {
			logging.Warn(s.logger, "final round had extra matches",
				logging.FieldTournamentID, id,
				logging.FieldCount, l.DroppedFinalMatches,
			)
		}
	case errors.Is(err, bracket.ErrNoBracket):
	default:
		return err
	}

	version := s.store.SetSnapshot(id, snap, built)
	s.recorder.RecordRefresh(id, time.Since(start), nil)
	if s.cfg.Archive != nil {
		if err := s.cfg.Archive.Save(id, snap); err != nil {
			logging.Warn(s.logger, "bracket archive failed",
				logging.FieldTournamentID, id,
				"error", err,
			)
		}
	}
	logging.Info(s.logger, "bracket refreshed",
		logging.FieldTournamentID, id,
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	s.publishRefresh(id, version)
	return nil
}

// ScheduleRefresh refreshes id after delay, coalescing with any refresh already pending.
func (s *Service) ScheduleRefresh(id string, delay time.Duration) {
	s.debounce.Trigger(id, delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
		defer cancel()
		_ = s.Refresh(ctx, id)
	})
}

// Close cancels pending refreshes.
func (s *Service) Close() {
	s.debounce.Stop()
}

// View assembles the render view for req. The bracket is fetched on first use and again
// while the last fetch left an error, so reloading the page retries.
func (s *Service) View(ctx context.Context, req Request) render.View {
	id := req.TournamentID
	entry, ok := s.store.Get(id)
	if !ok || !entry.Fetched() || entry.ErrorKind != "" {
		err := s.Refresh(ctx, id)
		entry, ok = s.store.Get(id)
		if !ok && err != nil && ctx.Err() == nil {
			entry.ErrorKind = string(providers.Classify(err))
		}
	}

	v := render.View{
		TournamentID: id,
		Layout:       entry.Layout,
		Cards:        entry.Cards,
		DialogOpen:   entry.DialogOpen,
		Tables:       entry.Tables,
		Status:       render.Status(entry.Status),
		Error:        render.ErrorKind(entry.ErrorKind),
		Version:      entry.Version,
		Viewport:     req.Viewport,
	}
	if v.Status == "" {
		v.Status = render.StatusOff
	}
	if entry.Layout != nil {
		mode := req.Mode
		if mode == "" {
			mode = s.cfg.Mode
		}
		v.Scene = layout.Compose(*entry.Layout, s.cfg.Metrics, req.Viewport, mode)
		if req.Highlight != "" {
			v.Highlight = bracket.FindParticipants(*entry.Layout, req.Highlight)
		}
	}
	return v
}

// OpenDialog loads the table list and opens the start-match dialog.
func (s *Service) OpenDialog(ctx context.Context, id string) error {
	tables, err := s.fetchTables(ctx, id)
	if err != nil {
		return err
	}
	s.publishRefresh(id, s.store.SetDialog(id, true, tables))
	return nil
}

// CloseDialog closes the start-match dialog.
func (s *Service) CloseDialog(id string) {
	s.publishRefresh(id, s.store.SetDialog(id, false, nil))
}

// MatchStarted drops the scheduled card of matchID and refreshes shortly after.
func (s *Service) MatchStarted(_ context.Context, id string, matchID bracket.ID) {
	if !s.store.RemoveCard(id, matchID, bracket.CardScheduled) {
		s.debugSkip("no scheduled card for started match", id, matchID)
		return
	}
	s.publishCurrent(id)
	s.ScheduleRefresh(id, s.cfg.RefreshDelay)
}

// MatchCompleted marks the in-progress card of matchID completed and refreshes shortly after.
func (s *Service) MatchCompleted(_ context.Context, id string, matchID bracket.ID) {
	if !s.store.TransitionCard(id, matchID, bracket.CardInProgress, bracket.CardCompleted) {
		s.debugSkip("no in-progress card for completed match", id, matchID)
		return
	}
	s.publishCurrent(id)
	s.ScheduleRefresh(id, s.cfg.CompleteRefreshDelay)
}

// BracketUpdated refreshes a tournament whose bracket view exists.
func (s *Service) BracketUpdated(_ context.Context, id string) {
	if e, ok := s.store.Get(id); !ok || !e.Fetched() {
		s.debugSkip("no bracket view to update", id, "")
		return
	}
	s.ScheduleRefresh(id, s.cfg.RefreshDelay)
}

// TableUpdated reloads the table list in place when the start-match dialog is open.
func (s *Service) TableUpdated(ctx context.Context, id string) {
	if !s.store.DialogOpen(id) {
		return
	}
	tables, err := s.fetchTables(ctx, id)
	if err != nil {
		return
	}
	if s.store.ReplaceTables(id, tables) {
		s.publishCurrent(id)
	}
}

// ObserveStatus returns a livesync state observer that records and pushes the badge status of id.
func (s *Service) ObserveStatus(id string) func(livesync.State) {
	return func(state livesync.State) {
		s.store.SetStatus(id, string(state))
		if s.publisher != nil {
			s.publisher.PublishStatus(id, string(state))
		}
	}
}

func (s *Service) fetchTables(ctx context.Context, id string) ([]bracket.Table, error) {
	if s.provider == nil {
		return nil, providers.ErrProviderUnavailable
	}
	tables, err := s.provider.FetchTables(ctx, id)
	if err != nil {
		logging.Error(s.logger, "table fetch failed", err, logging.FieldTournamentID, id)
		return nil, err
	}
	return tables, nil
}

func (s *Service) publishCurrent(id string) {
	if e, ok := s.store.Get(id); ok {
		s.publishRefresh(id, e.Version)
	}
}

func (s *Service) publishRefresh(id string, version int64) {
	if s.publisher != nil {
		s.publisher.PublishRefresh(id, version)
	}
}

func (s *Service) debugSkip(msg, id string, matchID bracket.ID) {
	if s.logger != nil {
		s.logger.Debug(msg, logging.FieldTournamentID, id, logging.FieldMatchID, matchID)
	}
}
