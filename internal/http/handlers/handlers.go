package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/preston-bernstein/bracket-live-service/internal/app/bracketview"
	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/layout"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
	"github.com/preston-bernstein/bracket-live-service/internal/poller"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
	"github.com/preston-bernstein/bracket-live-service/internal/render"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 200
	maxViewport              = 20000
)

// BracketService is what the handlers need from the bracket view service.
type BracketService interface {
	View(ctx context.Context, req bracketview.Request) render.View
	Refresh(ctx context.Context, id string) error
	OpenDialog(ctx context.Context, id string) error
	CloseDialog(id string)
}

// NotificationFeed lists recent notifications of a tournament.
type NotificationFeed interface {
	Recent(tournamentID string, limit int) []notify.Notification
}

// Handler wires HTTP routes to the bracket view service.
type Handler struct {
	svc      BracketService
	feed     NotificationFeed
	logger   *slog.Logger
	metrics  *metrics.Recorder
	statusFn func() poller.Status
	liveFn   func() map[string]string
}

// NewHandler constructs a Handler. feed, statusFn and liveFn may be nil.
func NewHandler(svc BracketService, feed NotificationFeed, logger *slog.Logger, recorder *metrics.Recorder, statusFn func() poller.Status, liveFn func() map[string]string) *Handler {
	return &Handler{
		svc:      svc,
		feed:     feed,
		logger:   logger,
		metrics:  recorder,
		statusFn: statusFn,
		liveFn:   liveFn,
	}
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

type readyResponse struct {
	Status string            `json:"status"`
	Live   map[string]string `json:"live,omitempty"`
}

// Ready reports readiness for traffic along with the live channel state per tournament.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Status: "ready"}
	if h.liveFn != nil {
		resp.Live = h.liveFn()
	}
	if h.statusFn == nil {
		writeJSON(w, http.StatusOK, resp, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, http.StatusOK, resp, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
}

// BracketPage renders the HTML bracket view.
func (h *Handler) BracketPage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.viewRequest(w, r)
	if !ok {
		return
	}
	v := h.svc.View(r.Context(), req)
	h.renderView(w, r, "html", "text/html; charset=utf-8", v, render.HTML)
}

// BracketSVG renders the connector overlay and match boxes as a standalone SVG document.
func (h *Handler) BracketSVG(w http.ResponseWriter, r *http.Request) {
	req, ok := h.viewRequest(w, r)
	if !ok {
		return
	}
	v := h.svc.View(r.Context(), req)
	if v.Error != "" {
		writeError(w, r, statusForKind(v.Error), render.ErrorMessage(v.Error), h.logger)
		return
	}
	if v.Layout == nil {
		writeError(w, r, http.StatusNotFound, render.EmptyMessage, h.logger)
		return
	}
	h.renderView(w, r, "svg", "image/svg+xml", v, render.SVG)
}

type bracketResponse struct {
	TournamentID string              `json:"tournamentId"`
	Version      int64               `json:"version"`
	Status       render.Status       `json:"status"`
	Empty        bool                `json:"empty"`
	Layout       *bracket.Layout     `json:"layout,omitempty"`
	Scene        *layout.Scene       `json:"scene,omitempty"`
	Matches      []bracket.MatchCard `json:"matches"`
	Highlight    []string            `json:"highlight,omitempty"`
	DialogOpen   bool                `json:"dialogOpen"`
	Tables       []bracket.Table     `json:"tables,omitempty"`
}

// BracketJSON returns the layout, measured geometry and connectors.
func (h *Handler) BracketJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := h.viewRequest(w, r)
	if !ok {
		return
	}
	v := h.svc.View(r.Context(), req)
	if v.Error != "" {
		writeError(w, r, statusForKind(v.Error), render.ErrorMessage(v.Error), h.logger)
		return
	}
	resp := bracketResponse{
		TournamentID: v.TournamentID,
		Version:      v.Version,
		Status:       v.Status,
		Empty:        v.Empty(),
		Layout:       v.Layout,
		Matches:      v.Cards,
		Highlight:    v.Highlight,
		DialogOpen:   v.DialogOpen,
		Tables:       v.Tables,
	}
	if resp.Matches == nil {
		resp.Matches = []bracket.MatchCard{}
	}
	if v.Layout != nil {
		resp.Scene = &v.Scene
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// Refresh forces a re-fetch of the bracket.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tournamentID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Refresh(r.Context(), id); err != nil {
		kind := render.ErrorKind(providers.Classify(err))
		writeError(w, r, statusForKind(kind), render.ErrorMessage(kind), h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"}, h.logger)
}

// Notifications lists the most recent notifications, newest first.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tournamentID(w, r)
	if !ok {
		return
	}
	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid limit", h.logger)
			return
		}
		limit = min(n, maxNotificationLimit)
	}
	items := []notify.Notification{}
	if h.feed != nil {
		items = append(items, h.feed.Recent(id, limit)...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items}, h.logger)
}

// OpenStartMatchDialog loads the table list and opens the dialog.
func (h *Handler) OpenStartMatchDialog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tournamentID(w, r)
	if !ok {
		return
	}
	if err := h.svc.OpenDialog(r.Context(), id); err != nil {
		kind := render.ErrorKind(providers.Classify(err))
		writeError(w, r, statusForKind(kind), "테이블 목록을 불러오지 못했습니다.", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"dialogOpen": true}, h.logger)
}

// CloseStartMatchDialog closes the dialog.
func (h *Handler) CloseStartMatchDialog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tournamentID(w, r)
	if !ok {
		return
	}
	h.svc.CloseDialog(id)
	writeJSON(w, http.StatusOK, map[string]bool{"dialogOpen": false}, h.logger)
}

// NotFound answers unknown routes with the JSON error body.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found", h.logger)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", h.logger)
}

func (h *Handler) renderView(w http.ResponseWriter, r *http.Request, format, contentType string, v render.View, fn func(io.Writer, render.View) error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := fn(&buf, v); err != nil {
		logging.Error(loggerFromContext(r, h.logger), "render failed", err, "format", format)
		writeError(w, r, http.StatusInternalServerError, "render failed", h.logger)
		return
	}
	h.metrics.RecordRender(format, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) tournamentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	return tournamentID(w, r, h.logger)
}

func tournamentID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" || strings.ContainsAny(id, " \t/") {
		writeError(w, r, http.StatusBadRequest, "invalid tournament id", logger)
		return "", false
	}
	return id, true
}

func (h *Handler) viewRequest(w http.ResponseWriter, r *http.Request) (bracketview.Request, bool) {
	id, ok := h.tournamentID(w, r)
	if !ok {
		return bracketview.Request{}, false
	}
	q := r.URL.Query()
	vw, errW := parseViewport(q.Get("vw"))
	vh, errH := parseViewport(q.Get("vh"))
	if err := errors.Join(errW, errH); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid viewport", h.logger)
		return bracketview.Request{}, false
	}
	mode, err := parseFit(q.Get("fit"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid fit mode", h.logger)
		return bracketview.Request{}, false
	}
	return bracketview.Request{
		TournamentID: id,
		Viewport:     layout.Size{W: vw, H: vh},
		Mode:         mode,
		Highlight:    strings.TrimSpace(q.Get("highlight")),
	}, true
}

var errInvalidViewport = errors.New("invalid viewport")

func parseViewport(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > maxViewport {
		return 0, errInvalidViewport
	}
	return v, nil
}

// parseFit accepts the boolean spellings used by the page script as well as mode names.
// An empty value keeps the configured mode.
func parseFit(raw string) (layout.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "1", "true", "yes":
		return layout.ModeFit, nil
	case "0", "false", "no":
		return layout.ModeNative, nil
	default:
		return layout.ParseMode(raw)
	}
}

func statusForKind(kind render.ErrorKind) int {
	switch kind {
	case render.ErrorNotFound:
		return http.StatusNotFound
	case render.ErrorServer, render.ErrorMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}
