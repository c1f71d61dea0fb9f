// Package livesync keeps a bracket view in step with match events published on a
// per-tournament STOMP topic, reconnecting within a bounded retry budget.
package livesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-stomp/stomp/v3"

	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
)

const (
	DefaultTopicPrefix = "/topic/tournament/"
	defaultHeartBeat   = 10 * time.Second
	teardownTimeout    = 2 * time.Second
)

// GiveUpMessage is shown once the client stops reconnecting.
const GiveUpMessage = "실시간 연결이 끊어졌습니다. 페이지를 새로고침해주세요."

var (
	errSubscriptionClosed = errors.New("livesync: subscription closed")
	errNoDialer           = errors.New("livesync: no dialer configured")
	errNotStarted         = errors.New("livesync: client not started")
	errStopped            = errors.New("livesync: client disconnected")
)

// Config describes one tournament subscription.
type Config struct {
	TournamentID string
	TopicPrefix  string
	Host         string
	Login        string
	Passcode     string
	HeartBeat    time.Duration
	Policy       Policy
}

// Topic returns the destination the client subscribes to.
func (c Config) Topic() string {
	prefix := c.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + c.TournamentID
}

// Client owns a single STOMP session and subscription for one tournament.
// Messages are handled one at a time on the client's goroutine in arrival order.
type Client struct {
	cfg      Config
	dialer   Dialer
	actions  Actions
	notifier notify.Notifier
	logger   *slog.Logger
	recorder *metrics.Recorder
	after    func(time.Duration) <-chan time.Time

	mu        sync.Mutex
	state     State
	observers []func(State)
	started   bool
	stopping  bool
	gaveUp    bool
	parent    context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	session   *session
}

// NewClient wires a client. notifier, logger and recorder may be nil.
func NewClient(cfg Config, dialer Dialer, actions Actions, notifier notify.Notifier, logger *slog.Logger, recorder *metrics.Recorder) *Client {
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.HeartBeat <= 0 {
		cfg.HeartBeat = defaultHeartBeat
	}
	if logger != nil {
		logger = logger.With(slog.String(logging.FieldTournamentID, cfg.TournamentID))
	}
	return &Client{
		cfg:      cfg,
		dialer:   dialer,
		actions:  actions,
		notifier: notifier,
		logger:   logger,
		recorder: recorder,
		after:    time.After,
		state:    StateDisconnected,
	}
}

// OnStateChange registers fn to be called after every state transition.
func (c *Client) OnStateChange(fn func(State)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TournamentID returns the tournament this client follows.
func (c *Client) TournamentID() string {
	return c.cfg.TournamentID
}

// Start launches the connection goroutine. Calling it again is a no-op.
func (c *Client) Start(ctx context.Context) error {
	if c.dialer == nil {
		return errNoDialer
	}
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.parent = ctx
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(runCtx)
	return nil
}

// Restart begins a new connection cycle after the client gave up. It is meant for
// user actions; the retry budget starts over. A running client is left alone.
func (c *Client) Restart() error {
	c.mu.Lock()
	if c.stopping {
		c.mu.Unlock()
		return errStopped
	}
	if !c.started || c.parent == nil {
		c.mu.Unlock()
		return errNotStarted
	}
	select {
	case <-c.done:
	default:
		c.mu.Unlock()
		return nil
	}
	if err := c.parent.Err(); err != nil {
		c.mu.Unlock()
		return err
	}
	runCtx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.gaveUp = false
	c.mu.Unlock()

	logging.Info(c.logger, "restarting live channel")
	go c.run(runCtx)
	return nil
}

// GaveUp reports whether the client spent its reconnect budget and stopped.
func (c *Client) GaveUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gaveUp
}

// Done is closed once the current run ends, either after Disconnect or after giving up.
// Restart replaces it.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

// Disconnect unsubscribes, tears down the session and waits for the goroutine to exit.
// It is safe to call on a client that never started or already stopped.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.started || c.stopping {
		done := c.done
		c.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	c.stopping = true
	sess := c.session
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if sess != nil {
		sess.close(teardownTimeout)
	}
	cancel()
	<-done
}

func (c *Client) run(ctx context.Context) {
	defer func() {
		c.setState(StateDisconnected)
		c.mu.Lock()
		cancel := c.cancel
		close(c.done)
		c.mu.Unlock()
		cancel()
	}()

	policy := c.cfg.Policy.NewBackOff()
	for {
		c.setState(StateConnecting)
		sess, err := c.connect(ctx)
		if err == nil {
			policy.Reset()
			c.setState(StateConnected)
			logging.Info(c.logger, "live channel connected", logging.FieldTopic, c.cfg.Topic())
			err = c.consume(ctx, sess)
			c.clearSession(sess)
			sess.close(teardownTimeout)
		}
		if c.isStopping() || ctx.Err() != nil {
			return
		}
		c.setState(StateDisconnected)
		logging.Warn(c.logger, "live channel lost", "error", err)
		if !c.attemptReconnect(ctx, policy) {
			return
		}
	}
}

// connect dials, opens the STOMP session and subscribes to the tournament topic.
func (c *Client) connect(ctx context.Context) (*session, error) {
	transport, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.HeartBeat(c.cfg.HeartBeat, c.cfg.HeartBeat),
	}
	if c.cfg.Host != "" {
		opts = append(opts, stomp.ConnOpt.Host(c.cfg.Host))
	}
	if c.cfg.Login != "" {
		opts = append(opts, stomp.ConnOpt.Login(c.cfg.Login, c.cfg.Passcode))
	}
	conn, err := stomp.Connect(transport, opts...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("stomp connect: %w", err)
	}
	sub, err := conn.Subscribe(c.cfg.Topic(), stomp.AckAuto)
	if err != nil {
		_ = conn.Disconnect()
		_ = transport.Close()
		return nil, fmt.Errorf("subscribe %s: %w", c.cfg.Topic(), err)
	}
	sess := &session{transport: transport, conn: conn, subs: []*stomp.Subscription{sub}}

	c.mu.Lock()
	stopping := c.stopping
	if !stopping {
		c.session = sess
	}
	c.mu.Unlock()
	if stopping {
		sess.close(teardownTimeout)
		return nil, context.Canceled
	}
	return sess, nil
}

func (c *Client) consume(ctx context.Context, sess *session) error {
	sub := sess.subs[0]
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.C:
			if !ok {
				return errSubscriptionClosed
			}
			if msg.Err != nil {
				return msg.Err
			}
			c.handleMessage(ctx, msg.Body)
		}
	}
}

// handleMessage dispatches one message body. Unparsable bodies are dropped.
func (c *Client) handleMessage(ctx context.Context, body []byte) {
	ev, err := ParseEvent(body)
	if err != nil {
		logging.Warn(c.logger, "dropping unparsable live message", "error", err)
		return
	}
	id := c.cfg.TournamentID
	c.recorder.RecordLiveEvent(id, string(ev.Type))
	if c.logger != nil {
		c.logger.Debug("live event", logging.FieldEventType, ev.Type, logging.FieldMatchID, ev.MatchID)
	}

	switch {
	case !ev.Type.Known():
		logging.Warn(c.logger, "unknown live event type", logging.FieldEventType, ev.Type)
	case c.actions == nil:
	case ev.Type == EventMatchStarted:
		c.actions.MatchStarted(ctx, id, ev.MatchID)
	case ev.Type == EventMatchCompleted:
		c.actions.MatchCompleted(ctx, id, ev.MatchID)
	case ev.Type == EventBracketUpdated:
		c.actions.BracketUpdated(ctx, id)
	case ev.Type == EventTableUpdated:
		c.actions.TableUpdated(ctx, id)
	}

	c.notify(ctx, notify.Notification{
		TournamentID: id,
		Kind:         ev.NotificationKind(),
		Message:      ev.NotificationText(),
	})
}

// attemptReconnect waits for the next retry slot. It returns false once the budget is spent
// or the client is stopping; giving up raises exactly one persistent notification.
func (c *Client) attemptReconnect(ctx context.Context, policy backoff.BackOff) bool {
	delay := policy.NextBackOff()
	if delay == backoff.Stop {
		c.mu.Lock()
		c.gaveUp = true
		c.mu.Unlock()
		logging.Error(c.logger, "live channel reconnect budget exhausted", nil, "max_retries", c.cfg.Policy.MaxRetries)
		c.recorder.RecordGiveUp(c.cfg.TournamentID)
		c.notify(ctx, notify.Notification{
			TournamentID: c.cfg.TournamentID,
			Kind:         notify.KindDanger,
			Message:      GiveUpMessage,
			Persistent:   true,
		})
		return false
	}
	c.recorder.RecordReconnect(c.cfg.TournamentID)
	logging.Info(c.logger, "scheduling live reconnect", logging.FieldDelay, delay)

	select {
	case <-ctx.Done():
		return false
	case <-c.after(delay):
		return !c.isStopping()
	}
}

func (c *Client) notify(ctx context.Context, n notify.Notification) {
	if c.notifier != nil {
		c.notifier.Notify(ctx, n)
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Debug("live state", logging.FieldState, s)
	}
	for _, fn := range observers {
		fn(s)
	}
}

func (c *Client) isStopping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopping
}

func (c *Client) clearSession(sess *session) {
	c.mu.Lock()
	if c.session == sess {
		c.session = nil
	}
	c.mu.Unlock()
}

// session is one STOMP connection and the subscriptions held on it.
type session struct {
	transport io.ReadWriteCloser
	conn      *stomp.Conn
	subs      []*stomp.Subscription
	once      sync.Once
}

// close unsubscribes every active subscription, then disconnects. A peer that does not
// answer within timeout has its transport closed underneath it.
func (s *session) close(timeout time.Duration) {
	s.once.Do(func() {
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			for _, sub := range s.subs {
				if sub.Active() {
					_ = sub.Unsubscribe()
				}
			}
			_ = s.conn.Disconnect()
		}()
		select {
		case <-finished:
		case <-time.After(timeout):
		}
		_ = s.transport.Close()
	})
}
