package livesync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"
	"github.com/go-stomp/stomp/v3/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/logging"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
	"github.com/preston-bernstein/bracket-live-service/internal/notify"
)

const (
	waitFor = 10 * time.Second
	tick    = 20 * time.Millisecond
)

func immediately(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func never(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func TestHandleMessageDispatchesAndNotifies(t *testing.T) {
	actions := &recordingActions{}
	notes := &recordingNotifier{}
	rec := metrics.NewRecorder()
	c := NewClient(Config{TournamentID: "7"}, nil, actions, notes, nil, rec)
	ctx := context.Background()

	c.handleMessage(ctx, []byte(`{"type":"MATCH_STARTED","matchId":11,"message":"경기 시작"}`))
	c.handleMessage(ctx, []byte(`{"type":"MATCH_COMPLETED","matchId":"12","message":"경기 종료"}`))
	c.handleMessage(ctx, []byte(`{"type":"BRACKET_UPDATED","message":"대진표 갱신"}`))
	c.handleMessage(ctx, []byte(`{"type":"TABLE_UPDATED","message":"테이블 갱신"}`))
	c.handleMessage(ctx, []byte(`{"type":"MYSTERY","message":"알 수 없음"}`))
	c.handleMessage(ctx, []byte(`{{not json`))

	assert.Equal(t, []call{
		{"started", "7", "11"},
		{"completed", "7", "12"},
		{"bracket", "7", ""},
		{"table", "7", ""},
	}, actions.Calls())

	items := notes.Items()
	require.Len(t, items, 5)
	kinds := []notify.Kind{notify.KindWarning, notify.KindSuccess, notify.KindInfo, notify.KindInfo, notify.KindInfo}
	for i, n := range items {
		assert.Equal(t, kinds[i], n.Kind, "notification %d", i)
		assert.Equal(t, "7", n.TournamentID)
		assert.False(t, n.Persistent)
	}
	assert.Equal(t, "알 수 없음", items[4].Message)
	assert.Equal(t, 1, rec.LiveEvents("MYSTERY"))
}

func TestUnknownEventLoggedWithoutActions(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Output: &buf})
	notes := &recordingNotifier{}
	c := NewClient(Config{TournamentID: "7"}, nil, nil, notes, logger, nil)

	c.handleMessage(context.Background(), []byte(`{"type":"MYSTERY","message":"알 수 없음"}`))

	assert.Contains(t, buf.String(), "unknown live event type")
	assert.Contains(t, buf.String(), "MYSTERY")
	require.Len(t, notes.Items(), 1)
	assert.Equal(t, notify.KindInfo, notes.Items()[0].Kind)
}

func TestStartRequiresDialer(t *testing.T) {
	c := NewClient(Config{TournamentID: "1"}, nil, nil, nil, nil, nil)
	assert.Error(t, c.Start(context.Background()))
	c.Disconnect()
	assert.Equal(t, StateDisconnected, c.State())
}

func TestReconnectGivesUpWithSingleTerminalNotification(t *testing.T) {
	var dials atomic.Int32
	dialer := DialerFunc(func(context.Context) (io.ReadWriteCloser, error) {
		dials.Add(1)
		return nil, errors.New("connection refused")
	})
	notes := &recordingNotifier{}
	rec := metrics.NewRecorder()
	states := &stateLog{}

	c := NewClient(Config{TournamentID: "3"}, dialer, &recordingActions{}, notes, nil, rec)
	c.after = immediately
	c.OnStateChange(states.observe)
	require.NoError(t, c.Start(context.Background()))

	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("client did not give up")
	}

	assert.Equal(t, int32(1+DefaultMaxReconnects), dials.Load())
	assert.Equal(t, DefaultMaxReconnects, rec.Reconnects())
	assert.Equal(t, 1, rec.GiveUps())
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, 1+DefaultMaxReconnects, states.count(StateConnecting))

	terminal := notes.Persistent()
	require.Len(t, terminal, 1)
	assert.Equal(t, GiveUpMessage, terminal[0].Message)
	assert.Equal(t, notify.KindDanger, terminal[0].Kind)
	assert.Len(t, notes.Items(), 1)

	c.Disconnect()
	c.Disconnect()
	assert.Len(t, notes.Persistent(), 1)
}

func TestRestartAfterGiveUpReconnects(t *testing.T) {
	addr := startBroker(t)
	var healthy atomic.Bool
	dialer := DialerFunc(func(ctx context.Context) (io.ReadWriteCloser, error) {
		if !healthy.Load() {
			return nil, errors.New("connection refused")
		}
		return TCPDialer{Addr: addr}.Dial(ctx)
	})
	notes := &recordingNotifier{}
	rec := metrics.NewRecorder()

	c := NewClient(Config{TournamentID: "9"}, dialer, &recordingActions{}, notes, nil, rec)
	c.after = immediately
	require.ErrorIs(t, c.Restart(), errNotStarted)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Disconnect)

	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("client did not give up")
	}
	require.True(t, c.GaveUp())

	healthy.Store(true)
	require.NoError(t, c.Restart())
	require.Eventually(t, func() bool { return c.State() == StateConnected }, waitFor, tick)
	assert.False(t, c.GaveUp())
	assert.Len(t, notes.Persistent(), 1)
	assert.Equal(t, 1, rec.GiveUps())

	// A running client ignores further restarts.
	assert.NoError(t, c.Restart())
	assert.Equal(t, StateConnected, c.State())

	c.Disconnect()
	assert.ErrorIs(t, c.Restart(), errStopped)
}

func TestDisconnectWhileWaitingToReconnect(t *testing.T) {
	dialer := DialerFunc(func(context.Context) (io.ReadWriteCloser, error) {
		return nil, errors.New("down")
	})
	notes := &recordingNotifier{}
	rec := metrics.NewRecorder()
	c := NewClient(Config{TournamentID: "3"}, dialer, nil, notes, nil, rec)
	c.after = never
	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool { return rec.Reconnects() == 1 }, waitFor, tick)

	finished := make(chan struct{})
	go func() {
		c.Disconnect()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(waitFor):
		t.Fatal("disconnect blocked")
	}
	assert.Empty(t, notes.Persistent())
	assert.Equal(t, 0, rec.GiveUps())
}

func startBroker(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Serve(l) }()
	t.Cleanup(func() { _ = l.Close() })
	return l.Addr().String()
}

func dialPublisher(t *testing.T, addr string) *stomp.Conn {
	t.Helper()
	conn, err := stomp.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Disconnect() })
	return conn
}

// primeSubscription publishes until the client has observed a message, so later publishes are not lost.
func primeSubscription(t *testing.T, pub *stomp.Conn, topic string, actions *recordingActions) {
	t.Helper()
	require.Eventually(t, func() bool {
		_ = pub.Send(topic, "application/json", []byte(`{"type":"BRACKET_UPDATED","message":"갱신"}`))
		return len(actions.Calls()) > 0
	}, waitFor, 50*time.Millisecond)
}

func TestClientReceivesEventsInOrder(t *testing.T) {
	addr := startBroker(t)
	actions := &recordingActions{}
	notes := &recordingNotifier{}
	rec := metrics.NewRecorder()
	states := &stateLog{}

	c := NewClient(Config{TournamentID: "7"}, TCPDialer{Addr: addr}, actions, notes, nil, rec)
	c.OnStateChange(states.observe)
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return c.State() == StateConnected }, waitFor, tick)

	pub := dialPublisher(t, addr)
	topic := DefaultTopicPrefix + "7"
	primeSubscription(t, pub, topic, actions)

	bodies := []string{
		`{"type":"MATCH_STARTED","matchId":1,"message":"1 시작"}`,
		`{"type":"MATCH_COMPLETED","matchId":1,"message":"1 종료"}`,
		`garbage`,
		`{"type":"TABLE_UPDATED","message":"테이블"}`,
		`{"type":"SOMETHING_NEW","message":"마지막"}`,
	}
	for _, b := range bodies {
		require.NoError(t, pub.Send(topic, "application/json", []byte(b)))
	}
	require.NoError(t, pub.Send(DefaultTopicPrefix+"8", "application/json", []byte(`{"type":"MATCH_STARTED","matchId":99}`)))

	require.Eventually(t, func() bool {
		items := notes.Items()
		return len(items) > 0 && items[len(items)-1].Message == "마지막"
	}, waitFor, tick)

	var ordered []call
	for _, cl := range actions.Calls() {
		if cl.Action != "bracket" {
			ordered = append(ordered, cl)
		}
	}
	assert.Equal(t, []call{
		{"started", "7", bracket.ID("1")},
		{"completed", "7", bracket.ID("1")},
		{"table", "7", ""},
	}, ordered)
	assert.Equal(t, 1, rec.LiveEvents("SOMETHING_NEW"))

	c.Disconnect()
	c.Disconnect()
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, 0, rec.Reconnects())
	assert.Empty(t, notes.Persistent())
	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected}, states.States())
}

type trackingDialer struct {
	inner Dialer
	mu    sync.Mutex
	conns []io.ReadWriteCloser
}

func (d *trackingDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	conn, err := d.inner.Dial(ctx)
	if err == nil {
		d.mu.Lock()
		d.conns = append(d.conns, conn)
		d.mu.Unlock()
	}
	return conn, err
}

func (d *trackingDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *trackingDialer) dropLast() {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.conns[len(d.conns)-1].Close()
}

func TestClientReconnectsAfterTransportLoss(t *testing.T) {
	addr := startBroker(t)
	dialer := &trackingDialer{inner: TCPDialer{Addr: addr}}
	actions := &recordingActions{}
	rec := metrics.NewRecorder()
	states := &stateLog{}

	c := NewClient(Config{TournamentID: "5"}, dialer, actions, nil, nil, rec)
	c.after = immediately
	c.OnStateChange(states.observe)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Disconnect)

	require.Eventually(t, func() bool { return c.State() == StateConnected }, waitFor, tick)
	dialer.dropLast()

	require.Eventually(t, func() bool {
		return dialer.dials() == 2 && c.State() == StateConnected
	}, waitFor, tick)
	assert.Equal(t, 1, rec.Reconnects())
	assert.Equal(t, 2, states.count(StateConnected))

	pub := dialPublisher(t, addr)
	primeSubscription(t, pub, DefaultTopicPrefix+"5", actions)
	assert.Equal(t, "bracket", actions.Calls()[0].Action)
}

type wsListener struct {
	conns  chan net.Conn
	closed chan struct{}
	once   sync.Once
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *wsListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

type closeNotifyConn struct {
	net.Conn
	once sync.Once
	done chan struct{}
}

func (c *closeNotifyConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.Conn.Close()
}

// startWebsocketBroker serves the STOMP broker behind a websocket upgrade.
func startWebsocketBroker(t *testing.T) string {
	t.Helper()
	l := &wsListener{conns: make(chan net.Conn), closed: make(chan struct{})}
	go func() { _ = server.Serve(l) }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: StompSubprotocols})
		if err != nil {
			return
		}
		conn := &closeNotifyConn{
			Conn: websocket.NetConn(context.Background(), ws, websocket.MessageText),
			done: make(chan struct{}),
		}
		select {
		case l.conns <- conn:
		case <-l.closed:
			_ = conn.Close()
			return
		}
		select {
		case <-conn.done:
		case <-l.closed:
			_ = conn.Close()
		}
	}))
	t.Cleanup(func() {
		_ = l.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWebsocketDialerCarriesStompSession(t *testing.T) {
	url := startWebsocketBroker(t)
	actions := &recordingActions{}
	c := NewClient(Config{TournamentID: "9"}, WebsocketDialer{URL: url}, actions, nil, nil, nil)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Disconnect)
	require.Eventually(t, func() bool { return c.State() == StateConnected }, waitFor, tick)

	transport, err := WebsocketDialer{URL: url}.Dial(context.Background())
	require.NoError(t, err)
	pub, err := stomp.Connect(transport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Disconnect() })

	primeSubscription(t, pub, DefaultTopicPrefix+"9", actions)
}

func TestConfigTopic(t *testing.T) {
	assert.Equal(t, "/topic/tournament/4", Config{TournamentID: "4"}.Topic())
	assert.Equal(t, "/exchange/t.4", Config{TournamentID: "4", TopicPrefix: "/exchange/t."}.Topic())
}
