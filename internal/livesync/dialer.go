package livesync

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	defaultDialTimeout = 10 * time.Second
	wsReadLimit        = 1 << 20
)

// StompSubprotocols are offered when upgrading the websocket.
var StompSubprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// Dialer opens the byte stream a STOMP session runs over. The stream lives until ctx ends or it is closed.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (io.ReadWriteCloser, error)

func (f DialerFunc) Dial(ctx context.Context) (io.ReadWriteCloser, error) { return f(ctx) }

// WebsocketDialer connects to a STOMP-over-websocket endpoint.
type WebsocketDialer struct {
	URL          string
	Subprotocols []string
	Header       http.Header
	HTTPClient   *http.Client
	Timeout      time.Duration
}

func (d WebsocketDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	protocols := d.Subprotocols
	if len(protocols) == 0 {
		protocols = StompSubprotocols
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, d.URL, &websocket.DialOptions{
		HTTPClient:   d.HTTPClient,
		HTTPHeader:   d.Header,
		Subprotocols: protocols,
	})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsReadLimit)
	return websocket.NetConn(ctx, conn, websocket.MessageText), nil
}

// TCPDialer connects to a plain STOMP broker.
type TCPDialer struct {
	Addr    string
	Timeout time.Duration
}

func (d TCPDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	return &tcpConn{Conn: conn, stop: stop}, nil
}

// tcpConn closes itself when the dial context ends so blocked session reads return.
type tcpConn struct {
	net.Conn
	stop func() bool
}

func (c *tcpConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
