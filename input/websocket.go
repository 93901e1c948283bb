package input

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/ringkit/config"
	"github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/pkg/retry"
)

// WebSocketSource dials a WebSocket endpoint and emits every text or binary
// message line by line. A normal close from the server ends the source; any
// other disconnect is retried with backoff.
type WebSocketSource struct {
	base
	cfg    config.WebSocketConfig
	retry  retry.Config
	dialer *websocket.Dialer
}

// NewWebSocketSource creates a WebSocket client source.
func NewWebSocketSource(cfg config.WebSocketConfig, opts ...Option) *WebSocketSource {
	o := applyOptions(opts)

	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &WebSocketSource{
		base:  newBase("websocket", o),
		cfg:   cfg,
		retry: o.retry,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
	}
}

// Run implements Source.
func (s *WebSocketSource) Run(ctx context.Context, emit Emit) error {
	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		done, err := s.readLoop(ctx, conn, emit)
		if done || err != nil {
			return err
		}
		s.logger.Warn("connection lost, reconnecting", "url", s.cfg.URL)
	}
}

func (s *WebSocketSource) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, err := errors.Retry(ctx, s.retry, func() (*websocket.Conn, error) {
		c, resp, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
		status := 0
		if resp != nil {
			status = resp.StatusCode
			if resp.Body != nil {
				_ = resp.Body.Close()
			}
		}
		if err != nil {
			s.trackError("connect")
			s.logger.Debug("WebSocket dial failed", "url", s.cfg.URL, "status", status, "error", err)
			return nil, classifyDial(err, status)
		}
		return c, nil
	})
	if err != nil {
		if errors.IsInvalid(err) {
			return nil, err
		}
		return nil, errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrNoConnection, err),
			"WebSocketSource", "Run", "connect")
	}

	s.setConnected(true)
	s.logger.Info("connected", "url", s.cfg.URL)
	return conn, nil
}

// classifyDial tags a failed handshake. A malformed URL or a 4xx answer other
// than 408 and 429 will not change on the next attempt, so it is invalid.
func classifyDial(err error, status int) error {
	var uerr *url.Error
	switch {
	case stderrors.As(err, &uerr):
		return errors.WrapInvalid(err, "WebSocketSource", "Run", "parse url")
	case status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout && status != http.StatusTooManyRequests:
		return errors.WrapInvalid(fmt.Errorf("%w: status %d", err, status),
			"WebSocketSource", "Run", "handshake")
	case isTimeout(err):
		return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrConnectionTimeout, err),
			"WebSocketSource", "Run", "dial")
	default:
		return errors.WrapTransient(err, "WebSocketSource", "Run", "dial")
	}
}

// readLoop reads until the connection ends. done reports that the source
// should stop: the server closed normally, ctx was cancelled, or emit failed.
func (s *WebSocketSource) readLoop(ctx context.Context, conn *websocket.Conn, emit Emit) (done bool, err error) {
	// Closing the connection is the only way to interrupt ReadMessage.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
		s.setConnected(false)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("server closed connection", "url", s.cfg.URL)
				return true, nil
			}
			s.trackError("read")
			return false, nil
		}

		if err := s.emitPayload(emit, message); err != nil {
			return true, err
		}
	}
}
