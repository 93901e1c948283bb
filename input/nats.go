package input

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/ringkit/config"
	"github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/pkg/retry"
)

// natsPending is the channel depth between the NATS client and emit.
const natsPending = 1024

// NATSSource subscribes to a core NATS subject and emits every message payload
// line by line. It runs until ctx is cancelled or the connection is closed for good.
type NATSSource struct {
	base
	cfg   config.NATSConfig
	retry retry.Config
}

// NewNATSSource creates a NATS source.
func NewNATSSource(cfg config.NATSConfig, opts ...Option) *NATSSource {
	o := applyOptions(opts)
	return &NATSSource{
		base:  newBase("nats", o),
		cfg:   cfg,
		retry: o.retry,
	}
}

// connectionOptions mirrors the client settings used for long-lived subscribers.
func (s *NATSSource) connectionOptions(closed chan<- struct{}) []nats.Option {
	var closeOnce sync.Once
	return []nats.Option{
		nats.Name("ringtail"),
		nats.MaxReconnects(s.cfg.MaxReconnects),
		nats.ReconnectWait(s.cfg.ReconnectWait),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			s.setConnected(false)
			if err != nil {
				s.trackError("disconnect")
				s.logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			s.setConnected(true)
			s.logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			s.setConnected(false)
			closeOnce.Do(func() { close(closed) })
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			s.trackError("async")
			s.logger.Error("NATS async error", "error", err)
		}),
	}
}

// classifyConnect tags a nats.Connect failure. A server that rejects the
// credentials will reject them again, so those are invalid and end the retry.
func classifyConnect(err error) error {
	switch {
	case stderrors.Is(err, nats.ErrAuthorization),
		stderrors.Is(err, nats.ErrAuthExpired),
		stderrors.Is(err, nats.ErrAuthRevoked):
		return errors.WrapInvalid(err, "NATSSource", "Run", "authenticate")
	case isTimeout(err), stderrors.Is(err, nats.ErrTimeout):
		return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrConnectionTimeout, err),
			"NATSSource", "Run", "dial")
	default:
		return errors.WrapTransient(err, "NATSSource", "Run", "dial")
	}
}

// Run implements Source.
func (s *NATSSource) Run(ctx context.Context, emit Emit) error {
	if s.cfg.Subject == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %w: subject", errors.ErrInvalidConfig, errors.ErrMissingConfig),
			"NATSSource", "Run", "validate subject")
	}

	closed := make(chan struct{})
	opts := s.connectionOptions(closed)

	conn, err := errors.Retry(ctx, s.retry, func() (*nats.Conn, error) {
		nc, err := nats.Connect(s.cfg.URL, opts...)
		if err != nil {
			s.trackError("connect")
			s.logger.Debug("NATS connect attempt failed", "url", s.cfg.URL, "error", err)
			return nil, classifyConnect(err)
		}
		return nc, nil
	})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.IsInvalid(err):
			return err
		}
		return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrNoConnection, err),
			"NATSSource", "Run", "connect")
	}
	defer conn.Close()
	s.setConnected(true)

	msgs := make(chan *nats.Msg, natsPending)
	var sub *nats.Subscription
	if s.cfg.Queue != "" {
		sub, err = conn.ChanQueueSubscribe(s.cfg.Subject, s.cfg.Queue, msgs)
	} else {
		sub, err = conn.ChanSubscribe(s.cfg.Subject, msgs)
	}
	if err != nil {
		s.trackError("subscribe")
		return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrSubscriptionFailed, err),
			"NATSSource", "Run", "subscribe")
	}
	defer func() { _ = sub.Unsubscribe() }()

	s.logger.Info("subscribed", "url", conn.ConnectedUrl(), "subject", s.cfg.Subject, "queue", s.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return errors.WrapTransient(errors.ErrConnectionLost, "NATSSource", "Run", "connection closed")
		case msg := <-msgs:
			if err := s.emitPayload(emit, msg.Data); err != nil {
				return err
			}
		}
	}
}
