package input

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/c360/ringkit/config"
	"github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/metric"
	"github.com/c360/ringkit/pkg/retry"
)

// Emit receives one line. Returning an error stops the source, and Run returns
// that error.
type Emit func(line string) error

// Source produces lines until its input ends or the context is cancelled.
type Source interface {
	// Name identifies the source kind in logs and metric labels.
	Name() string

	// Run blocks until the input is exhausted, ctx is done, or emit fails.
	// Reaching the end of input and cancellation both return nil.
	Run(ctx context.Context, emit Emit) error
}

// Option configures a Source.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metric.Metrics
	retry   retry.Config
	stdin   io.Reader
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records line and error counts in the core metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRetry sets the backoff used when dialing remote sources. Defaults to retry.Quick().
func WithRetry(cfg retry.Config) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

// WithStdin replaces os.Stdin for a file source reading "-".
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		retry:  retry.Quick(),
		stdin:  os.Stdin,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// New builds the source selected by cfg.Kind.
func New(cfg config.SourceConfig, opts ...Option) (Source, error) {
	switch cfg.Kind {
	case config.SourceFile, "":
		return NewFileSource(cfg.Path, cfg.Follow, opts...), nil
	case config.SourceNATS:
		return NewNATSSource(cfg.NATS, opts...), nil
	case config.SourceWebSocket:
		return NewWebSocketSource(cfg.WebSocket, opts...), nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: unknown source kind %q", errors.ErrInvalidConfig, cfg.Kind),
			"input", "New", "select source")
	}
}

// base carries what every source shares.
type base struct {
	name    string
	logger  *slog.Logger
	metrics *metric.Metrics
}

func newBase(name string, o options) base {
	return base{
		name:    name,
		logger:  o.logger.With("source", name),
		metrics: o.metrics,
	}
}

// Name implements Source.
func (b *base) Name() string { return b.name }

func (b *base) emitLine(emit Emit, line string) error {
	if b.metrics != nil {
		b.metrics.RecordLineReceived(b.name)
	}
	return emit(line)
}

// emitPayload splits a message payload into lines. A trailing newline does not
// produce an empty line.
func (b *base) emitPayload(emit Emit, payload []byte) error {
	text := strings.TrimSuffix(string(payload), "\n")
	for _, line := range strings.Split(text, "\n") {
		if err := b.emitLine(emit, strings.TrimSuffix(line, "\r")); err != nil {
			return err
		}
	}
	return nil
}

func (b *base) trackError(errorType string) {
	if b.metrics != nil {
		b.metrics.RecordSourceError(b.name, errorType)
	}
}

func (b *base) setConnected(connected bool) {
	if b.metrics != nil {
		b.metrics.RecordSourceConnected(b.name, connected)
	}
}

// isTimeout reports whether a dial failed because it ran out of time.
func isTimeout(err error) bool {
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return stderrors.Is(err, os.ErrDeadlineExceeded)
}
