// Package main implements ringtail, which keeps the last (or first) N lines of
// a file, stdin, a NATS subject or a WebSocket stream in a fixed-size ring
// buffer and prints them when the stream ends.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/ringkit/config"
	"github.com/c360/ringkit/health"
	"github.com/c360/ringkit/input"
	"github.com/c360/ringkit/metric"
	"github.com/c360/ringkit/pkg/ringbuffer"
	"github.com/c360/ringkit/pkg/ringsync"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ringtail"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

// run reads the configured source into the buffer until the source ends or ctx
// is cancelled, then writes the retained lines to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args, stderr)
	if stderrors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("Starting ringtail",
		"version", Version,
		"source", cfg.Source.Kind,
		"capacity", cfg.Buffer.Capacity,
		"policy", cfg.Buffer.Policy.String(),
		"http_port", portString(cfg.HTTP.Port))

	registry := metric.NewMetricsRegistry()

	buf, err := ringsync.New[string](cfg.Buffer.Capacity,
		ringsync.WithBufferOptions(
			ringbuffer.WithPolicy[string](cfg.Buffer.Policy),
			ringbuffer.WithMetrics[string](registry, appName),
		),
	)
	if err != nil {
		return fmt.Errorf("create buffer: %w", err)
	}
	defer func() { _ = buf.Close() }()

	src, err := input.New(cfg.Source,
		input.WithLogger(logger),
		input.WithMetrics(registry.CoreMetrics()),
	)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}

	if err := serve(ctx, cfg, src, buf, registry, logger, cli.ShutdownTimeout); err != nil {
		return err
	}

	for _, line := range buf.Snapshot() {
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	logger.Info("ringtail finished",
		"retained", buf.Size(),
		"pushes", buf.Stats().Pushes(),
		"evictions", buf.Stats().Evictions(),
		"rejections", buf.Stats().Rejections())
	return nil
}

// loadConfig layers defaults, the config file, RINGTAIL_* environment and
// explicit flags, then validates the result.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cli.applyTo(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// serve runs the source and, when enabled, the HTTP server. It returns once
// the source has ended and the server has shut down.
func serve(
	ctx context.Context,
	cfg *config.Config,
	src input.Source,
	buf *ringsync.Buffer[string],
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
	shutdownTimeout time.Duration,
) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	monitor := health.NewMonitor(appName)
	monitor.Update("source", health.Healthy("source", "reading from "+src.Name()))
	monitor.AddCheck("buffer", bufferCheck(buf))

	g.Go(func() error {
		// The server stays up only as long as the source.
		defer cancel()
		err := src.Run(gctx, pushLine(buf))
		monitor.Update("source", health.FromError("source", err, "finished"))
		if err != nil {
			return fmt.Errorf("%s source: %w", src.Name(), err)
		}
		logger.Debug("source finished", "source", src.Name())
		return nil
	})

	if cfg.HTTP.Port != 0 {
		server := metric.NewServer(cfg.HTTP.Port, cfg.HTTP.MetricsPath, registry)
		server.Handle(config.PathLines, linesHandler(buf, logger))
		server.Handle(config.PathStats, statsHandler(buf, logger))
		server.Handle(config.PathHealth, monitor.Handler())

		g.Go(func() error {
			logger.Info("HTTP server listening", "address", server.Address())
			return server.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// pushLine appends each line to the buffer. Under the reject policy a full
// buffer drops the line; the rejection is counted in the buffer statistics.
func pushLine(buf *ringsync.Buffer[string]) input.Emit {
	return func(line string) error {
		err := buf.PushBack(line)
		if stderrors.Is(err, ringbuffer.ErrBufferFull) {
			return nil
		}
		return err
	}
}
