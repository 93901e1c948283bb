package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/c360/ringkit/config"
	"github.com/c360/ringkit/pkg/ringbuffer"
)

// CLIConfig holds command-line configuration. Buffer, source, HTTP and log
// flags override the loaded config only when given explicitly.
type CLIConfig struct {
	ConfigPath      string
	Capacity        int
	Policy          string
	Source          string
	Path            string
	Follow          bool
	NATSURL         string
	Subject         string
	WSURL           string
	HTTPPort        int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool

	set map[string]bool
}

// parseFlags parses args (without the program name). flag.ErrHelp is returned
// for -h and -help after usage has been written to output.
func parseFlags(args []string, output io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("RINGTAIL_CONFIG", ""),
		"Path to configuration file, .json .yaml or .yml (env: RINGTAIL_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("RINGTAIL_CONFIG", ""),
		"Path to configuration file (shorthand)")

	fs.IntVar(&cfg.Capacity, "capacity", 10, "Number of lines to retain (env: RINGTAIL_CAPACITY)")
	fs.IntVar(&cfg.Capacity, "n", 10, "Number of lines to retain (shorthand)")

	fs.StringVar(&cfg.Policy, "policy", "overwrite",
		"When full: overwrite keeps the last lines, reject keeps the first (env: RINGTAIL_POLICY)")
	fs.StringVar(&cfg.Source, "source", config.SourceFile,
		"Line source: file, nats, websocket (env: RINGTAIL_SOURCE)")

	fs.BoolVar(&cfg.Follow, "follow", false, "Keep reading the file as it grows (env: RINGTAIL_FOLLOW)")
	fs.BoolVar(&cfg.Follow, "f", false, "Keep reading the file as it grows (shorthand)")

	fs.StringVar(&cfg.NATSURL, "nats-url", "", "NATS server URL (env: RINGTAIL_NATS_URL)")
	fs.StringVar(&cfg.Subject, "subject", "", "NATS subject to subscribe to (env: RINGTAIL_NATS_SUBJECT)")
	fs.StringVar(&cfg.WSURL, "ws-url", "", "WebSocket URL to read from (env: RINGTAIL_WS_URL)")

	fs.IntVar(&cfg.HTTPPort, "http-port", 0,
		"Serve /lines, /stats, /metrics and /health on this port, 0 to disable (env: RINGTAIL_HTTP_PORT)")

	fs.StringVar(&cfg.LogLevel, "log-level", "info",
		"Log level: debug, info, warn, error (env: RINGTAIL_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "json",
		"Log format: json, text (env: RINGTAIL_LOG_FORMAT)")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("RINGTAIL_SHUTDOWN_TIMEOUT", 5*time.Second),
		"Graceful HTTP shutdown timeout (env: RINGTAIL_SHUTDOWN_TIMEOUT)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")

	fs.Usage = func() { printDetailedHelp(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowHelp {
		fs.Usage()
		return nil, flag.ErrHelp
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one path, got %d", fs.NArg())
	}
	cfg.Path = fs.Arg(0)

	cfg.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	return cfg, nil
}

func (c *CLIConfig) isSet(names ...string) bool {
	for _, name := range names {
		if c.set[name] {
			return true
		}
	}
	return false
}

// applyTo overrides cfg with the flags given on the command line. A positional
// path selects the file source.
func (c *CLIConfig) applyTo(cfg *config.Config) error {
	if c.isSet("capacity", "n") {
		cfg.Buffer.Capacity = c.Capacity
	}
	if c.isSet("policy") {
		policy, err := ringbuffer.ParsePolicy(c.Policy)
		if err != nil {
			return fmt.Errorf("-policy: %w", err)
		}
		cfg.Buffer.Policy = policy
	}
	if c.isSet("source") {
		cfg.Source.Kind = c.Source
	}
	if c.Path != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = c.Path
	}
	if c.isSet("follow", "f") {
		cfg.Source.Follow = c.Follow
	}
	if c.isSet("nats-url") {
		cfg.Source.NATS.URL = c.NATSURL
	}
	if c.isSet("subject") {
		cfg.Source.NATS.Subject = c.Subject
	}
	if c.isSet("ws-url") {
		cfg.Source.WebSocket.URL = c.WSURL
	}
	if c.isSet("http-port") {
		cfg.HTTP.Port = c.HTTPPort
	}
	if c.isSet("log-level") {
		cfg.Log.Level = c.LogLevel
	}
	if c.isSet("log-format") {
		cfg.Log.Format = c.LogFormat
	}
	return nil
}

func printDetailedHelp(fs *flag.FlagSet) {
	out := fs.Output()
	_, _ = fmt.Fprintf(out, `%s - keep the last (or first) N lines of a stream

Usage: %s [options] [path]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(out, `
Examples:
  # Last 20 lines of a file
  %s -n 20 /var/log/app.log

  # First 5 lines of stdin
  cat big.log | %s -n 5 -policy reject

  # Follow a file and expose the window over HTTP
  %s -f -http-port 9090 /var/log/app.log

  # Tail a NATS subject
  %s -source nats -nats-url nats://localhost:4222 -subject 'logs.>'

Version: %s
Build: %s
`, appName, appName, appName, appName, Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// portString formats a port for log output.
func portString(port int) string {
	if port == 0 {
		return "disabled"
	}
	return strconv.Itoa(port)
}
