package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/pkg/ringbuffer"
)

// Source kinds
const (
	SourceFile      = "file"
	SourceNATS      = "nats"
	SourceWebSocket = "websocket"
)

// Config represents the complete ringtail configuration
type Config struct {
	Buffer BufferConfig `json:"buffer" yaml:"buffer"`
	Source SourceConfig `json:"source" yaml:"source"`
	HTTP   HTTPConfig   `json:"http" yaml:"http"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

// BufferConfig sizes the line window
type BufferConfig struct {
	Capacity int               `json:"capacity" yaml:"capacity"`
	Policy   ringbuffer.Policy `json:"policy" yaml:"policy"` // overwrite keeps the tail, reject the head
}

// SourceConfig selects where lines come from
type SourceConfig struct {
	Kind      string          `json:"kind" yaml:"kind"`
	Path      string          `json:"path,omitempty" yaml:"path,omitempty"` // empty or "-" reads stdin
	Follow    bool            `json:"follow,omitempty" yaml:"follow,omitempty"`
	NATS      NATSConfig      `json:"nats" yaml:"nats"`
	WebSocket WebSocketConfig `json:"websocket" yaml:"websocket"`
}

// NATSConfig defines the NATS subscription
type NATSConfig struct {
	URL           string        `json:"url" yaml:"url"`
	Subject       string        `json:"subject,omitempty" yaml:"subject,omitempty"`
	Queue         string        `json:"queue,omitempty" yaml:"queue,omitempty"`
	MaxReconnects int           `json:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait time.Duration `json:"reconnect_wait" yaml:"reconnect_wait"`
}

// WebSocketConfig defines the WebSocket client
type WebSocketConfig struct {
	URL              string        `json:"url,omitempty" yaml:"url,omitempty"`
	HandshakeTimeout time.Duration `json:"handshake_timeout" yaml:"handshake_timeout"`
}

// Routes ringtail serves next to the metrics endpoint. MetricsPath may not
// take any of them.
const (
	PathLines  = "/lines"
	PathStats  = "/stats"
	PathHealth = "/health"
)

// HTTPConfig controls the optional HTTP endpoint
type HTTPConfig struct {
	Port        int    `json:"port" yaml:"port"` // 0 disables the server
	MetricsPath string `json:"metrics_path" yaml:"metrics_path"`
}

// LogConfig controls log output
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Buffer.Capacity <= 0 {
		return invalid("buffer.capacity must be positive, got %d", c.Buffer.Capacity)
	}
	if _, err := c.Buffer.Policy.MarshalText(); err != nil {
		return invalid("buffer.policy: %v", err)
	}

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Follow && (c.Source.Path == "" || c.Source.Path == "-") {
			return missing("source.path (required by source.follow)")
		}
	case SourceNATS:
		if c.Source.NATS.URL == "" {
			return missing("source.nats.url")
		}
		if c.Source.NATS.Subject == "" {
			return missing("source.nats.subject")
		}
	case SourceWebSocket:
		if c.Source.WebSocket.URL == "" {
			return missing("source.websocket.url")
		}
		if !strings.HasPrefix(c.Source.WebSocket.URL, "ws://") && !strings.HasPrefix(c.Source.WebSocket.URL, "wss://") {
			return invalid("source.websocket.url must use ws:// or wss://, got %q", c.Source.WebSocket.URL)
		}
	default:
		return invalid("source.kind %q is not one of file, nats, websocket", c.Source.Kind)
	}

	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return invalid("http.port out of range: %d", c.HTTP.Port)
	}
	if c.HTTP.Port != 0 && !strings.HasPrefix(c.HTTP.MetricsPath, "/") {
		return invalid("http.metrics_path must start with /, got %q", c.HTTP.MetricsPath)
	}
	if c.HTTP.Port != 0 {
		switch c.HTTP.MetricsPath {
		case PathLines, PathStats, PathHealth:
			return invalid("http.metrics_path %q is reserved for ringtail's own routes", c.HTTP.MetricsPath)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return invalid("log.format %q is not one of json, text", c.Log.Format)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func missing(field string) error {
	return fmt.Errorf("%w: %w: %s", errors.ErrInvalidConfig, errors.ErrMissingConfig, field)
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  "RINGTAIL",
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// SetEnvPrefix changes the environment variable prefix (default RINGTAIL)
func (l *Loader) SetEnvPrefix(prefix string) {
	l.envPrefix = prefix
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load applies defaults, file layers, then environment overrides
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("load %s", path))
		}
		merged, err := l.mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("merge %s", path))
		}
		cfg = merged
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "environment overrides")
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "validation")
		}
	}

	return cfg, nil
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Buffer: BufferConfig{
			Capacity: 10,
			Policy:   ringbuffer.Overwrite,
		},
		Source: SourceConfig{
			Kind: SourceFile,
			NATS: NATSConfig{
				URL:           "nats://localhost:4222",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			},
			WebSocket: WebSocketConfig{
				HandshakeTimeout: 45 * time.Second,
			},
		},
		HTTP: HTTPConfig{
			MetricsPath: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadRaw reads a JSON or YAML layer into a generic map
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		}
	default:
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("invalid JSON structure: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		}
	}

	if err := parseDurations(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// durationFields lists the nested keys holding time.Duration values
var durationFields = [][]string{
	{"source", "nats", "reconnect_wait"},
	{"source", "websocket", "handshake_timeout"},
}

// parseDurations converts duration strings such as "2s" to nanoseconds for json unmarshaling
func parseDurations(raw map[string]any) error {
	for _, keys := range durationFields {
		parent := raw
		for _, k := range keys[:len(keys)-1] {
			next, ok := parent[k].(map[string]any)
			if !ok {
				parent = nil
				break
			}
			parent = next
		}
		if parent == nil {
			continue
		}

		last := keys[len(keys)-1]
		if s, ok := parent[last].(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("%s: %w", strings.Join(keys, "."), err)
			}
			parent[last] = d.Nanoseconds()
		}
	}
	return nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	if override == nil {
		return base, nil
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}

	return result
}

// applyEnvOverrides applies PREFIX_* environment variables
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	env := func(name string) (string, error) {
		key := l.envPrefix + "_" + name
		val := os.Getenv(key)
		return val, validateEnvVar(key, val)
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"SOURCE", &cfg.Source.Kind},
		{"PATH", &cfg.Source.Path},
		{"NATS_URL", &cfg.Source.NATS.URL},
		{"NATS_SUBJECT", &cfg.Source.NATS.Subject},
		{"NATS_QUEUE", &cfg.Source.NATS.Queue},
		{"WS_URL", &cfg.Source.WebSocket.URL},
		{"METRICS_PATH", &cfg.HTTP.MetricsPath},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
	}
	for _, s := range strs {
		val, err := env(s.name)
		if err != nil {
			return err
		}
		if val != "" {
			*s.dst = val
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CAPACITY", &cfg.Buffer.Capacity},
		{"HTTP_PORT", &cfg.HTTP.Port},
	}
	for _, i := range ints {
		val, err := env(i.name)
		if err != nil {
			return err
		}
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s_%s: %w", l.envPrefix, i.name, err)
		}
		*i.dst = n
	}

	if val, err := env("POLICY"); err != nil {
		return err
	} else if val != "" {
		if err := cfg.Buffer.Policy.UnmarshalText([]byte(val)); err != nil {
			return fmt.Errorf("%s_POLICY: %w", l.envPrefix, err)
		}
	}

	if val, err := env("FOLLOW"); err != nil {
		return err
	} else if val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%s_FOLLOW: %w", l.envPrefix, err)
		}
		cfg.Source.Follow = b
	}

	return nil
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
