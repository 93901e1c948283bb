package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/pkg/ringbuffer"
)

type LoaderSuite struct {
	suite.Suite
	dir string
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *LoaderSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *LoaderSuite) TestDefaults() {
	cfg, err := NewLoader().Load()
	s.Require().NoError(err)

	s.Equal(10, cfg.Buffer.Capacity)
	s.Equal(ringbuffer.Overwrite, cfg.Buffer.Policy)
	s.Equal(SourceFile, cfg.Source.Kind)
	s.Equal(2*time.Second, cfg.Source.NATS.ReconnectWait)
	s.Equal(0, cfg.HTTP.Port)
	s.NoError(cfg.Validate())
}

func (s *LoaderSuite) TestJSONLayer() {
	path := s.write("ringtail.json", `{
		"buffer": {"capacity": 50, "policy": "reject"},
		"source": {"kind": "nats", "nats": {"subject": "logs.>", "reconnect_wait": "500ms"}}
	}`)

	cfg, err := NewLoader().LoadFile(path)
	s.Require().NoError(err)

	s.Equal(50, cfg.Buffer.Capacity)
	s.Equal(ringbuffer.Reject, cfg.Buffer.Policy)
	s.Equal(SourceNATS, cfg.Source.Kind)
	s.Equal("logs.>", cfg.Source.NATS.Subject)
	s.Equal(500*time.Millisecond, cfg.Source.NATS.ReconnectWait)
	s.Equal("nats://localhost:4222", cfg.Source.NATS.URL, "unset fields keep defaults")
	s.Equal(-1, cfg.Source.NATS.MaxReconnects)
}

func (s *LoaderSuite) TestYAMLLayersMerge() {
	base := s.write("base.yaml", `
buffer:
  capacity: 100
source:
  kind: websocket
  websocket:
    url: ws://localhost:9000/lines
    handshake_timeout: 5s
log:
  format: text
`)
	override := s.write("override.yml", `
buffer:
  policy: reject
log:
  level: debug
`)

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)
	loader.EnableValidation(true)

	cfg, err := loader.Load()
	s.Require().NoError(err)

	s.Equal(100, cfg.Buffer.Capacity)
	s.Equal(ringbuffer.Reject, cfg.Buffer.Policy)
	s.Equal("ws://localhost:9000/lines", cfg.Source.WebSocket.URL)
	s.Equal(5*time.Second, cfg.Source.WebSocket.HandshakeTimeout)
	s.Equal("text", cfg.Log.Format)
	s.Equal("debug", cfg.Log.Level)
}

func (s *LoaderSuite) TestEnvOverrides() {
	path := s.write("ringtail.yaml", "buffer:\n  capacity: 5\n")
	s.T().Setenv("RINGTAIL_CAPACITY", "42")
	s.T().Setenv("RINGTAIL_POLICY", "reject")
	s.T().Setenv("RINGTAIL_FOLLOW", "true")
	s.T().Setenv("RINGTAIL_PATH", "/var/log/app.log")
	s.T().Setenv("RINGTAIL_HTTP_PORT", "8080")
	s.T().Setenv("RINGTAIL_LOG_LEVEL", "warn")

	cfg, err := NewLoader().LoadFile(path)
	s.Require().NoError(err)

	s.Equal(42, cfg.Buffer.Capacity)
	s.Equal(ringbuffer.Reject, cfg.Buffer.Policy)
	s.True(cfg.Source.Follow)
	s.Equal("/var/log/app.log", cfg.Source.Path)
	s.Equal(8080, cfg.HTTP.Port)
	s.Equal("warn", cfg.Log.Level)
}

func (s *LoaderSuite) TestEnvPrefix() {
	s.T().Setenv("TAILX_CAPACITY", "7")

	loader := NewLoader()
	loader.SetEnvPrefix("TAILX")
	cfg, err := loader.Load()
	s.Require().NoError(err)
	s.Equal(7, cfg.Buffer.Capacity)
}

func (s *LoaderSuite) TestBadEnvValues() {
	for name, value := range map[string]string{
		"RINGTAIL_CAPACITY":  "ten",
		"RINGTAIL_POLICY":    "sideways",
		"RINGTAIL_FOLLOW":    "maybe",
		"RINGTAIL_HTTP_PORT": "http",
	} {
		s.Run(name, func() {
			s.T().Setenv(name, value)
			_, err := NewLoader().Load()
			s.Error(err)
			s.True(errors.IsInvalid(err))
		})
	}
}

func (s *LoaderSuite) TestValidationFailure() {
	path := s.write("bad.json", `{"buffer": {"capacity": 0}}`)

	loader := NewLoader()
	loader.EnableValidation(true)
	_, err := loader.LoadFile(path)

	s.Require().Error(err)
	s.ErrorIs(err, errors.ErrInvalidConfig)

	// Without validation the same file loads.
	cfg, err := NewLoader().LoadFile(path)
	s.Require().NoError(err)
	s.Equal(0, cfg.Buffer.Capacity)
}

func (s *LoaderSuite) TestLoadErrors() {
	cases := map[string]string{
		"missing":       filepath.Join(s.dir, "nope.yaml"),
		"bad extension": s.write("ringtail.toml", "capacity = 1"),
		"bad json":      s.write("broken.json", `{"buffer": `),
		"bad yaml":      s.write("broken.yaml", "buffer: [unclosed"),
		"bad duration":  s.write("dur.yaml", "source:\n  nats:\n    reconnect_wait: soon\n"),
		"bad policy":    s.write("policy.json", `{"buffer": {"policy": "sideways"}}`),
	}

	for name, path := range cases {
		s.Run(name, func() {
			_, err := NewLoader().LoadFile(path)
			s.Error(err)
			s.True(errors.IsInvalid(err), "got %v", err)
		})
	}

	_, err := NewLoader().LoadFile(cases["missing"])
	s.ErrorIs(err, errors.ErrConfigNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero capacity", func(c *Config) { c.Buffer.Capacity = 0 }, "buffer.capacity"},
		{"negative capacity", func(c *Config) { c.Buffer.Capacity = -3 }, "buffer.capacity"},
		{"unknown policy", func(c *Config) { c.Buffer.Policy = ringbuffer.Policy(5) }, "buffer.policy"},
		{"unknown source", func(c *Config) { c.Source.Kind = "udp" }, "source.kind"},
		{"follow stdin", func(c *Config) { c.Source.Follow = true }, "source.follow"},
		{"follow file", func(c *Config) { c.Source.Follow = true; c.Source.Path = "app.log" }, ""},
		{"nats without subject", func(c *Config) { c.Source.Kind = SourceNATS }, "source.nats.subject"},
		{"nats without url", func(c *Config) {
			c.Source.Kind = SourceNATS
			c.Source.NATS.URL = ""
			c.Source.NATS.Subject = "x"
		}, "source.nats.url"},
		{"websocket without url", func(c *Config) { c.Source.Kind = SourceWebSocket }, "source.websocket.url"},
		{"websocket http url", func(c *Config) {
			c.Source.Kind = SourceWebSocket
			c.Source.WebSocket.URL = "http://example.com"
		}, "ws://"},
		{"port out of range", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"metrics path", func(c *Config) { c.HTTP.Port = 8080; c.HTTP.MetricsPath = "metrics" }, "metrics_path"},
		{"metrics on lines", func(c *Config) { c.HTTP.Port = 8080; c.HTTP.MetricsPath = PathLines }, "reserved"},
		{"metrics on stats", func(c *Config) { c.HTTP.Port = 8080; c.HTTP.MetricsPath = PathStats }, "reserved"},
		{"metrics on health", func(c *Config) { c.HTTP.Port = 8080; c.HTTP.MetricsPath = PathHealth }, "reserved"},
		{"reserved path without server", func(c *Config) { c.HTTP.Port = 0; c.HTTP.MetricsPath = PathLines }, ""},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"follow without path", func(c *Config) { c.Source.Follow = true }, "source.path"},
		{"nats url", func(c *Config) {
			c.Source.Kind = SourceNATS
			c.Source.NATS.URL = ""
		}, "source.nats.url"},
		{"nats subject", func(c *Config) { c.Source.Kind = SourceNATS }, "source.nats.subject"},
		{"websocket url", func(c *Config) { c.Source.Kind = SourceWebSocket }, "source.websocket.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.ErrorIs(t, err, errors.ErrMissingConfig)
			assert.True(t, errors.IsFatal(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	cfg := Defaults()
	cfg.Buffer.Capacity = 0
	assert.NotErrorIs(t, cfg.Validate(), errors.ErrMissingConfig)
}

func TestString(t *testing.T) {
	out := Defaults().String()
	assert.Contains(t, out, `"policy": "overwrite"`)
	assert.Contains(t, out, `"capacity": 10`)
}
