// Package config loads the client configuration from YAML and the environment.
package config

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/axon-client/internal/client"
	"github.com/rxtech-lab/axon-client/internal/control"
	"github.com/rxtech-lab/axon-client/internal/feed"
	"github.com/rxtech-lab/axon-client/internal/stream"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvBaseURL   = "AXON_BASE_URL"
	EnvStreamURL = "AXON_STREAM_URL"
	EnvToken     = "AXON_TOKEN"
)

const (
	DefaultBaseURL  = "http://localhost:8000"
	DefaultLogLevel = "info"
	streamPath      = "/ws/stream"
)

// ReconnectConfig holds the stream reconnect backoff bounds.
type ReconnectConfig struct {
	// Min is the base delay doubled on every attempt
	Min time.Duration `json:"min" yaml:"min" jsonschema:"description=Base reconnect delay doubled on every attempt" validate:"gte=0"`
	// Max caps the reconnect delay
	Max time.Duration `json:"max" yaml:"max" jsonschema:"description=Maximum reconnect delay" validate:"gte=0"`
}

// Config is the client configuration.
type Config struct {
	// BaseURL is the root of the control surface
	BaseURL string `json:"base_url" yaml:"base_url" jsonschema:"title=Base URL,description=Root URL of the trading service,default=http://localhost:8000" validate:"required,url"`
	// StreamURL is the streaming endpoint, derived from BaseURL when empty
	StreamURL string `json:"stream_url" yaml:"stream_url" jsonschema:"description=Streaming endpoint (derived from base_url when empty)" validate:"omitempty,url"`
	// Token is the identity token
	Token string `json:"token" yaml:"token" jsonschema:"description=Identity token sent as bearer token and stream query parameter"`
	// Mode selects signal or auto sessions
	Mode types.SessionMode `json:"mode" yaml:"mode" jsonschema:"description=Session mode,enum=signal,enum=auto,default=auto" validate:"oneof=signal auto"`
	// RequestTimeout bounds a control call, zero means no timeout
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" jsonschema:"description=Control call timeout (0 disables it)" validate:"gte=0"`
	// DialTimeout bounds a stream dial
	DialTimeout time.Duration `json:"dial_timeout" yaml:"dial_timeout" jsonschema:"description=Stream dial timeout" validate:"gte=0"`
	// Reconnect holds the reconnect backoff bounds
	Reconnect ReconnectConfig `json:"reconnect" yaml:"reconnect" jsonschema:"description=Stream reconnect backoff"`
	// FeedCapacity bounds the signal and log feeds
	FeedCapacity int `json:"feed_capacity" yaml:"feed_capacity" jsonschema:"description=Entries kept in the signal and log feeds,default=100" validate:"gte=0"`
	// LogLevel is the minimum log level
	LogLevel string `json:"log_level" yaml:"log_level" jsonschema:"description=Minimum log level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"oneof=debug info warn error"`
	// Session holds the defaults used when starting a session
	Session types.StartParams `json:"session" yaml:"session" jsonschema:"description=Session start parameters"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		StreamURL:      "",
		Token:          "",
		Mode:           types.SessionModeAuto,
		RequestTimeout: 0,
		DialTimeout:    stream.DefaultDialTimeout,
		Reconnect: ReconnectConfig{
			Min: stream.DefaultReconnectMin,
			Max: stream.DefaultReconnectMax,
		},
		FeedCapacity: feed.DefaultCapacity,
		LogLevel:     DefaultLogLevel,
		Session:      types.StartParams{}.WithDefaults(), //nolint:exhaustruct
	}
}

// Load reads the configuration file at path over the defaults, applies the
// environment overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	var data []byte

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		data = raw
	}

	return LoadFromBytes(data, os.LookupEnv)
}

// LoadFromBytes parses YAML over the defaults, applies overrides from lookup
// and validates the result.
func LoadFromBytes(data []byte, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
		}
	}

	cfg.ApplyEnv(lookup)
	cfg.Session = cfg.Session.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides the endpoints and the token from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}

	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}

	if v, ok := lookup(EnvStreamURL); ok && v != "" {
		c.StreamURL = v
	}

	if v, ok := lookup(EnvToken); ok && v != "" {
		c.Token = v
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

// StreamEndpoint returns StreamURL, or the stream path on BaseURL with the
// scheme switched to ws or wss.
func (c *Config) StreamEndpoint() string {
	if c.StreamURL != "" {
		return c.StreamURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + streamPath

	return u.String()
}

// Level returns the zap level of LogLevel.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}

	return level
}

// ControlConfig returns the control client configuration.
func (c *Config) ControlConfig() control.Config {
	return control.Config{
		BaseURL:        c.BaseURL,
		RequestTimeout: c.RequestTimeout,
	}
}

// ClientConfig returns the trading client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		Mode: c.Mode,
		Stream: stream.Config{
			StreamURL: c.StreamEndpoint(),
			Policy: stream.ReconnectPolicy{
				Min: c.Reconnect.Min,
				Max: c.Reconnect.Max,
			},
			DialTimeout: c.DialTimeout,
			ReadLimit:   0,
		},
		FeedCapacity: c.FeedCapacity,
	}
}

// GetConfigSchema returns the JSON schema for Config.
func GetConfigSchema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(&Config{}) //nolint:exhaustruct // Empty config for schema generation

	data, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
