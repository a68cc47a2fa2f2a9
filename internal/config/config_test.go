package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func noEnv(string) (string, bool) {
	return "", false
}

func envOf(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]

		return v, ok
	}
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := LoadFromBytes(nil, noEnv)
	suite.Require().NoError(err)

	suite.Equal(DefaultBaseURL, cfg.BaseURL)
	suite.Equal(types.SessionModeAuto, cfg.Mode)
	suite.Equal(500*time.Millisecond, cfg.Reconnect.Min)
	suite.Equal(5*time.Second, cfg.Reconnect.Max)
	suite.Equal(time.Duration(0), cfg.RequestTimeout)
	suite.Equal("ws://localhost:8000/ws/stream", cfg.StreamEndpoint())
	suite.Equal([]string{types.DefaultPair}, cfg.Session.Pairs)
	suite.Equal(zapcore.InfoLevel, cfg.Level())
}

func (suite *ConfigTestSuite) TestYAMLOverridesDefaults() {
	data := []byte(`
base_url: https://api.example.com/v1
mode: signal
request_timeout: 3s
reconnect:
  min: 250ms
  max: 2s
feed_capacity: 20
log_level: debug
session:
  pairs: [GBP/USD, " USD/JPY "]
  trade_amount: 25
`)

	cfg, err := LoadFromBytes(data, noEnv)
	suite.Require().NoError(err)

	suite.Equal(types.SessionModeSignal, cfg.Mode)
	suite.Equal(3*time.Second, cfg.RequestTimeout)
	suite.Equal(250*time.Millisecond, cfg.Reconnect.Min)
	suite.Equal(2*time.Second, cfg.Reconnect.Max)
	suite.Equal(20, cfg.FeedCapacity)
	suite.Equal(zapcore.DebugLevel, cfg.Level())
	suite.Equal([]string{"GBP/USD", "USD/JPY"}, cfg.Session.Pairs)
	suite.InDelta(25.0, cfg.Session.TradeAmount, 1e-9)
	suite.Equal(types.DefaultStrategyID, cfg.Session.StrategyID)
	suite.Equal("wss://api.example.com/v1/ws/stream", cfg.StreamEndpoint())

	clientConfig := cfg.ClientConfig()
	suite.Equal(types.SessionModeSignal, clientConfig.Mode)
	suite.Equal("wss://api.example.com/v1/ws/stream", clientConfig.Stream.StreamURL)
	suite.Equal(250*time.Millisecond, clientConfig.Stream.Policy.Min)

	controlConfig := cfg.ControlConfig()
	suite.Equal("https://api.example.com/v1", controlConfig.BaseURL)
	suite.Equal(3*time.Second, controlConfig.RequestTimeout)
}

func (suite *ConfigTestSuite) TestEnvironmentOverrides() {
	data := []byte("base_url: http://file.example.com\ntoken: from-file\n")

	cfg, err := LoadFromBytes(data, envOf(map[string]string{
		EnvBaseURL:   "http://env.example.com",
		EnvStreamURL: "ws://stream.example.com/live",
		EnvToken:     "from-env",
	}))
	suite.Require().NoError(err)

	suite.Equal("http://env.example.com", cfg.BaseURL)
	suite.Equal("ws://stream.example.com/live", cfg.StreamEndpoint())
	suite.Equal("from-env", cfg.Token)

	cfg, err = LoadFromBytes(data, envOf(map[string]string{EnvToken: ""}))
	suite.Require().NoError(err)
	suite.Equal("from-file", cfg.Token)
}

func (suite *ConfigTestSuite) TestInvalidConfig() {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad yaml", data: "base_url: [unterminated"},
		{name: "bad mode", data: "mode: manual"},
		{name: "bad url", data: "base_url: not a url"},
		{name: "negative timeout", data: "request_timeout: -1s"},
		{name: "bad log level", data: "log_level: verbose"},
		{name: "negative stop loss", data: "session:\n  stop_loss: -5"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := LoadFromBytes([]byte(tc.data), noEnv)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestLoadFile() {
	path := filepath.Join(suite.T().TempDir(), "axon.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("mode: signal\n"), 0o600))

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal(types.SessionModeSignal, cfg.Mode)

	_, err = Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestGetConfigSchema() {
	schema, err := GetConfigSchema()
	suite.Require().NoError(err)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &parsed))

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "base_url")
	suite.Contains(properties, "reconnect")
	suite.Contains(properties, "session")
}
