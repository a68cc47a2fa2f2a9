package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rxtech-lab/axon-client/internal/config"
	"github.com/rxtech-lab/axon-client/internal/control"
	"github.com/rxtech-lab/axon-client/internal/identity"
	"github.com/rxtech-lab/axon-client/internal/logger"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"github.com/urfave/cli/v3"
)

// environment is what every command needs to talk to the service.
type environment struct {
	config  config.Config
	tokens  *identity.StaticToken
	logger  *logger.Logger
	control *control.HTTPClient
	out     *output
}

func loadEnvironment(cmd *cli.Command) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerWithOutput(cfg.Level(), "stderr")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tokens := identity.NewStaticToken(cfg.Token)

	ctl, err := control.NewHTTPClient(cfg.ControlConfig(), tokens, log)
	if err != nil {
		return nil, err
	}

	return &environment{
		config:  cfg,
		tokens:  tokens,
		logger:  log,
		control: ctl,
		out:     newOutput(cmd.Root().Writer),
	}, nil
}

// loadConfig loads the config file and applies the global flags on top.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err //nolint:exhaustruct
	}

	if cmd.IsSet("base-url") {
		cfg.BaseURL = cmd.String("base-url")
	}

	if cmd.IsSet("stream-url") {
		cfg.StreamURL = cmd.String("stream-url")
	}

	if cmd.IsSet("token") {
		cfg.Token = cmd.String("token")
	}

	if cmd.IsSet("mode") {
		cfg.Mode = types.SessionMode(cmd.String("mode"))
	}

	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err //nolint:exhaustruct
	}

	return cfg, nil
}

// output writes command results as indented JSON. It is safe for use from
// stream callbacks.
type output struct {
	mu sync.Mutex
	w  io.Writer
}

func newOutput(w io.Writer) *output {
	return &output{
		mu: sync.Mutex{},
		w:  w,
	}
}

func (o *output) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	_, err = fmt.Fprintln(o.w, string(data))

	return err
}

// Event writes a single line event of the given kind.
func (o *output) Event(kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%q", err.Error()))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	_, _ = fmt.Fprintf(o.w, "%s %s\n", kind, data)
}

// describe turns a service error into the text shown to the user.
func describe(err error) error {
	serviceErr, ok := errors.AsServiceError(err)
	if !ok {
		return err
	}

	if serviceErr.RetryMinutes.IsSome() {
		err = fmt.Errorf("%w: try again in %d minute(s)", err, serviceErr.RetryMinutes.Unwrap())
	}

	if serviceErr.Advice != "" {
		err = fmt.Errorf("%w (%s)", err, serviceErr.Advice)
	}

	return err
}
