package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/axon-client/internal/client"
	"github.com/rxtech-lab/axon-client/internal/config"
	"github.com/rxtech-lab/axon-client/internal/session"
	"github.com/rxtech-lab/axon-client/internal/types"
	"github.com/rxtech-lab/axon-client/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// withEnvironment loads the environment and runs action with it.
func withEnvironment(action func(ctx context.Context, cmd *cli.Command, env *environment) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}

		defer func() {
			_ = env.logger.Sync()
		}()

		return describe(action(ctx, cmd, env))
	}
}

// statusReport is printed by the status command.
type statusReport struct {
	Health string             `json:"health"`
	UserID string             `json:"user_id,omitempty"`
	Broker types.BrokerStatus `json:"broker"`
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show service health, the token owner and the broker link status",
		Action: withEnvironment(func(ctx context.Context, _ *cli.Command, env *environment) error {
			health, err := env.control.Health(ctx)
			if err != nil {
				return err
			}

			userID, err := env.control.VerifyToken(ctx)
			if err != nil {
				return err
			}

			broker, err := env.control.Status(ctx)
			if err != nil {
				return err
			}

			return env.out.JSON(statusReport{
				Health: health,
				UserID: userID,
				Broker: broker,
			})
		}),
	}
}

func pairsCommand() *cli.Command {
	return &cli.Command{
		Name:  "pairs",
		Usage: "List the tradable pairs",
		Action: withEnvironment(func(ctx context.Context, _ *cli.Command, env *environment) error {
			pairs, err := env.control.ListPairs(ctx)
			if err != nil {
				return err
			}

			return env.out.JSON(pairs)
		}),
	}
}

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "List the available strategies",
		Action: withEnvironment(func(ctx context.Context, _ *cli.Command, env *environment) error {
			strategies, err := env.control.ListStrategies(ctx)
			if err != nil {
				return err
			}

			return env.out.JSON(strategies)
		}),
	}
}

func connectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Log the service into the broker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Broker login",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Broker password",
				Sources: cli.EnvVars("AXON_BROKER_PASSWORD"),
			},
			&cli.StringFlag{
				Name:  "account-type",
				Usage: fmt.Sprintf("Balance to trade with (%s or %s)", types.AccountTypePractice, types.AccountTypeReal),
				Value: string(types.AccountTypePractice),
			},
		},
		Action: withEnvironment(func(ctx context.Context, cmd *cli.Command, env *environment) error {
			creds := types.BrokerCredentials{
				Username:    cmd.String("username"),
				Password:    cmd.String("password"),
				AccountType: types.AccountType(strings.ToUpper(cmd.String("account-type"))),
			}

			if err := env.control.Connect(ctx, creds); err != nil {
				return err
			}

			return env.out.JSON(types.BrokerStatus{Connected: true})
		}),
	}
}

func disconnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "Drop the broker link",
		Action: withEnvironment(func(ctx context.Context, _ *cli.Command, env *environment) error {
			if err := env.control.Disconnect(ctx); err != nil {
				return err
			}

			return env.out.JSON(types.BrokerStatus{Connected: false})
		}),
	}
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Show the broker account balance",
		Action: withEnvironment(func(ctx context.Context, _ *cli.Command, env *environment) error {
			balance, err := env.control.Balance(ctx)
			if err != nil {
				return err
			}

			return env.out.JSON(balance)
		}),
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List recent sessions, most recent first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of sessions",
				Value: 10,
			},
		},
		Action: withEnvironment(func(ctx context.Context, cmd *cli.Command, env *environment) error {
			sessions, err := env.control.RecentSessions(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}

			return env.out.JSON(sessions)
		}),
	}
}

// tradesReport is printed by the trades command.
type tradesReport struct {
	Trades []types.TradeRecord `json:"trades"`
	Wins   int                 `json:"wins"`
	PnL    string              `json:"pnl"`
}

func tradesCommand() *cli.Command {
	return &cli.Command{
		Name:  "trades",
		Usage: "List recent trades with their total profit",
		Action: withEnvironment(func(ctx context.Context, _ *cli.Command, env *environment) error {
			trades, err := env.control.RecentTrades(ctx)
			if err != nil {
				return err
			}

			wins := 0
			for _, trade := range trades {
				if trade.IsWin() {
					wins++
				}
			}

			return env.out.JSON(tradesReport{
				Trades: trades,
				Wins:   wins,
				PnL:    types.TotalPnL(trades).StringFixed(2),
			})
		}),
	}
}

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "pairs",
			Usage: "Comma separated pairs to trade",
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: "Strategy id",
		},
		&cli.StringFlag{
			Name:  "timeframe",
			Usage: "Candle timeframe, e.g. 1min or 5min",
		},
		&cli.FloatFlag{
			Name:  "amount",
			Usage: "Amount per trade",
		},
		&cli.FloatFlag{
			Name:  "stop-loss",
			Usage: "Session loss that halts trading",
		},
		&cli.FloatFlag{
			Name:  "take-profit",
			Usage: "Session profit that halts trading",
		},
		&cli.IntFlag{
			Name:  "max-losses",
			Usage: "Consecutive losses that halt trading",
		},
		&cli.IntFlag{
			Name:  "max-trades",
			Usage: "Trades after which the session halts",
		},
	}
}

// startParams merges the session flags over the configured defaults.
func startParams(cmd *cli.Command, defaults types.StartParams) types.StartParams {
	params := defaults

	if cmd.IsSet("pairs") {
		params.Pairs = types.ParsePairs(cmd.String("pairs"))
	}

	if cmd.IsSet("strategy") {
		params.StrategyID = cmd.String("strategy")
	}

	if cmd.IsSet("timeframe") {
		params.Timeframe = cmd.String("timeframe")
	}

	if cmd.IsSet("amount") {
		params.TradeAmount = cmd.Float("amount")
	}

	if cmd.IsSet("stop-loss") {
		params.StopLoss = cmd.Float("stop-loss")
	}

	if cmd.IsSet("take-profit") {
		params.TakeProfit = cmd.Float("take-profit")
	}

	if cmd.IsSet("max-losses") {
		params.MaxConsecutiveLosses = int(cmd.Int("max-losses"))
	}

	if cmd.IsSet("max-trades") {
		params.MaxTrades = int(cmd.Int("max-trades"))
	}

	return params
}

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Start or stop a session of the configured mode",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a session",
				Flags: sessionFlags(),
				Action: withEnvironment(func(ctx context.Context, cmd *cli.Command, env *environment) error {
					controller, err := session.NewController(env.config.Mode, env.control, env.logger)
					if err != nil {
						return err
					}

					current, err := controller.Start(ctx, startParams(cmd, env.config.Session))
					if err != nil {
						return err
					}

					return env.out.JSON(current)
				}),
			},
			{
				Name:  "stop",
				Usage: "Stop a session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Session id",
						Required: true,
					},
				},
				Action: withEnvironment(func(ctx context.Context, cmd *cli.Command, env *environment) error {
					controller, err := session.NewController(env.config.Mode, env.control, env.logger)
					if err != nil {
						return err
					}

					if err := controller.Stop(ctx, cmd.String("id")); err != nil {
						return err
					}

					return env.out.JSON(controller.Session())
				}),
			},
			{
				Name:  "status",
				Usage: "Show the session the server reports as running",
				Action: withEnvironment(func(ctx context.Context, _ *cli.Command, env *environment) error {
					controller, err := session.NewController(env.config.Mode, env.control, env.logger)
					if err != nil {
						return err
					}

					if err := controller.Reconcile(ctx); err != nil {
						return err
					}

					return env.out.JSON(controller.Session())
				}),
			},
		},
	}
}

func streamCommand() *cli.Command {
	flags := append(sessionFlags(),
		&cli.BoolFlag{
			Name:  "start-session",
			Usage: "Start a session once the stream is open and stop it on exit",
		},
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "Stop streaming after this long, 0 streams until interrupted",
		},
	)

	return &cli.Command{
		Name:  "stream",
		Usage: "Follow the live stream, printing one event per line",
		Flags: flags,
		Action: withEnvironment(func(ctx context.Context, cmd *cli.Command, env *environment) error {
			if d := cmd.Duration("duration"); d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)

				defer cancel()
			}

			tc, err := client.NewTradingClient(
				env.config.ClientConfig(), env.control, env.tokens, nil, streamCallbacks(env.out), env.logger)
			if err != nil {
				return err
			}
			defer tc.Close()

			if err := tc.Start(ctx); err != nil {
				return err
			}

			if cmd.Bool("start-session") {
				if _, err := tc.StartSession(ctx, startParams(cmd, env.config.Session)); err != nil {
					return err
				}
			}

			<-ctx.Done()

			if cmd.Bool("start-session") {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := tc.StopSession(stopCtx); err != nil {
					env.logger.Warn("Failed to stop session", zap.Error(err))
				}
			}

			summary := streamSummary{
				Session:        tc.Session(),
				Metrics:        tc.Metrics(),
				Health:         tc.Health(),
				Degraded:       tc.Degraded(),
				LatestSignal:   nil,
				DecodeFailures: tc.DecodeFailures(),
			}
			if latest, ok := tc.LatestSignal(); ok {
				summary.LatestSignal = &latest
			}

			return env.out.JSON(summary)
		}),
	}
}

// streamSummary is printed when the stream command exits.
type streamSummary struct {
	Session        types.Session         `json:"session"`
	Metrics        types.MetricsSnapshot `json:"metrics"`
	Health         types.HealthSnapshot  `json:"health"`
	Degraded       bool                  `json:"degraded"`
	LatestSignal   *types.SignalEvent    `json:"latest_signal,omitempty"`
	DecodeFailures int64                 `json:"decode_failures"`
}

// connectionLine is the printable form of a connection event.
type connectionLine struct {
	State   types.ConnectionState `json:"state"`
	Attempt int                   `json:"attempt"`
	Error   string                `json:"error,omitempty"`
}

// serviceErrorLine is the printable form of a service error.
type serviceErrorLine struct {
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Advice  string `json:"advice,omitempty"`
}

func streamCallbacks(out *output) client.TradingCallbacks {
	onConnection := client.OnConnectionEventCallback(func(event types.ConnectionEvent) {
		line := connectionLine{State: event.State, Attempt: event.Attempt, Error: ""}
		if event.Err != nil {
			line.Error = event.Err.Error()
		}

		out.Event("connection", line)
	})
	onMetrics := client.OnMetricsCallback(func(snapshot types.MetricsSnapshot) {
		out.Event("metrics", snapshot)
	})
	onHealth := client.OnHealthCallback(func(snapshot types.HealthSnapshot) {
		out.Event("health", snapshot)
	})
	onSignal := client.OnSignalCallback(func(signal types.SignalEvent) {
		out.Event("signal", signal)
	})
	onLog := client.OnLogCallback(func(entry types.LogEntry) {
		out.Event("log", entry)
	})
	onSession := client.OnSessionChangeCallback(func(current types.Session) {
		out.Event("session", current)
	})
	onServiceError := client.OnServiceErrorCallback(func(err *errors.ServiceError) {
		out.Event("error", serviceErrorLine{
			Status:  err.StatusCode,
			Code:    err.ErrorCode,
			Message: err.Message,
			Advice:  err.Advice,
		})
	})
	onBroker := client.OnBrokerStatusCallback(func(status types.BrokerStatus) {
		out.Event("broker", status)
	})

	return client.TradingCallbacks{
		OnConnectionEvent: &onConnection,
		OnMessage:         nil,
		OnMetrics:         &onMetrics,
		OnHealth:          &onHealth,
		OnSignal:          &onSignal,
		OnLog:             &onLog,
		OnSessionChange:   &onSession,
		OnServiceError:    &onServiceError,
		OnBrokerStatus:    &onBroker,
	}
}

func configSchemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "config-schema",
		Usage: "Print the JSON schema of the configuration file",
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := config.GetConfigSchema()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, schema)

			return err
		},
	}
}
