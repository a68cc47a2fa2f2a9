package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/axon-client/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "axon",
		Usage:   "Control and monitor trading sessions on the trading service",
		Version: version.GetVersion(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Root URL of the trading service (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "stream-url",
				Usage: "Streaming endpoint (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Identity token (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Session mode: signal or auto (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Minimum log level: debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			statusCommand(),
			pairsCommand(),
			strategiesCommand(),
			connectCommand(),
			disconnectCommand(),
			balanceCommand(),
			sessionCommand(),
			sessionsCommand(),
			tradesCommand(),
			streamCommand(),
			configSchemaCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
