package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/verdictaid/notifier/pkg/config"
)

// NewRoot builds the notifierd command tree.
func NewRoot(version string) *cli.Command {
	flags := &Flags{}

	root := &cli.Command{
		Name:      "notifierd",
		Usage:     "Store and deliver user notifications",
		UsageText: "notifierd [global options] command [command options]",
		Description: `notifierd persists per-user notifications in a bounded history and
delivers them to live websocket connections, email, Web Push and FCM.

Configuration comes from the environment; see the package Config types.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error); overrides LOG_LEVEL",
				Destination: &flags.LogLevel,
			},
			&cli.StringSliceFlag{
				Name:        "env-file",
				Usage:       "dotenv file(s) loaded before reading configuration",
				Destination: &flags.EnvFiles,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			if len(flags.EnvFiles) == 0 {
				return ctx, nil
			}
			return ctx, config.LoadEnv(flags.EnvFiles...)
		},
	}

	root = NewServeCmd(flags).Register(root)
	root = NewNotifyCmd(flags).Register(root)
	root = NewPublishCmd(flags).Register(root)
	return root
}
