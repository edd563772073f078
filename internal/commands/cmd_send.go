package commands

import (
	"context"
	"encoding/json"

	"github.com/urfave/cli/v3"

	"github.com/verdictaid/notifier/internal/app"
)

// NotifyCmd implements the one-shot send and list commands against the
// configured store and channels.
type NotifyCmd struct {
	flags *Flags

	userID    int64
	eventType string
	payload   string
	limit     int64
}

// NewNotifyCmd creates the send and list commands.
func NewNotifyCmd(flags *Flags) *NotifyCmd {
	return &NotifyCmd{flags: flags}
}

// Register adds the send and list commands to root.
func (cmd *NotifyCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, cmd.sendCmd(), cmd.listCmd())
	return root
}

func (cmd *NotifyCmd) userFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:        "user",
		Aliases:     []string{"u"},
		Usage:       "recipient user id",
		Required:    true,
		Destination: &cmd.userID,
	}
}

func (cmd *NotifyCmd) sendCmd() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Persist a notification and deliver it on every channel",
		UsageText: "notifierd send --user <id> --type <type> [--payload <json>]",
		Description: `Stores the notification, fans it out to live connections and the
user's active devices, waits for delivery to finish and prints the event id.

Examples:
  notifierd send --user 42 --type document_processed --payload '{"document_id":7}'
  notifierd send -u 42 -t task_completed`,
		Flags: []cli.Flag{
			cmd.userFlag(),
			&cli.StringFlag{
				Name:        "type",
				Aliases:     []string{"t"},
				Usage:       "notification type, e.g. document_processed",
				Required:    true,
				Destination: &cmd.eventType,
			},
			&cli.StringFlag{
				Name:        "payload",
				Aliases:     []string{"p"},
				Usage:       "JSON object with title, body and template data",
				Destination: &cmd.payload,
			},
		},
		Action: cmd.runSend,
	}
}

func (cmd *NotifyCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "Print stored notifications, newest first",
		UsageText: "notifierd list --user <id> [--limit <n>]",
		Flags: []cli.Flag{
			cmd.userFlag(),
			&cli.Int64Flag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of notifications",
				Value:       50,
				Destination: &cmd.limit,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *NotifyCmd) open(ctx context.Context) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.NewLogger(cfg.Settings, cmd.flags.LogLevel))
}

func (cmd *NotifyCmd) runSend(ctx context.Context, c *cli.Command) error {
	payload, err := parsePayload(cmd.payload)
	if err != nil {
		return err
	}

	a, err := cmd.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	id, err := a.Dispatcher().Send(ctx, cmd.userID, cmd.eventType, payload)
	if err != nil {
		return err
	}
	a.Dispatcher().Wait()

	return json.NewEncoder(c.Root().Writer).Encode(map[string]string{"id": id})
}

func (cmd *NotifyCmd) runList(ctx context.Context, c *cli.Command) error {
	a, err := cmd.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	events, err := a.Dispatcher().ListPending(ctx, cmd.userID, int(cmd.limit))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.Root().Writer)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
