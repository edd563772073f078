package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/verdictaid/notifier/pkg/config"
	"github.com/verdictaid/notifier/pkg/intake"
	"github.com/verdictaid/notifier/pkg/requestid"
)

// PublishCmd enqueues a notification request on the Kafka intake topic
// instead of delivering it directly.
type PublishCmd struct {
	flags *Flags

	userID    int64
	eventType string
	payload   string
	requestID string
}

// NewPublishCmd creates the publish command.
func NewPublishCmd(flags *Flags) *PublishCmd {
	return &PublishCmd{flags: flags}
}

// Register adds the publish command to root.
func (cmd *PublishCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "publish",
		Usage:     "Publish a notification request to Kafka",
		UsageText: "notifierd publish --user <id> --type <type> [--payload <json>] [--request-id <id>]",
		Description: `Writes {user_id, type, payload} to KAFKA_NOTIFICATIONS_TOPIC, keyed by
user id. A running "notifierd serve" with NOTIFIER_KAFKA_ENABLED picks it up.`,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "user",
				Aliases:     []string{"u"},
				Usage:       "recipient user id",
				Required:    true,
				Destination: &cmd.userID,
			},
			&cli.StringFlag{
				Name:        "type",
				Aliases:     []string{"t"},
				Usage:       "notification type",
				Required:    true,
				Destination: &cmd.eventType,
			},
			&cli.StringFlag{
				Name:        "payload",
				Aliases:     []string{"p"},
				Usage:       "JSON object payload",
				Destination: &cmd.payload,
			},
			&cli.StringFlag{
				Name:        "request-id",
				Usage:       "correlation id carried in the X-Request-ID header",
				Destination: &cmd.requestID,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *PublishCmd) run(ctx context.Context, _ *cli.Command) error {
	payload, err := parsePayload(cmd.payload)
	if err != nil {
		return err
	}

	var cfg intake.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	pub := intake.NewPublisher(intake.NewWriter(cfg))
	defer func() { _ = pub.Close() }()

	ctx = requestid.WithContext(ctx, requestid.Resolve(cmd.requestID))
	return pub.Publish(ctx, cmd.userID, cmd.eventType, payload)
}
