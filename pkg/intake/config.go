package intake

import "time"

// Config selects the Kafka brokers, topic and consumer group for intake.
type Config struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic        string        `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"notifications"`
	GroupID      string        `env:"KAFKA_GROUP_ID" envDefault:"notifier"`
	MinBytes     int           `env:"KAFKA_MIN_BYTES" envDefault:"1"`
	MaxBytes     int           `env:"KAFKA_MAX_BYTES" envDefault:"10000000"`
	RetryBackoff time.Duration `env:"KAFKA_RETRY_BACKOFF" envDefault:"2s"`
}
