package notifications

import "time"

const (
	DefaultKeyPrefix      = "notifications:"
	DefaultMaxEvents      = 100
	DefaultRetention      = 30 * 24 * time.Hour
	DefaultListLimit      = 50
	DefaultSenderTimeout  = 10 * time.Second
	DefaultLiveTimeout    = 5 * time.Second
	DefaultFanOutTimeout  = 30 * time.Second
	DefaultFanOutParallel = 8
)

// Config holds the tunables of the store, the senders and the dispatcher.
type Config struct {
	KeyPrefix      string        `env:"NOTIFICATIONS_KEY_PREFIX" envDefault:"notifications:"`
	MaxEvents      int           `env:"NOTIFICATIONS_MAX_STORED" envDefault:"100"`
	Retention      time.Duration `env:"NOTIFICATIONS_RETENTION" envDefault:"720h"`
	SenderTimeout  time.Duration `env:"NOTIFICATIONS_SENDER_TIMEOUT" envDefault:"10s"`
	LiveTimeout    time.Duration `env:"NOTIFICATIONS_LIVE_TIMEOUT" envDefault:"5s"`
	FanOutTimeout  time.Duration `env:"NOTIFICATIONS_FANOUT_TIMEOUT" envDefault:"30s"`
	FanOutParallel int           `env:"NOTIFICATIONS_FANOUT_PARALLEL" envDefault:"8"`
}
