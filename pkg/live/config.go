package live

import "time"

// Config tunes the live websocket endpoint.
type Config struct {
	AllowedOrigins []string      `env:"LIVE_ALLOWED_ORIGINS" envSeparator:","`
	ReplayLimit    int           `env:"LIVE_REPLAY_LIMIT" envDefault:"20"`
	WriteTimeout   time.Duration `env:"LIVE_WRITE_TIMEOUT" envDefault:"5s"`
	ReadLimit      int64         `env:"LIVE_READ_LIMIT" envDefault:"4096"`
}
