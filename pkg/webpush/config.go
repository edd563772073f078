package webpush

import "time"

// Config holds the VAPID key pair and subscriber contact for Web Push.
type Config struct {
	VAPIDPublicKey  string        `env:"VAPID_PUBLIC_KEY,required"`
	VAPIDPrivateKey string        `env:"VAPID_PRIVATE_KEY,required"`
	Subscriber      string        `env:"VAPID_CLAIMS_EMAIL,required"` // Contact address placed in the VAPID "sub" claim.
	TTL             int           `env:"WEBPUSH_TTL_SECONDS" envDefault:"86400"`
	Urgency         string        `env:"WEBPUSH_URGENCY" envDefault:"normal"`
	RequestTimeout  time.Duration `env:"WEBPUSH_REQUEST_TIMEOUT" envDefault:"10s"`
}
