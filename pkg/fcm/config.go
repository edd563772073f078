package fcm

import "time"

// Config holds Firebase Cloud Messaging credentials.
// CredentialsJSON takes precedence over CredentialsFile.
type Config struct {
	ProjectID       string        `env:"FCM_PROJECT_ID"`
	CredentialsFile string        `env:"FCM_CREDENTIALS_FILE"`
	CredentialsJSON string        `env:"FCM_CREDENTIALS_JSON"`
	AndroidTTL      time.Duration `env:"FCM_ANDROID_TTL" envDefault:"24h"`
}
