package email

// Config holds email transport configuration.
// Without Postmark tokens the service falls back to DevSender, which writes
// messages to DevOutputDir instead of sending them.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"EMAIL_FROM_ADDRESS,required"`
	SupportEmail         string `env:"EMAIL_SUPPORT_ADDRESS,required"`
	DevOutputDir         string `env:"EMAIL_DEV_OUTPUT_DIR" envDefault:"./tmp/emails"`
}

// NewSender picks the Postmark client when a server token is configured and
// the on-disk DevSender otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return NewDevSender(cfg.DevOutputDir), nil
	}
	return NewPostmarkClient(cfg)
}
