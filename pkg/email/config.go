package email

// Config selects and configures the outbound mail transport. When the
// Postmark server token is empty the dev sender writes messages to DevDir.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@linkaura.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@linkaura.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}

// UsePostmark reports whether the Postmark transport is configured.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != ""
}
