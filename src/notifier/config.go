package notifier

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	MailgunAPIKey string `envconfig:"MAILGUN_API_KEY" default:""`
	MailgunDomain string `envconfig:"MAILGUN_DOMAIN" default:""`
	EmailSender   string `envconfig:"EMAIL_SENDER" default:""`
	EmailReceiver string `envconfig:"EMAIL_RECEIVER" default:""`
}

// Configured reports whether enough is set to actually deliver mail.
func (c Config) Configured() bool {
	return c.MailgunAPIKey != "" && c.MailgunDomain != "" &&
		c.EmailSender != "" && c.EmailReceiver != ""
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
