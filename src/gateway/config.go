package gateway

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SecretToken is compared verbatim against the webhook payload token.
	// The default is a placeholder and must be overridden in production.
	SecretToken string `envconfig:"SECRET_TOKEN" default:"my_secure_token_123"`

	// SecretTokenHash, when set, takes precedence over SecretToken and is
	// verified as a bcrypt hash of the payload token.
	SecretTokenHash string `envconfig:"SECRET_TOKEN_HASH" default:""`

	AccountSize  float64 `envconfig:"ACCOUNT_SIZE" default:"1000"`
	RiskPercent  float64 `envconfig:"RISK_PERCENT" default:"1"`
	TradeLogFile string  `envconfig:"TRADE_LOG_FILE" default:"executed_trades.csv"`

	// DedupWindow is how long an identical signal is rejected as a
	// webhook retry. Zero disables deduplication.
	DedupWindow time.Duration `envconfig:"DEDUP_WINDOW" default:"60s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
