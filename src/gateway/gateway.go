package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"ordergateway/src/model"
)

// SignalGateway authenticates, validates and deduplicates inbound webhook
// payloads before they reach the order flow. It is the only component
// that ever sees the shared secret; neither the secret nor the payload
// token is echoed back or logged.
type SignalGateway struct {
	secretToken     string
	secretTokenHash string
	dedup           *dedupCache
}

func New(cfg Config) *SignalGateway {
	return &SignalGateway{
		secretToken:     cfg.SecretToken,
		secretTokenHash: cfg.SecretTokenHash,
		dedup:           newDedupCache(cfg.DedupWindow),
	}
}

// Accept parses the raw webhook body and returns a validated signal with
// a fresh trade id assigned. Failures are tagged ExecutionErrors:
// unauthorized, invalid_signal or duplicate_signal.
func (g *SignalGateway) Accept(ctx context.Context, raw []byte) (*model.Signal, error) {
	var sig model.Signal
	if err := json.Unmarshal(raw, &sig); err != nil {
		return nil, model.NewExecutionError(model.ErrInvalidSignal, "malformed signal payload", err)
	}

	if !g.authorized(sig.Token) {
		logger.WithFields(map[string]interface{}{
			"symbol": sig.Symbol,
			"side":   sig.Side,
		}).Warn("webhook signal rejected, token mismatch")
		return nil, model.NewExecutionError(model.ErrUnauthorized, "unauthorized", nil)
	}
	sig.Token = ""

	sig.Symbol = strings.ToUpper(strings.TrimSpace(sig.Symbol))
	if sig.Symbol == "" {
		return nil, model.NewExecutionError(model.ErrInvalidSignal, "missing symbol", nil)
	}
	if sig.Side != model.SideBuy && sig.Side != model.SideSell {
		return nil, model.NewExecutionError(model.ErrInvalidSignal, "side must be BUY or SELL", nil)
	}
	if !sig.Entry.IsPositive() || !sig.Stop.IsPositive() {
		return nil, model.NewExecutionError(model.ErrInvalidSignal, "entry and stop must be positive prices", nil)
	}

	if g.dedup.observe(&sig) {
		logger.WithFields(map[string]interface{}{
			"symbol": sig.Symbol,
			"side":   sig.Side,
		}).Warn("duplicate signal dropped")
		return nil, model.NewExecutionError(model.ErrDuplicateSignal, "signal already received", nil)
	}

	sig.TradeID = uuid.NewString()
	sig.ReceivedAt = time.Now()

	logger.WithFields(map[string]interface{}{
		"trade_id": sig.TradeID,
		"symbol":   sig.Symbol,
		"side":     sig.Side,
	}).Info("webhook signal accepted")

	return &sig, nil
}

func (g *SignalGateway) authorized(token string) bool {
	if g.secretTokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(g.secretTokenHash), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(g.secretToken), []byte(token)) == 1
}
