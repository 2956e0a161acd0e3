package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal is the inbound webhook payload. Entry and Stop arrive as JSON
// numbers; decimal keeps them exact through sizing and ledger writes.
type Signal struct {
	Token  string          `json:"token"`
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"`
	Entry  decimal.Decimal `json:"entry"`
	Stop   decimal.Decimal `json:"stop"`

	// Assigned by the gateway, never taken from the payload.
	TradeID    string    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// Confirmation is returned to the webhook caller after all three legs
// were accepted by the venue.
type Confirmation struct {
	TradeID    string          `json:"trade_id"`
	Symbol     string          `json:"symbol"`
	Side       string          `json:"side"`
	Quantity   int64           `json:"quantity"`
	Entry      decimal.Decimal `json:"entry"`
	TakeProfit decimal.Decimal `json:"take_profit"`
}
