package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TradeReasonEntry = "entry"
	TradeReasonExit  = "exit"
)

// TradeLog status values. "open" is only ever paired with reason "entry";
// exits carry the normalized terminal venue status.
const (
	TradeStatusOpen      = "open"
	TradeStatusFilled    = "filled"
	TradeStatusCancelled = "cancelled"
)

// TradeLog is one append-only ledger row. Two rows make a round trip:
// one entry/open at submission and one exit/{filled,cancelled} at the
// first trade-closing terminal status, correlated by TradeID.
type TradeLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TradeID string `gorm:"size:64;index" json:"trade_id"`

	Symbol     string          `gorm:"size:100" json:"symbol"`
	Side       string          `gorm:"size:10" json:"side"`
	Quantity   int64           `json:"quantity"`
	EntryPrice decimal.Decimal `gorm:"type:numeric" json:"entry_price"`
	StopLoss   decimal.Decimal `gorm:"type:numeric" json:"stop_loss"`
	TakeProfit decimal.Decimal `gorm:"type:numeric" json:"take_profit"`

	Reason string `gorm:"size:10;not null" json:"reason"`
	Status string `gorm:"size:20;not null" json:"status"`

	// Nil until an exit with a reported fill price; a cancellation
	// before fill has neither.
	ExitPrice *decimal.Decimal `gorm:"type:numeric" json:"exit_price,omitempty"`
	PnL       *decimal.Decimal `gorm:"type:numeric;column:pnl" json:"pnl,omitempty"`

	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName allows you to control the exact table name for trade logs.
func (TradeLog) TableName() string {
	return "trade_logs"
}
