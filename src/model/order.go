package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order status strings as reported by the execution venue.
const (
	OrderStatusSubmitted = "Submitted"
	OrderStatusFilled    = "Filled"
	OrderStatusCancelled = "Cancelled"
)

// Bracket leg roles. Submission order is entry, stop, take profit.
const (
	LegEntry      = "entry"
	LegStop       = "stop"
	LegTakeProfit = "take_profit"
)

const (
	OrderTypeLimit = "limit"
	OrderTypeStop  = "stop"
)

// Contract is a qualified tradable instrument as resolved by the venue.
type Contract struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	ConID    int64  `json:"con_id"`
}

// BracketLeg is one order within a bracket group. The entry leg carries
// Transmit=false; the venue holds the whole group until the last
// transmitting leg arrives. Order ids are venue-assigned on submission,
// so ParentID is filled in only after the entry leg has been acknowledged.
type BracketLeg struct {
	Role       string           `json:"role"`
	Action     string           `json:"action"`
	OrderType  string           `json:"order_type"`
	Quantity   int64            `json:"quantity"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"`
	ParentID   string           `json:"parent_id,omitempty"`
	Transmit   bool             `json:"transmit"`
}

// OrderAck is the venue's acknowledgement of a single leg submission.
type OrderAck struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// OrderStatusEvent is delivered out-of-band by the venue for every
// order state change. FillPrice is absent for pure cancellations.
type OrderStatusEvent struct {
	OrderID   string           `json:"order_id"`
	Status    string           `json:"status"`
	FillPrice *decimal.Decimal `json:"fill_price,omitempty"`
}

// Terminal reports whether the event status is final for the order.
func (e OrderStatusEvent) Terminal() bool {
	return e.Status == OrderStatusFilled || e.Status == OrderStatusCancelled
}

// OpenOrderRecord is the tracked context of one live bracket. A single
// record is shared by all three leg ids; it exists from submission until
// the first trade-closing terminal status is observed.
type OpenOrderRecord struct {
	TradeID    string
	Symbol     string
	Side       string
	Quantity   int64
	Entry      decimal.Decimal
	Stop       decimal.Decimal
	TakeProfit decimal.Decimal

	EntryOrderID      string
	StopOrderID       string
	TakeProfitOrderID string

	// Set when the entry leg fills; the position is open but the
	// bracket is still live.
	EntryFilled bool

	OpenedAt time.Time
}

// OrderIDs returns every venue order id owned by this bracket.
func (r *OpenOrderRecord) OrderIDs() []string {
	return []string{r.EntryOrderID, r.StopOrderID, r.TakeProfitOrderID}
}

// LegRole maps a venue order id back to its role within the bracket.
func (r *OpenOrderRecord) LegRole(orderID string) string {
	switch orderID {
	case r.EntryOrderID:
		return LegEntry
	case r.StopOrderID:
		return LegStop
	case r.TakeProfitOrderID:
		return LegTakeProfit
	}
	return ""
}
