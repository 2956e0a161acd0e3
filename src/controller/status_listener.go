package controller

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"ordergateway/src/ledger"
	"ordergateway/src/model"
	"ordergateway/src/tracker"
)

// StatusListener consumes the venue's order status stream and closes the
// loop back to the ledger: the first trade-closing terminal status of a
// tracked bracket produces exactly one exit row and untracks all three
// leg ids. A fill of the entry leg only marks the position open; the
// venue's follow-up cancel of the surviving exit leg, or a double
// reported terminal status, resolves to an untracked id and is a no-op.
type StatusListener struct {
	tracker *tracker.OrderTracker
	ledger  ledger.TradeLedger
	now     func() time.Time
}

func NewStatusListener(orderTracker *tracker.OrderTracker, tradeLedger ledger.TradeLedger) *StatusListener {
	return &StatusListener{
		tracker: orderTracker,
		ledger:  tradeLedger,
		now:     time.Now,
	}
}

// Run drains events until the channel closes or ctx is cancelled.
// Intended to run on its own goroutine; it never blocks the venue.
func (l *StatusListener) Run(ctx context.Context, events <-chan model.OrderStatusEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			l.Handle(ctx, event)
		}
	}
}

// Handle processes a single status event.
func (l *StatusListener) Handle(ctx context.Context, event model.OrderStatusEvent) {
	if !event.Terminal() {
		// Partial fills and re-acks keep the order live.
		logger.WithFields(map[string]interface{}{
			"order_id": event.OrderID,
			"status":   event.Status,
		}).Debug("non-terminal order status ignored")
		return
	}

	record := l.tracker.Resolve(event.OrderID)
	if record == nil {
		logger.WithField("order_id", event.OrderID).
			Debug("terminal status for untracked order, ignoring")
		return
	}

	role := record.LegRole(event.OrderID)
	if role == model.LegEntry && event.Status == model.OrderStatusFilled {
		record.EntryFilled = true
		logger.WithFields(map[string]interface{}{
			"trade_id": record.TradeID,
			"order_id": event.OrderID,
		}).Info("entry leg filled, position open")
		return
	}

	exitPrice, pnl := realized(record, event.FillPrice)

	row := &model.TradeLog{
		TradeID:    record.TradeID,
		Symbol:     record.Symbol,
		Side:       record.Side,
		Quantity:   record.Quantity,
		EntryPrice: record.Entry,
		StopLoss:   record.Stop,
		TakeProfit: record.TakeProfit,
		Reason:     model.TradeReasonExit,
		Status:     strings.ToLower(event.Status),
		ExitPrice:  exitPrice,
		PnL:        pnl,
		RecordedAt: l.now(),
	}

	if err := l.ledger.AppendExit(ctx, row); err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"trade_id": record.TradeID,
			"order_id": event.OrderID,
		}).Error("failed to write exit ledger row")
	}

	l.tracker.Remove(event.OrderID)

	logger.WithFields(map[string]interface{}{
		"trade_id": record.TradeID,
		"order_id": event.OrderID,
		"leg":      role,
		"status":   row.Status,
	}).Info("trade closed")
}

// realized computes the PnL for a reported fill price. A cancellation
// without a fill has no realized PnL; it stays nil rather than zero, to
// keep it distinct from a breakeven fill.
func realized(record *model.OpenOrderRecord, fillPrice *decimal.Decimal) (*decimal.Decimal, *decimal.Decimal) {
	if fillPrice == nil {
		return nil, nil
	}

	price := *fillPrice
	qty := decimal.NewFromInt(record.Quantity)

	var pnl decimal.Decimal
	if record.Side == model.SideSell {
		pnl = record.Entry.Sub(price).Mul(qty)
	} else {
		pnl = price.Sub(record.Entry).Mul(qty)
	}

	return &price, &pnl
}
