package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"ordergateway/src/ledger"
	"ordergateway/src/model"
	"ordergateway/src/notifier"
	"ordergateway/src/risk"
	"ordergateway/src/tracker"
)

// ExecutionVenue is the narrow surface the controller needs from the
// brokerage connectivity layer.
type ExecutionVenue interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Qualify(ctx context.Context, symbol string) (*model.Contract, error)
	BuildBracket(side string, qty int64, limit, takeProfit, stopLoss decimal.Decimal) []model.BracketLeg
	Submit(ctx context.Context, contract *model.Contract, leg *model.BracketLeg) (*model.OrderAck, error)
	Disconnect()
}

// BracketOrderManager turns an accepted signal into a submitted three
// leg bracket: size the position, qualify the instrument, submit entry,
// stop and take-profit, register the bracket with the tracker and write
// the entry ledger row.
//
// The venue session is a per-request exclusive lease: sessionMu
// serializes connect, qualify, submit and disconnect across concurrent
// requests, because the venue client is single-session. The lease is
// bounded by venueTimeout so a hung venue fails the request instead of
// blocking it forever.
type BracketOrderManager struct {
	venue        ExecutionVenue
	tracker      *tracker.OrderTracker
	ledger       ledger.TradeLedger
	notifier     notifier.Notifier
	riskFraction decimal.Decimal
	accountSize  decimal.Decimal
	venueTimeout time.Duration

	sessionMu sync.Mutex
	now       func() time.Time
}

func NewBracketOrderManager(
	venue ExecutionVenue,
	orderTracker *tracker.OrderTracker,
	tradeLedger ledger.TradeLedger,
	notify notifier.Notifier,
	riskFraction decimal.Decimal,
	accountSize decimal.Decimal,
	venueTimeout time.Duration,
) *BracketOrderManager {
	if venueTimeout <= 0 {
		venueTimeout = 10 * time.Second
	}
	return &BracketOrderManager{
		venue:        venue,
		tracker:      orderTracker,
		ledger:       tradeLedger,
		notifier:     notify,
		riskFraction: riskFraction,
		accountSize:  accountSize,
		venueTimeout: venueTimeout,
		now:          time.Now,
	}
}

// Execute runs the full submission flow for one validated signal.
// Every failure comes back as a tagged ExecutionError and triggers a
// best-effort operator notification; nothing from the venue or the
// ledger leaks through raw.
func (m *BracketOrderManager) Execute(ctx context.Context, sig *model.Signal) (*model.Confirmation, error) {
	if sig.Side != model.SideBuy && sig.Side != model.SideSell {
		return nil, m.fail(ctx, sig, model.NewExecutionError(
			model.ErrInvalidSignal,
			fmt.Sprintf("unsupported side %q", sig.Side),
			nil,
		))
	}

	sizing := risk.Size(sig.Side, sig.Entry, sig.Stop, m.riskFraction, m.accountSize)

	logger.WithFields(map[string]interface{}{
		"trade_id":    sig.TradeID,
		"symbol":      sig.Symbol,
		"side":        sig.Side,
		"quantity":    sizing.Quantity,
		"take_profit": sizing.TakeProfit.String(),
	}).Info("signal sized, acquiring venue session")

	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	vctx, cancel := context.WithTimeout(ctx, m.venueTimeout)
	defer cancel()

	if err := m.venue.Connect(vctx); err != nil {
		// Never connected, so there is no session to release.
		return nil, m.fail(ctx, sig, model.NewExecutionError(
			model.ErrVenueUnavailable, "execution venue not reachable", err))
	}
	defer m.venue.Disconnect()

	if !m.venue.IsConnected() {
		return nil, m.fail(ctx, sig, model.NewExecutionError(
			model.ErrVenueUnavailable, "execution venue reports not connected", nil))
	}

	contract, err := m.venue.Qualify(vctx, sig.Symbol)
	if err != nil {
		return nil, m.fail(ctx, sig, model.NewExecutionError(
			model.ErrInstrumentResolution,
			fmt.Sprintf("could not resolve instrument %s", sig.Symbol),
			err,
		))
	}

	legs := m.venue.BuildBracket(sig.Side, sizing.Quantity, sig.Entry, sizing.TakeProfit, sig.Stop)

	// Submission order is entry, stop, take-profit. The entry leg does
	// not transmit; the last transmitting leg releases the group at the
	// venue. Children reference the entry leg's venue-assigned id.
	orderIDs := make(map[string]string, len(legs))
	for i := range legs {
		if legs[i].Role != model.LegEntry {
			legs[i].ParentID = orderIDs[model.LegEntry]
		}

		ack, err := m.venue.Submit(vctx, contract, &legs[i])
		if err == nil && ack.Status != model.OrderStatusSubmitted {
			err = fmt.Errorf("venue acknowledged %s leg with status %q", legs[i].Role, ack.Status)
		}
		if err != nil {
			// Record the attempt so the sized intent stays auditable
			// even though no bracket is live.
			m.appendRow(ctx, sig, sizing, model.TradeStatusCancelled)
			return nil, m.fail(ctx, sig, model.NewExecutionError(
				model.ErrOrderSubmission,
				fmt.Sprintf("bracket rejected at %s leg (%d of %d submitted)", legs[i].Role, i, len(legs)),
				err,
			))
		}
		orderIDs[legs[i].Role] = ack.OrderID
	}

	record := &model.OpenOrderRecord{
		TradeID:           sig.TradeID,
		Symbol:            sig.Symbol,
		Side:              sig.Side,
		Quantity:          sizing.Quantity,
		Entry:             sig.Entry,
		Stop:              sig.Stop,
		TakeProfit:        sizing.TakeProfit,
		EntryOrderID:      orderIDs[model.LegEntry],
		StopOrderID:       orderIDs[model.LegStop],
		TakeProfitOrderID: orderIDs[model.LegTakeProfit],
		OpenedAt:          m.now(),
	}
	m.tracker.Register(record)

	confirmation := &model.Confirmation{
		TradeID:    sig.TradeID,
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		Quantity:   sizing.Quantity,
		Entry:      sig.Entry,
		TakeProfit: sizing.TakeProfit,
	}

	summary := fmt.Sprintf("%s %d %s @ %s (TP %s, SL %s)",
		sig.Side, sizing.Quantity, sig.Symbol,
		sig.Entry.StringFixed(2), sizing.TakeProfit.StringFixed(2), sig.Stop.StringFixed(2))

	if err := m.appendRow(ctx, sig, sizing, model.TradeStatusOpen); err != nil {
		// The bracket is live at the venue with no audit row; surface
		// this distinctly instead of pretending the trade failed.
		m.notify(ctx, "Trade Executed (ledger write failed)", summary)
		return confirmation, model.NewExecutionError(
			model.ErrLedgerWrite, "trade submitted but ledger entry write failed", err)
	}

	m.notify(ctx, "Trade Executed", summary)

	logger.WithFields(map[string]interface{}{
		"trade_id": sig.TradeID,
		"entry_id": record.EntryOrderID,
		"stop_id":  record.StopOrderID,
		"tp_id":    record.TakeProfitOrderID,
	}).Info("bracket order submitted")

	return confirmation, nil
}

func (m *BracketOrderManager) appendRow(ctx context.Context, sig *model.Signal, sizing risk.Sizing, status string) error {
	row := &model.TradeLog{
		TradeID:    sig.TradeID,
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		Quantity:   sizing.Quantity,
		EntryPrice: sig.Entry,
		StopLoss:   sig.Stop,
		TakeProfit: sizing.TakeProfit,
		Reason:     model.TradeReasonEntry,
		Status:     status,
		RecordedAt: m.now(),
	}
	if err := m.ledger.AppendEntry(ctx, row); err != nil {
		logger.WithError(err).WithField("trade_id", sig.TradeID).
			Error("failed to write entry ledger row")
		return err
	}
	return nil
}

// fail notifies the operator and passes the tagged error through.
func (m *BracketOrderManager) fail(ctx context.Context, sig *model.Signal, execErr *model.ExecutionError) error {
	logger.WithError(execErr).WithFields(map[string]interface{}{
		"trade_id": sig.TradeID,
		"symbol":   sig.Symbol,
	}).Error("bracket execution failed")

	m.notify(ctx, "Bot Error", fmt.Sprintf("%s %s: %s", sig.Side, sig.Symbol, execErr.Message))
	return execErr
}

// notify is strictly best-effort; notifier errors are logged and
// swallowed so they can never surface to the webhook caller.
func (m *BracketOrderManager) notify(ctx context.Context, subject, body string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, subject, body); err != nil {
		logger.WithError(err).Warn("failed to send notification")
	}
}
