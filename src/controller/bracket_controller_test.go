package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordergateway/src/connectors"
	"ordergateway/src/ledger"
	"ordergateway/src/model"
	"ordergateway/src/notifier"
	"ordergateway/src/tracker"
)

type mockVenue struct {
	connectErr   error
	reportOnline bool
	qualifyErr   error
	submitFailAt int // 1-based leg index that fails, 0 means never
	ackStatus    string

	connects    int
	disconnects int
	nextID      int
	submitted   []model.BracketLeg
}

func newMockVenue() *mockVenue {
	return &mockVenue{reportOnline: true, ackStatus: model.OrderStatusSubmitted}
}

func (m *mockVenue) Connect(ctx context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connects++
	return nil
}

func (m *mockVenue) IsConnected() bool { return m.connects > 0 && m.reportOnline }

func (m *mockVenue) Qualify(ctx context.Context, symbol string) (*model.Contract, error) {
	if m.qualifyErr != nil {
		return nil, m.qualifyErr
	}
	return &model.Contract{Symbol: symbol, Exchange: "SMART", Currency: "USD", ConID: 42}, nil
}

func (m *mockVenue) BuildBracket(side string, qty int64, limit, takeProfit, stopLoss decimal.Decimal) []model.BracketLeg {
	exitAction := model.SideSell
	if side == model.SideSell {
		exitAction = model.SideBuy
	}
	return []model.BracketLeg{
		{Role: model.LegEntry, Action: side, OrderType: model.OrderTypeLimit, Quantity: qty, LimitPrice: &limit, Transmit: false},
		{Role: model.LegStop, Action: exitAction, OrderType: model.OrderTypeStop, Quantity: qty, StopPrice: &stopLoss, Transmit: true},
		{Role: model.LegTakeProfit, Action: exitAction, OrderType: model.OrderTypeLimit, Quantity: qty, LimitPrice: &takeProfit, Transmit: true},
	}
}

func (m *mockVenue) Submit(ctx context.Context, contract *model.Contract, leg *model.BracketLeg) (*model.OrderAck, error) {
	if m.submitFailAt > 0 && len(m.submitted)+1 == m.submitFailAt {
		return nil, errors.New("venue rejected leg")
	}
	m.submitted = append(m.submitted, *leg)
	m.nextID++
	return &model.OrderAck{OrderID: fmt.Sprintf("ORD-%d", m.nextID), Status: m.ackStatus}, nil
}

func (m *mockVenue) Disconnect() { m.disconnects++ }

type memLedger struct {
	mu       sync.Mutex
	entries  []*model.TradeLog
	exits    []*model.TradeLog
	entryErr error
	exitErr  error
}

func (l *memLedger) AppendEntry(ctx context.Context, row *model.TradeLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entryErr != nil {
		return l.entryErr
	}
	l.entries = append(l.entries, row)
	return nil
}

func (l *memLedger) AppendExit(ctx context.Context, row *model.TradeLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.exitErr != nil {
		return l.exitErr
	}
	l.exits = append(l.exits, row)
	return nil
}

type mockNotifier struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (n *mockNotifier) Notify(ctx context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return n.err
}

func buySignal() *model.Signal {
	return &model.Signal{
		TradeID: "trade-1",
		Symbol:  "AAPL",
		Side:    model.SideBuy,
		Entry:   decimal.NewFromInt(100),
		Stop:    decimal.NewFromInt(95),
	}
}

func newManager(venue ExecutionVenue, l ledger.TradeLedger, n notifier.Notifier) (*BracketOrderManager, *tracker.OrderTracker) {
	tr := tracker.New()
	m := NewBracketOrderManager(
		venue, tr, l, n,
		decimal.RequireFromString("0.01"),
		decimal.NewFromInt(1000),
		time.Second,
	)
	return m, tr
}

func TestExecuteSuccess(t *testing.T) {
	venue := newMockVenue()
	led := &memLedger{}
	notif := &mockNotifier{}
	m, tr := newManager(venue, led, notif)

	conf, err := m.Execute(context.Background(), buySignal())

	require.NoError(t, err)
	assert.Equal(t, int64(2), conf.Quantity)
	assert.True(t, conf.TakeProfit.Equal(decimal.NewFromInt(110)), "take profit %s", conf.TakeProfit)

	// All three legs registered under one bracket.
	assert.Equal(t, 3, tr.Len())
	rec := tr.Resolve("ORD-1")
	require.NotNil(t, rec)
	assert.Equal(t, "trade-1", rec.TradeID)

	// Exactly one entry/open ledger row.
	require.Len(t, led.entries, 1)
	assert.Equal(t, model.TradeReasonEntry, led.entries[0].Reason)
	assert.Equal(t, model.TradeStatusOpen, led.entries[0].Status)
	assert.Empty(t, led.exits)

	assert.Equal(t, []string{"Trade Executed"}, notif.subjects)
	assert.Equal(t, 1, venue.disconnects)
}

func TestExecuteTransmitOrdering(t *testing.T) {
	venue := newMockVenue()
	m, _ := newManager(venue, &memLedger{}, &mockNotifier{})

	_, err := m.Execute(context.Background(), buySignal())
	require.NoError(t, err)

	require.Len(t, venue.submitted, 3)
	assert.Equal(t, model.LegEntry, venue.submitted[0].Role)
	assert.Equal(t, model.LegStop, venue.submitted[1].Role)
	assert.Equal(t, model.LegTakeProfit, venue.submitted[2].Role)

	assert.False(t, venue.submitted[0].Transmit)
	assert.True(t, venue.submitted[1].Transmit)
	assert.True(t, venue.submitted[2].Transmit)

	// Children reference the entry leg's venue-assigned id.
	assert.Empty(t, venue.submitted[0].ParentID)
	assert.Equal(t, "ORD-1", venue.submitted[1].ParentID)
	assert.Equal(t, "ORD-1", venue.submitted[2].ParentID)
}

func TestExecuteConnectFailure(t *testing.T) {
	venue := newMockVenue()
	venue.connectErr = errors.New("connection refused")
	led := &memLedger{}
	notif := &mockNotifier{}
	m, tr := newManager(venue, led, notif)

	_, err := m.Execute(context.Background(), buySignal())

	assert.Equal(t, model.ErrVenueUnavailable, model.KindOf(err))
	assert.Empty(t, led.entries)
	assert.Equal(t, 0, tr.Len())
	// A connection that never succeeded is not disconnected.
	assert.Equal(t, 0, venue.disconnects)
	assert.Equal(t, []string{"Bot Error"}, notif.subjects)
}

func TestExecuteVenueReportsOffline(t *testing.T) {
	venue := newMockVenue()
	venue.reportOnline = false
	m, _ := newManager(venue, &memLedger{}, &mockNotifier{})

	_, err := m.Execute(context.Background(), buySignal())

	assert.Equal(t, model.ErrVenueUnavailable, model.KindOf(err))
	assert.Equal(t, 1, venue.disconnects)
}

func TestExecuteQualifyFailure(t *testing.T) {
	venue := newMockVenue()
	venue.qualifyErr = errors.New("unknown symbol")
	led := &memLedger{}
	m, tr := newManager(venue, led, &mockNotifier{})

	_, err := m.Execute(context.Background(), buySignal())

	assert.Equal(t, model.ErrInstrumentResolution, model.KindOf(err))
	assert.Empty(t, venue.submitted)
	assert.Empty(t, led.entries)
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 1, venue.disconnects)
}

func TestExecuteSubmitFailureRecordsAttempt(t *testing.T) {
	venue := newMockVenue()
	venue.submitFailAt = 2
	led := &memLedger{}
	notif := &mockNotifier{}
	m, tr := newManager(venue, led, notif)

	_, err := m.Execute(context.Background(), buySignal())

	assert.Equal(t, model.ErrOrderSubmission, model.KindOf(err))
	// The sized intent is still auditable.
	require.Len(t, led.entries, 1)
	assert.Equal(t, model.TradeStatusCancelled, led.entries[0].Status)
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 1, venue.disconnects)
}

func TestExecuteBadAckStatus(t *testing.T) {
	venue := newMockVenue()
	venue.ackStatus = "Rejected"
	led := &memLedger{}
	m, _ := newManager(venue, led, &mockNotifier{})

	_, err := m.Execute(context.Background(), buySignal())

	assert.Equal(t, model.ErrOrderSubmission, model.KindOf(err))
	require.Len(t, led.entries, 1)
	assert.Equal(t, model.TradeStatusCancelled, led.entries[0].Status)
}

func TestExecuteLedgerFailureAfterSubmission(t *testing.T) {
	venue := newMockVenue()
	led := &memLedger{entryErr: errors.New("disk full")}
	m, tr := newManager(venue, led, &mockNotifier{})

	conf, err := m.Execute(context.Background(), buySignal())

	// The trade is live at the venue; the failure is surfaced
	// distinctly, not as a failed submission.
	assert.Equal(t, model.ErrLedgerWrite, model.KindOf(err))
	require.NotNil(t, conf)
	assert.Equal(t, 3, tr.Len())
}

func TestExecuteNotifierFailureSwallowed(t *testing.T) {
	venue := newMockVenue()
	notif := &mockNotifier{err: errors.New("mailgun down")}
	m, _ := newManager(venue, &memLedger{}, notif)

	_, err := m.Execute(context.Background(), buySignal())

	assert.NoError(t, err)
}

func TestExecuteInvalidSide(t *testing.T) {
	venue := newMockVenue()
	m, _ := newManager(venue, &memLedger{}, &mockNotifier{})

	sig := buySignal()
	sig.Side = "HOLD"
	_, err := m.Execute(context.Background(), sig)

	assert.Equal(t, model.ErrInvalidSignal, model.KindOf(err))
	assert.Equal(t, 0, venue.connects)
}

func TestExecuteAgainstPaperVenue(t *testing.T) {
	paper := connectors.NewPaperConnector(connectors.Config{
		VenueExchange: "SMART",
		VenueCurrency: "USD",
	})
	led := &memLedger{}
	m, tr := newManager(paper, led, &mockNotifier{})

	conf, err := m.Execute(context.Background(), buySignal())

	require.NoError(t, err)
	assert.Equal(t, 3, tr.Len())

	rec := tr.Resolve("PAPER-1")
	require.NotNil(t, rec)
	assert.Equal(t, conf.TradeID, rec.TradeID)

	leg, ok := paper.Submitted(rec.EntryOrderID)
	require.True(t, ok)
	assert.Equal(t, model.LegEntry, leg.Role)
	assert.False(t, paper.IsConnected(), "session released after execution")
}
