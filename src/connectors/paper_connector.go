package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"ordergateway/src/model"
)

// PaperConnector is an in-process execution venue for dry runs and
// tests. Orders are acknowledged immediately with sequential ids and
// never reach a real broker; fills and cancels are injected through
// Fill and Cancel, which emit events on the same status stream a live
// venue would.
type PaperConnector struct {
	cfg Config

	mu        sync.Mutex
	connected bool
	nextID    int64
	submitted map[string]model.BracketLeg
	events    chan model.OrderStatusEvent
}

func NewPaperConnector(cfg Config) *PaperConnector {
	return &PaperConnector{
		cfg:       cfg,
		submitted: make(map[string]model.BracketLeg),
		events:    make(chan model.OrderStatusEvent, statusEventBuffer),
	}
}

func (c *PaperConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

func (c *PaperConnector) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *PaperConnector) Qualify(ctx context.Context, symbol string) (*model.Contract, error) {
	if symbol == "" {
		return nil, fmt.Errorf("qualify: empty symbol")
	}
	return &model.Contract{
		Symbol:   symbol,
		Exchange: c.cfg.VenueExchange,
		Currency: c.cfg.VenueCurrency,
		ConID:    1,
	}, nil
}

func (c *PaperConnector) BuildBracket(side string, qty int64, limit, takeProfit, stopLoss decimal.Decimal) []model.BracketLeg {
	return buildBracketLegs(side, qty, limit, takeProfit, stopLoss)
}

func (c *PaperConnector) Submit(ctx context.Context, contract *model.Contract, leg *model.BracketLeg) (*model.OrderAck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, fmt.Errorf("submit without an open venue session")
	}

	c.nextID++
	orderID := fmt.Sprintf("PAPER-%d", c.nextID)
	c.submitted[orderID] = *leg

	logger.WithFields(map[string]interface{}{
		"order_id": orderID,
		"role":     leg.Role,
		"symbol":   contract.Symbol,
	}).Info("paper venue accepted order leg")

	return &model.OrderAck{OrderID: orderID, Status: model.OrderStatusSubmitted}, nil
}

func (c *PaperConnector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

// SubscribeOrderStatus returns the paper venue's event stream.
func (c *PaperConnector) SubscribeOrderStatus(ctx context.Context) <-chan model.OrderStatusEvent {
	return c.events
}

// Fill reports a filled order at the given price.
func (c *PaperConnector) Fill(orderID string, price decimal.Decimal) {
	c.events <- model.OrderStatusEvent{
		OrderID:   orderID,
		Status:    model.OrderStatusFilled,
		FillPrice: &price,
	}
}

// Cancel reports a cancelled order with no fill price.
func (c *PaperConnector) Cancel(orderID string) {
	c.events <- model.OrderStatusEvent{
		OrderID: orderID,
		Status:  model.OrderStatusCancelled,
	}
}

// Submitted returns the leg recorded for orderID, for assertions in
// tests and dry-run inspection.
func (c *PaperConnector) Submitted(orderID string) (model.BracketLeg, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	leg, ok := c.submitted[orderID]
	return leg, ok
}
