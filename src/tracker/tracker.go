package tracker

import (
	"sync"

	logger "github.com/sirupsen/logrus"

	"ordergateway/src/model"
)

// OrderTracker maps venue order ids to their originating bracket context.
// All three leg ids of a bracket point at the same record. Entries only
// disappear through Remove; there is no expiry, the venue is trusted to
// eventually report a terminal status for every order.
//
// Register, Resolve and Remove are safe for concurrent use from request
// handlers and the status listener.
type OrderTracker struct {
	mu     sync.RWMutex
	orders map[string]*model.OpenOrderRecord
}

func New() *OrderTracker {
	return &OrderTracker{
		orders: make(map[string]*model.OpenOrderRecord),
	}
}

// Register indexes the record under every one of its leg order ids.
func (t *OrderTracker) Register(record *model.OpenOrderRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range record.OrderIDs() {
		if id == "" {
			continue
		}
		t.orders[id] = record
	}

	logger.WithFields(map[string]interface{}{
		"trade_id": record.TradeID,
		"symbol":   record.Symbol,
	}).Debug("bracket registered in order tracker")
}

// Resolve returns the record tracked under orderID, or nil when the id
// is unknown or already removed.
func (t *OrderTracker) Resolve(orderID string) *model.OpenOrderRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.orders[orderID]
}

// Remove drops every leg id of the bracket tracked under orderID.
// Removing an absent id is a no-op, which makes a double-reported
// terminal status harmless.
func (t *OrderTracker) Remove(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.orders[orderID]
	if !ok {
		return
	}
	for _, id := range record.OrderIDs() {
		delete(t.orders, id)
	}
}

// Len reports the number of tracked order ids.
func (t *OrderTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.orders)
}
