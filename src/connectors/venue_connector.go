package connectors

// REST client for the brokerage execution venue, plus the out-of-band
// websocket subscription for order status events.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"ordergateway/src/model"
)

const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second

	statusEventBuffer = 64
)

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type instrumentResponse struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	ConID    int64  `json:"con_id"`
}

type orderRequest struct {
	SessionID  string           `json:"session_id"`
	ConID      int64            `json:"con_id"`
	Symbol     string           `json:"symbol"`
	Action     string           `json:"action"`
	OrderType  string           `json:"order_type"`
	Quantity   int64            `json:"quantity"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"`
	ParentID   string           `json:"parent_id,omitempty"`
	Transmit   bool             `json:"transmit"`
}

// VenueConnector talks to the execution venue over its REST API. One
// session at a time: Connect opens it, Disconnect releases it. The
// connector itself is not safe for concurrent sessions; the controller
// serializes access behind its session lease.
type VenueConnector struct {
	cfg  Config
	http *resty.Client

	mu        sync.Mutex
	sessionID string
	statusURL string
}

func NewVenueConnector(cfg Config) *VenueConnector {
	retryCount := defaultRetryAttempts - 1

	baseURL := fmt.Sprintf("http://%s:%d", cfg.VenueHost, cfg.VenuePort)

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.VenueTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &VenueConnector{
		cfg:  cfg,
		http: httpClient,
	}
}

// WithBaseURL overrides the venue endpoint. Used by tests.
func (c *VenueConnector) WithBaseURL(url string) *VenueConnector {
	c.http.SetBaseURL(url)
	return c
}

// WithStatusURL overrides the order status stream endpoint. Used by tests.
func (c *VenueConnector) WithStatusURL(url string) *VenueConnector {
	c.statusURL = url
	return c
}

// Connect opens a venue session for the configured client id.
func (c *VenueConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" {
		return nil
	}

	var session sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"client_id": c.cfg.VenueClientID}).
		SetResult(&session).
		Post("/v1/sessions")
	if err != nil {
		return fmt.Errorf("venue connect failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("venue connect returned status %d", resp.StatusCode())
	}
	if session.SessionID == "" {
		return fmt.Errorf("venue connect returned no session id")
	}

	c.sessionID = session.SessionID
	logger.WithField("client_id", c.cfg.VenueClientID).Debug("venue session opened")
	return nil
}

func (c *VenueConnector) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID != ""
}

// Qualify resolves a symbol into a tradable contract.
func (c *VenueConnector) Qualify(ctx context.Context, symbol string) (*model.Contract, error) {
	var instrument instrumentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"exchange": c.cfg.VenueExchange,
			"currency": c.cfg.VenueCurrency,
		}).
		SetResult(&instrument).
		Get("/v1/instruments/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("qualify %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("qualify %s: venue returned status %d", symbol, resp.StatusCode())
	}
	if instrument.ConID == 0 {
		return nil, fmt.Errorf("qualify %s: unknown or ambiguous instrument", symbol)
	}

	return &model.Contract{
		Symbol:   instrument.Symbol,
		Exchange: instrument.Exchange,
		Currency: instrument.Currency,
		ConID:    instrument.ConID,
	}, nil
}

// BuildBracket constructs the three legs for a bracket order.
func (c *VenueConnector) BuildBracket(side string, qty int64, limit, takeProfit, stopLoss decimal.Decimal) []model.BracketLeg {
	return buildBracketLegs(side, qty, limit, takeProfit, stopLoss)
}

// Submit places one leg and returns the venue acknowledgement.
func (c *VenueConnector) Submit(ctx context.Context, contract *model.Contract, leg *model.BracketLeg) (*model.OrderAck, error) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		return nil, fmt.Errorf("submit without an open venue session")
	}

	var ack model.OrderAck
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(orderRequest{
			SessionID:  sessionID,
			ConID:      contract.ConID,
			Symbol:     contract.Symbol,
			Action:     leg.Action,
			OrderType:  leg.OrderType,
			Quantity:   leg.Quantity,
			LimitPrice: leg.LimitPrice,
			StopPrice:  leg.StopPrice,
			ParentID:   leg.ParentID,
			Transmit:   leg.Transmit,
		}).
		SetResult(&ack).
		Post("/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("submit %s leg: %w", leg.Role, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("submit %s leg: venue returned status %d", leg.Role, resp.StatusCode())
	}
	if ack.OrderID == "" {
		return nil, fmt.Errorf("submit %s leg: venue returned no order id", leg.Role)
	}

	return &ack, nil
}

// Disconnect releases the venue session. Safe to call when no session
// was ever opened.
func (c *VenueConnector) Disconnect() {
	c.mu.Lock()
	sessionID := c.sessionID
	c.sessionID = ""
	c.mu.Unlock()

	if sessionID == "" {
		return
	}

	resp, err := c.http.R().Delete("/v1/sessions/" + sessionID)
	if err != nil {
		logger.WithError(err).Warn("failed to close venue session")
		return
	}
	if resp.IsError() {
		logger.WithField("status", resp.StatusCode()).Warn("venue session close rejected")
	}
}

// SubscribeOrderStatus streams order status events over the venue's
// websocket feed. The returned channel stays open across reconnects and
// closes only when ctx is cancelled. Independent of per-request REST
// sessions.
func (c *VenueConnector) SubscribeOrderStatus(ctx context.Context) <-chan model.OrderStatusEvent {
	events := make(chan model.OrderStatusEvent, statusEventBuffer)
	wsURL := c.statusURL
	if wsURL == "" {
		wsURL = fmt.Sprintf("ws://%s:%d/v1/orders/status", c.cfg.VenueHost, c.cfg.VenuePort)
	}

	go func() {
		defer close(events)

		backoff := time.Second
		for {
			if ctx.Err() != nil {
				return
			}

			if err := c.streamEvents(ctx, wsURL, events); err != nil && ctx.Err() == nil {
				logger.WithError(err).Warn("order status stream interrupted, reconnecting")
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	}()

	return events
}

func (c *VenueConnector) streamEvents(ctx context.Context, wsURL string, events chan<- model.OrderStatusEvent) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial order status stream: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read order status stream: %w", err)
		}

		var event model.OrderStatusEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			logger.WithError(err).Warn("dropping malformed order status event")
			continue
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return nil
		}
	}
}
