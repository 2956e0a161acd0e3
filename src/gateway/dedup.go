package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"ordergateway/src/model"
)

// dedupCache rejects identical signals arriving within a short window.
// Webhook senders retry on timeouts, so the same alert can be delivered
// more than once; without this a retry would double-submit a bracket.
type dedupCache struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

func newDedupCache(window time.Duration) *dedupCache {
	return &dedupCache{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// observe records the signal and reports whether it is a duplicate of
// one seen inside the window. Expired keys are swept on each call.
func (c *dedupCache) observe(sig *model.Signal) bool {
	if c.window <= 0 {
		return false
	}

	key := signalKey(sig)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, at := range c.seen {
		if now.Sub(at) > c.window {
			delete(c.seen, k)
		}
	}

	if _, dup := c.seen[key]; dup {
		return true
	}
	c.seen[key] = now
	return false
}

func signalKey(sig *model.Signal) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf(
		"%s|%s|%s|%s",
		sig.Symbol, sig.Side, sig.Entry.String(), sig.Stop.String(),
	)))
	return hex.EncodeToString(sum[:])
}
