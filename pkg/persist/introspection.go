package persist

import (
	"time"

	"github.com/aretw0/introspection"
)

// GatewayState exposes internal state for observability.
type GatewayState struct {
	Key       string     `json:"key"`
	Debounce  string     `json:"debounce"`
	Throttle  string     `json:"throttle"`
	Pending   bool       `json:"pending"`
	Saves     int        `json:"saves"`
	Failures  int        `json:"failures"`
	Dropped   int        `json:"dropped"`
	LastError string     `json:"last_error,omitempty"`
	LastSave  *time.Time `json:"last_save,omitempty"`
	StoreType string     `json:"store_type"`
}

// State implements introspection.Introspectable.
func (g *Gateway) State() any {
	pending := g.Pending()

	g.mu.Lock()
	defer g.mu.Unlock()

	storeType := "store"
	if comp, ok := g.store.(introspection.Component); ok {
		storeType = comp.ComponentType()
	}
	var lastErr string
	if g.lastErr != nil {
		lastErr = g.lastErr.Error()
	}

	return GatewayState{
		Key:       g.key,
		Debounce:  g.debouncer.Delay().String(),
		Throttle:  g.throttle.Interval().String(),
		Pending:   pending,
		Saves:     g.saves,
		Failures:  g.failures,
		Dropped:   g.dropped,
		LastError: lastErr,
		LastSave:  g.lastSave,
		StoreType: storeType,
	}
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "persistence-gateway"
}

var _ introspection.Introspectable = (*Gateway)(nil)
var _ introspection.Component = (*Gateway)(nil)
