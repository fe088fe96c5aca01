package workspace

import (
	"github.com/aretw0/introspection"
)

// SessionState exposes internal state for observability.
type SessionState struct {
	Selected   string `json:"selected,omitempty"`
	Gesture    bool   `json:"gesture"`
	PenEnabled bool   `json:"pen_enabled"`
	PenColor   string `json:"pen_color"`
	GridSize   int    `json:"grid_size"`
	Viewport   string `json:"viewport"`
	Document   any    `json:"document"`
	History    any    `json:"history"`
	Gateway    any    `json:"gateway"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Selected:   s.selected,
		Gesture:    s.gesture != "",
		PenEnabled: s.penOn,
		PenColor:   s.penColor,
		GridSize:   s.opts.gridSize,
		Viewport:   s.opts.viewport.String(),
		Document:   s.doc.State(),
		History:    s.history.State(),
		Gateway:    s.gateway.State(),
	}
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "workspace-session"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
