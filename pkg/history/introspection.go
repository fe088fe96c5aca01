package history

import "github.com/aretw0/introspection"

// ManagerState exposes internal state for observability.
type ManagerState struct {
	Limit     int `json:"limit"`
	UndoDepth int `json:"undo_depth"`
	RedoDepth int `json:"redo_depth"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	undo, redo := m.Len()
	return ManagerState{
		Limit:     m.limit,
		UndoDepth: undo,
		RedoDepth: redo,
	}
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "history"
}

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)
