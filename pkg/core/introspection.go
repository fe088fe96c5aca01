package core

import (
	"github.com/aretw0/introspection"
)

// DocumentState exposes internal state for observability.
type DocumentState struct {
	Notes        int    `json:"notes"`
	ZCounter     int    `json:"z_counter"`
	RestoreToken uint64 `json:"restore_token"`
	HasDrawing   bool   `json:"has_drawing"`
	Decoded      bool   `json:"decoded"`
	DarkMode     bool   `json:"dark_mode"`
}

// State implements introspection.Introspectable. It does not wait for pending decodes.
func (d *Document) State() any {
	d.mu.Lock()
	defer d.mu.Unlock()

	return DocumentState{
		Notes:        len(d.notes),
		ZCounter:     d.zCounter,
		RestoreToken: d.token,
		HasDrawing:   d.drawing != "",
		Decoded:      d.raster != nil,
		DarkMode:     d.darkMode,
	}
}

// ComponentType implements introspection.Component.
func (d *Document) ComponentType() string {
	return "document"
}

var _ introspection.Introspectable = (*Document)(nil)
var _ introspection.Component = (*Document)(nil)
