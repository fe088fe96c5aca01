// Package codec converts workspace snapshots to and from their external forms.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/pinboard/pkg/core"
)

// Codec defines how to read and write a snapshot in a specific format.
type Codec interface {
	// Encode converts the snapshot to bytes.
	Encode(s core.Snapshot) ([]byte, error)
	// Decode parses data into a snapshot. Errors wrap core.ErrParse.
	Decode(data []byte) (core.Snapshot, error)
}

// Formats returns the standard codecs keyed by format name.
func Formats() map[string]Codec {
	return map[string]Codec{
		"json": NewJSON(),
		"xml":  NewXML(),
		"yaml": NewYAML(),
	}
}

// ForFormat returns the codec for a format name ("xml", "json", "yaml" or "yml").
func ForFormat(format string) (Codec, error) {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	if f == "yml" {
		f = "yaml"
	}
	c, ok := Formats()[f]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return c, nil
}

// ForPath picks a codec from the file extension of name.
func ForPath(name string) (Codec, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return nil, fmt.Errorf("cannot infer format of %q: no extension", name)
	}
	return ForFormat(ext)
}

// --- JSON Codec ---

// JSON is the compact form used for durable storage and undo history.
type JSON struct{}

// NewJSON creates a new JSON codec.
func NewJSON() *JSON {
	return &JSON{}
}

func (c *JSON) Encode(s core.Snapshot) ([]byte, error) {
	s = normalize(s)
	return json.Marshal(s)
}

func (c *JSON) Decode(data []byte) (core.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return core.Snapshot{}, fmt.Errorf("%w: empty json document", core.ErrParse)
	}

	var s core.Snapshot
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: invalid json: %v", core.ErrParse, err)
	}
	return normalize(s), nil
}

// --- YAML Codec ---

// YAML is a human-readable export form.
type YAML struct{}

// NewYAML creates a new YAML codec.
func NewYAML() *YAML {
	return &YAML{}
}

func (c *YAML) Encode(s core.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(normalize(s)); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *YAML) Decode(data []byte) (core.Snapshot, error) {
	var s core.Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: invalid yaml: %v", core.ErrParse, err)
	}
	return normalize(s), nil
}

// normalize guarantees a non-nil note list so every codec yields the same shape.
func normalize(s core.Snapshot) core.Snapshot {
	if s.Draggables == nil {
		s.Draggables = []core.Note{}
	}
	return s
}
