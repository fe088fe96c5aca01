// Package core holds the workspace domain: notes, snapshots and the live document.
package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Note geometry defaults and limits.
const (
	DefaultNoteWidth  = 250
	DefaultNoteHeight = 100
	MinNoteWidth      = 100
	MinNoteHeight     = 50
)

// Note is one sticky card on the workspace.
// Notes carry no persistent identity: inside a Snapshot they are identified by position.
type Note struct {
	Left            int    `json:"left" yaml:"left"`
	Top             int    `json:"top" yaml:"top"`
	Width           int    `json:"width" yaml:"width"`
	Height          int    `json:"height" yaml:"height"`
	Text1           string `json:"text1" yaml:"text1"`
	Text2           string `json:"text2" yaml:"text2"`
	Text3           string `json:"text3" yaml:"text3"`
	Text4           string `json:"text4" yaml:"text4"`
	BackgroundColor string `json:"backgroundColor" yaml:"backgroundColor"`
	Z               int    `json:"z" yaml:"z"`
}

// Texts returns the four text fields in order.
func (n Note) Texts() [4]string {
	return [4]string{n.Text1, n.Text2, n.Text3, n.Text4}
}

// SetText assigns text field i (1..4).
func (n *Note) SetText(i int, value string) error {
	switch i {
	case 1:
		n.Text1 = value
	case 2:
		n.Text2 = value
	case 3:
		n.Text3 = value
	case 4:
		n.Text4 = value
	default:
		return fmt.Errorf("text field %d out of range 1..4", i)
	}
	return nil
}

// Snapshot is the complete serializable workspace state at one instant.
// It is the only unit that is persisted, recorded for undo, exported or imported.
type Snapshot struct {
	Draggables      []Note `json:"draggables" yaml:"draggables"`
	DarkMode        bool   `json:"darkMode" yaml:"darkMode"`
	BackgroundImage string `json:"backgroundImage" yaml:"backgroundImage"`
	Drawing         string `json:"drawing" yaml:"drawing"`
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Draggables = make([]Note, len(s.Draggables))
	copy(out.Draggables, s.Draggables)
	return out
}

// Equal reports whether two snapshots hold the same state. A nil and an empty
// note list are equal.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.DarkMode == o.DarkMode &&
		s.BackgroundImage == o.BackgroundImage &&
		s.Drawing == o.Drawing &&
		slices.Equal(s.Draggables, o.Draggables)
}

// MaxZ returns the highest stacking order in the snapshot, or 1 when there are no notes.
func (s Snapshot) MaxZ() int {
	maxZ := 1
	for _, n := range s.Draggables {
		maxZ = max(maxZ, n.Z)
	}
	return maxZ
}

// Validate checks that every text value can be carried losslessly by all codecs:
// no carriage returns and only characters legal in XML 1.0.
func (s Snapshot) Validate() error {
	if err := validText("backgroundImage", s.BackgroundImage); err != nil {
		return err
	}
	if err := validText("drawing", s.Drawing); err != nil {
		return err
	}
	for i, n := range s.Draggables {
		for j, t := range n.Texts() {
			if err := validText(fmt.Sprintf("draggables[%d].text%d", i, j+1), t); err != nil {
				return err
			}
		}
		if err := validText(fmt.Sprintf("draggables[%d].backgroundColor", i), n.BackgroundColor); err != nil {
			return err
		}
	}
	return nil
}

// ValidateText reports whether v can be stored in a note field.
func ValidateText(v string) error {
	return validText("text", v)
}

func validText(field, v string) error {
	if strings.ContainsRune(v, '\r') {
		return fmt.Errorf("%w: %s contains a carriage return", ErrInvalidSnapshot, field)
	}
	for _, r := range v {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: %s contains illegal character %U", ErrInvalidSnapshot, field, r)
		}
	}
	return nil
}

// isXMLChar mirrors the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// EventType represents the type of change observed on durable storage.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change of a stored key made outside this process.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Key)
}

// UnmarshalJSON accepts z either as a number or as a numeric string;
// older stored workspaces wrote the stacking order as a string.
func (n *Note) UnmarshalJSON(data []byte) error {
	type plain Note
	aux := struct {
		*plain
		Z json.RawMessage `json:"z"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Z) == 0 || string(aux.Z) == "null" {
		return nil
	}
	var z json.Number
	if aux.Z[0] == '"' {
		var s string
		if err := json.Unmarshal(aux.Z, &s); err != nil {
			return err
		}
		z = json.Number(s)
	} else {
		z = json.Number(aux.Z)
	}
	v, err := strconv.Atoi(string(z))
	if err != nil {
		return fmt.Errorf("invalid z %q: %w", string(z), err)
	}
	n.Z = v
	return nil
}
