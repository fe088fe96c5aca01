package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aretw0/pinboard/pkg/core"
)

// Header is the prologue written at the top of every exported workspace.
const Header = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

type xmlWorkspace struct {
	XMLName    xml.Name       `xml:"workspace"`
	DarkMode   string         `xml:"darkMode"`
	Background xmlText        `xml:"background"`
	Drawing    xmlText        `xml:"drawing"`
	Draggables []xmlDraggable `xml:"draggables>draggable"`
}

// xmlText is written as a CDATA block. encoding/xml splits any "]]>" in the
// value across two blocks, so arbitrary note text stays well formed.
type xmlText struct {
	Value string `xml:",cdata"`
}

type xmlDraggable struct {
	Left   string  `xml:"left,attr"`
	Top    string  `xml:"top,attr"`
	Width  string  `xml:"width,attr"`
	Height string  `xml:"height,attr"`
	Z      string  `xml:"z,attr"`
	Text1  xmlText `xml:"text1"`
	Text2  xmlText `xml:"text2"`
	Text3  xmlText `xml:"text3"`
	Text4  xmlText `xml:"text4"`
	BG     xmlText `xml:"bg"`
}

// XML is the portable export/import form.
type XML struct {
	// Indent is the per-level indentation of the output. Empty disables indentation.
	Indent string
}

// NewXML creates an XML codec with two-space indentation.
func NewXML() *XML {
	return &XML{Indent: "  "}
}

// Encode writes the workspace document. Snapshots that cannot survive an XML
// round trip (see core.Snapshot.Validate) are rejected.
func (c *XML) Encode(s core.Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	doc := xmlWorkspace{
		DarkMode:   strconv.FormatBool(s.DarkMode),
		Background: xmlText{s.BackgroundImage},
		Drawing:    xmlText{s.Drawing},
		Draggables: make([]xmlDraggable, 0, len(s.Draggables)),
	}
	for _, n := range s.Draggables {
		doc.Draggables = append(doc.Draggables, xmlDraggable{
			Left:   strconv.Itoa(n.Left),
			Top:    strconv.Itoa(n.Top),
			Width:  strconv.Itoa(n.Width),
			Height: strconv.Itoa(n.Height),
			Z:      strconv.Itoa(n.Z),
			Text1:  xmlText{n.Text1},
			Text2:  xmlText{n.Text2},
			Text3:  xmlText{n.Text3},
			Text4:  xmlText{n.Text4},
			BG:     xmlText{n.BackgroundColor},
		})
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", c.Indent)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode workspace: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Decode parses a workspace document. Parsing is all-or-nothing: any syntax
// error, a foreign root element, trailing content after the root or a
// non-numeric geometry attribute fails the whole document.
func (c *XML) Decode(data []byte) (core.Snapshot, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = true

	var doc xmlWorkspace
	if err := decoder.Decode(&doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	if err := expectEOF(decoder); err != nil {
		return core.Snapshot{}, err
	}

	s := core.Snapshot{
		Draggables:      make([]core.Note, 0, len(doc.Draggables)),
		DarkMode:        doc.DarkMode == "true",
		BackgroundImage: doc.Background.Value,
		Drawing:         doc.Drawing.Value,
	}
	for i, d := range doc.Draggables {
		n, err := d.note()
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("%w: draggable %d: %v", core.ErrParse, i, err)
		}
		s.Draggables = append(s.Draggables, n)
	}
	return s, nil
}

func (d xmlDraggable) note() (core.Note, error) {
	n := core.Note{
		Text1:           d.Text1.Value,
		Text2:           d.Text2.Value,
		Text3:           d.Text3.Value,
		Text4:           d.Text4.Value,
		BackgroundColor: d.BG.Value,
	}
	attrs := []struct {
		name string
		raw  string
		def  int
		dst  *int
	}{
		{"left", d.Left, 0, &n.Left},
		{"top", d.Top, 0, &n.Top},
		{"width", d.Width, core.DefaultNoteWidth, &n.Width},
		{"height", d.Height, core.DefaultNoteHeight, &n.Height},
		{"z", d.Z, 1, &n.Z},
	}
	for _, a := range attrs {
		if a.raw == "" {
			*a.dst = a.def
			continue
		}
		v, err := strconv.Atoi(a.raw)
		if err != nil {
			return core.Note{}, fmt.Errorf("attribute %s=%q is not an integer", a.name, a.raw)
		}
		*a.dst = v
	}
	return n, nil
}

// expectEOF rejects anything but whitespace, comments and processing
// instructions after the root element.
func expectEOF(decoder *xml.Decoder) error {
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("%w: unexpected text after root element", core.ErrParse)
			}
		case xml.StartElement:
			return fmt.Errorf("%w: unexpected element <%s> after root element", core.ErrParse, t.Name.Local)
		}
	}
}
