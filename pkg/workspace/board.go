package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/aretw0/pinboard/pkg/canvas"
	"github.com/aretw0/pinboard/pkg/core"
)

// EraseScope selects what Erase removes.
type EraseScope int

const (
	EraseDrawing EraseScope = iota + 1
	EraseNotes
	EraseBackground
	EraseAll
)

var eraseNames = map[EraseScope]string{
	EraseDrawing:    "drawing",
	EraseNotes:      "notes",
	EraseBackground: "background",
	EraseAll:        "all",
}

func (e EraseScope) String() string {
	if name, ok := eraseNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EraseScope(%d)", int(e))
}

// ParseEraseScope accepts a scope name or its menu number (1-4).
func ParseEraseScope(s string) (EraseScope, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for scope, name := range eraseNames {
		if s == name || s == fmt.Sprint(int(scope)) {
			return scope, nil
		}
	}
	return 0, fmt.Errorf("unknown erase scope %q (want drawing, notes, background or all)", s)
}

// Erase clears part of the workspace as one undoable step.
func (s *Session) Erase(scope EraseScope) error {
	if _, ok := eraseNames[scope]; !ok {
		return fmt.Errorf("unknown erase scope %d", scope)
	}
	s.EndStroke()
	if err := s.history.RecordPoint(); err != nil {
		return err
	}

	if scope == EraseDrawing || scope == EraseAll {
		s.penMu.Lock()
		s.surface = nil
		s.stroke = nil
		s.dirty = false
		s.penMu.Unlock()
		s.doc.ClearDrawing()
	}
	if scope == EraseNotes || scope == EraseAll {
		s.doc.ClearNotes()
		s.mu.Lock()
		s.selected = ""
		s.gesture = ""
		s.mu.Unlock()
	}
	if scope == EraseBackground || scope == EraseAll {
		s.doc.SetBackground("")
	}

	s.logger.Debug("erased", "scope", scope)
	s.gateway.RequestSave()
	return nil
}

// ToggleTheme flips dark mode and returns the new value.
func (s *Session) ToggleTheme() (bool, error) {
	if err := s.history.RecordPoint(); err != nil {
		return s.doc.DarkMode(), err
	}
	dark := !s.doc.DarkMode()
	s.doc.SetDarkMode(dark)
	s.gateway.RequestSave()
	return dark, nil
}

// SetBackground uses an uploaded image as the background. Images larger than the
// configured limit are rejected with core.ErrBackgroundTooLarge. An empty mime
// type is sniffed from the data.
func (s *Session) SetBackground(ctx context.Context, data []byte, mime string) error {
	if len(data) > s.opts.maxBackground {
		return fmt.Errorf("%w: %d bytes, limit %d", core.ErrBackgroundTooLarge, len(data), s.opts.maxBackground)
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return s.setBackground("url(" + uri + ")")
}

// SetBackgroundURL uses an external image as the background.
func (s *Session) SetBackgroundURL(url string) error {
	if strings.ContainsAny(url, "()\"'") {
		return fmt.Errorf("background url %q must not contain quotes or parentheses", url)
	}
	return s.setBackground("url(" + url + ")")
}

func (s *Session) setBackground(value string) error {
	if err := core.ValidateText(value); err != nil {
		return err
	}
	s.setPen(false)
	if err := s.history.RecordPoint(); err != nil {
		return err
	}
	s.doc.SetBackground(value)
	s.gateway.RequestSave()
	return nil
}

// TogglePen switches drawing mode and returns the new state.
func (s *Session) TogglePen() bool {
	s.mu.Lock()
	on := !s.penOn
	s.mu.Unlock()
	s.setPen(on)
	return on
}

// PenEnabled reports whether drawing mode is on.
func (s *Session) PenEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.penOn
}

// PenColor returns the current pen colour.
func (s *Session) PenColor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.penColor
}

func (s *Session) setPen(on bool) {
	if !on {
		s.EndStroke()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.penOn = on
}

// BeginStroke starts a pen stroke at (x, y). Each stroke is one undo step.
// It reports false when drawing mode is off.
func (s *Session) BeginStroke(x, y int) (bool, error) {
	if !s.PenEnabled() {
		return false, nil
	}
	s.EndStroke()
	if err := s.history.RecordPoint(); err != nil {
		return false, err
	}

	encoded, raster := s.doc.Drawing()

	s.penMu.Lock()
	defer s.penMu.Unlock()
	if s.surface == nil {
		s.surface = s.loadSurface(encoded, raster)
	}
	s.stroke = []image.Point{{X: x, Y: y}}
	return true, nil
}

func (s *Session) loadSurface(encoded string, raster image.Image) *canvas.Surface {
	w, h := s.opts.viewport.X, s.opts.viewport.Y
	if w <= 0 || h <= 0 {
		w, h = canvas.DefaultWidth, canvas.DefaultHeight
	}
	if raster == nil && encoded != "" {
		img, err := canvas.DecodeDataURI(encoded)
		if err != nil {
			s.logger.Warn("drawing unreadable, starting blank", "error", err)
		}
		raster = img
	}
	return canvas.FromImage(raster, w, h)
}

// ContinueStroke extends the current stroke to (x, y).
func (s *Session) ContinueStroke(x, y int) error {
	color, err := canvas.ParseColor(s.PenColor())
	if err != nil {
		return err
	}

	s.penMu.Lock()
	if s.stroke == nil || s.surface == nil {
		s.penMu.Unlock()
		return nil
	}
	p := image.Pt(x, y)
	last := s.stroke[len(s.stroke)-1]
	s.surface.Stroke([]image.Point{last, p}, color, canvas.DefaultStrokeWidth)
	s.stroke = append(s.stroke, p)
	s.dirty = true
	s.penMu.Unlock()

	s.gateway.RequestSave()
	return nil
}

// EndStroke finishes the current stroke, if any.
func (s *Session) EndStroke() {
	s.penMu.Lock()
	if s.stroke == nil {
		s.penMu.Unlock()
		return
	}
	s.stroke = nil
	s.commitLocked()
	s.penMu.Unlock()

	s.gateway.RequestSave()
}

// commitLocked encodes painted but uncommitted pixels into the document.
func (s *Session) commitLocked() {
	if !s.dirty || s.surface == nil {
		return
	}
	img := s.surface.Clone()
	uri, err := canvas.EncodeDataURI(img)
	if err != nil {
		s.logger.Error("drawing not saved", "error", err)
		return
	}
	s.doc.SetDrawing(uri, img)
	s.dirty = false
}
