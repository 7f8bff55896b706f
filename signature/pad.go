// Package signature records a freehand signature as strokes. The stroke
// data is the source of truth; the pixel surface is derived from it and
// rebuilt whenever the pad is resized.
package signature

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/fogleman/gg"
)

const (
	DefaultHeight    = 150
	DefaultLineWidth = 2

	// upper bounds keep the raster below 16384x4096 pixels
	MaxWidth     = 4096
	MaxHeight    = 1024
	MaxScale     = 4
	MaxLineWidth = 64
)

var (
	ErrInvalidSize  = fmt.Errorf("invalid signature pad size")
	ErrInvalidPoint = fmt.Errorf("invalid signature point")
	ErrFrozen       = fmt.Errorf("signature pad is frozen")
	ErrNoStroke     = fmt.Errorf("no stroke in progress")
	ErrEmpty        = fmt.Errorf("signature is empty")
)

// Point is a pointer position in surface coordinates (CSS pixels)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke []Point

// Pad is a drawing surface with a fixed height whose width follows its
// container. A single scale factor is used for every sizing of the pad.
type Pad struct {
	mu sync.Mutex

	width     float64
	height    float64
	scale     float64
	lineWidth float64

	strokes []Stroke
	drawing bool
	frozen  bool

	surface *gg.Context
}

type Option func(*Pad)

func WithHeight(h float64) Option {
	return func(p *Pad) { p.height = h }
}

// WithScale sets the device pixel ratio applied to the raster
func WithScale(s float64) Option {
	return func(p *Pad) { p.scale = s }
}

func WithLineWidth(w float64) Option {
	return func(p *Pad) { p.lineWidth = w }
}

func NewPad(containerWidth float64, opts ...Option) (*Pad, error) {
	p := &Pad{
		width:     containerWidth,
		height:    DefaultHeight,
		scale:     1,
		lineWidth: DefaultLineWidth,
	}
	for _, opt := range opts {
		opt(p)
	}

	if !validSize(p.width, MaxWidth) || !validSize(p.height, MaxHeight) ||
		!validSize(p.scale, MaxScale) || !validSize(p.lineWidth, MaxLineWidth) {
		return nil, ErrInvalidSize
	}

	return p, nil
}

// NewPadFromStrokes rebuilds a pad from transported stroke data
func NewPadFromStrokes(containerWidth float64, strokes []Stroke, opts ...Option) (*Pad, error) {
	p, err := NewPad(containerWidth, opts...)
	if err != nil {
		return nil, err
	}

	for _, s := range strokes {
		if len(s) == 0 {
			continue
		}
		for _, pt := range s {
			if !validPoint(pt) {
				return nil, ErrInvalidPoint
			}
		}
		p.strokes = append(p.strokes, append(Stroke(nil), s...))
	}

	return p, nil
}

func validSize(v, max float64) bool {
	return v > 0 && v <= max && !math.IsNaN(v)
}

func validPoint(pt Point) bool {
	return !math.IsNaN(pt.X) && !math.IsNaN(pt.Y) && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0)
}

func (p *Pad) BeginStroke(x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return ErrFrozen
	}

	pt := Point{X: x, Y: y}
	if !validPoint(pt) {
		return ErrInvalidPoint
	}

	p.strokes = append(p.strokes, Stroke{pt})
	p.drawing = true
	p.surface = nil
	return nil
}

func (p *Pad) AddPoint(x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return ErrFrozen
	}
	if !p.drawing {
		return ErrNoStroke
	}

	pt := Point{X: x, Y: y}
	if !validPoint(pt) {
		return ErrInvalidPoint
	}

	last := len(p.strokes) - 1
	p.strokes[last] = append(p.strokes[last], pt)
	p.surface = nil
	return nil
}

func (p *Pad) EndStroke() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.drawing {
		return ErrNoStroke
	}
	p.drawing = false
	return nil
}

// Resize follows a container width change. The surface is rebuilt from
// the recorded strokes instead of rescaling pixels.
func (p *Pad) Resize(containerWidth float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !validSize(containerWidth, MaxWidth) {
		return ErrInvalidSize
	}

	p.width = containerWidth
	p.surface = p.replay()
	return nil
}

func (p *Pad) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.strokes) == 0
}

func (p *Pad) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return ErrFrozen
	}

	p.strokes = nil
	p.drawing = false
	p.surface = nil
	return nil
}

// Freeze rejects any further input until Thaw is called
func (p *Pad) Freeze() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frozen = true
	p.drawing = false
}

func (p *Pad) Thaw() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frozen = false
}

// Strokes returns a copy of the recorded strokes
func (p *Pad) Strokes() []Stroke {
	p.mu.Lock()
	defer p.mu.Unlock()

	strokes := make([]Stroke, len(p.strokes))
	for i, s := range p.strokes {
		strokes[i] = append(Stroke(nil), s...)
	}
	return strokes
}

// Size returns the logical size of the surface
func (p *Pad) Size() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.width, p.height
}

// PixelSize returns the raster size of the surface
func (p *Pad) PixelSize() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pixelSize()
}

func (p *Pad) pixelSize() (int, int) {
	return int(math.Ceil(p.width * p.scale)), int(math.Ceil(p.height * p.scale))
}

// ToImage rasterizes the strokes as a PNG
func (p *Pad) ToImage() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.strokes) == 0 {
		return nil, ErrEmpty
	}

	if p.surface == nil {
		p.surface = p.replay()
	}

	var buf bytes.Buffer
	if err := p.surface.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// replay draws every stroke on a freshly sized surface. Points are
// scaled here so the line width follows the same factor.
func (p *Pad) replay() *gg.Context {
	w, h := p.pixelSize()
	dc := gg.NewContext(w, h)

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(p.lineWidth * p.scale)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, s := range p.strokes {
		if len(s) == 1 {
			dc.DrawCircle(s[0].X*p.scale, s[0].Y*p.scale, p.lineWidth*p.scale/2)
			dc.Fill()
			continue
		}

		dc.MoveTo(s[0].X*p.scale, s[0].Y*p.scale)
		for _, pt := range s[1:] {
			dc.LineTo(pt.X*p.scale, pt.Y*p.scale)
		}
		dc.Stroke()
	}

	return dc
}
