package signature

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawLine(t *testing.T, p *Pad) {
	require.NoError(t, p.BeginStroke(10, 10))
	require.NoError(t, p.AddPoint(50, 40))
	require.NoError(t, p.AddPoint(120, 30))
	require.NoError(t, p.EndStroke())
}

func TestNewPad(t *testing.T) {
	p, err := NewPad(400)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	w, h := p.Size()
	assert.Equal(t, 400.0, w)
	assert.Equal(t, float64(DefaultHeight), h)

	_, err = NewPad(0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewPad(400, WithScale(math.NaN()))
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestDrawAndClear(t *testing.T) {
	p, err := NewPad(400)
	require.NoError(t, err)

	assert.ErrorIs(t, p.AddPoint(1, 1), ErrNoStroke)

	drawLine(t, p)
	assert.False(t, p.IsEmpty())
	assert.Len(t, p.Strokes(), 1)
	assert.Len(t, p.Strokes()[0], 3)

	require.NoError(t, p.Clear())
	assert.True(t, p.IsEmpty())

	_, err = p.ToImage()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestToImage(t *testing.T) {
	p, err := NewPad(300, WithScale(2))
	require.NoError(t, err)
	drawLine(t, p)

	b, err := p.ToImage()
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestResizeReplaysStrokesWithTheSameScale(t *testing.T) {
	p, err := NewPad(300, WithScale(2))
	require.NoError(t, err)
	drawLine(t, p)

	before := p.Strokes()
	require.NoError(t, p.Resize(500))
	assert.Equal(t, before, p.Strokes())

	w, h := p.PixelSize()
	assert.Equal(t, 1000, w)
	assert.Equal(t, 300, h)

	b, err := p.ToImage()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())

	// the first stroke point is inked, a far corner is not
	r, _, _, _ := img.At(20, 20).RGBA()
	assert.Less(t, r, uint32(0x8000))
	r, _, _, _ = img.At(990, 290).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	assert.ErrorIs(t, p.Resize(-1), ErrInvalidSize)
}

func TestDotStroke(t *testing.T) {
	p, err := NewPad(100)
	require.NoError(t, err)

	require.NoError(t, p.BeginStroke(50, 50))
	require.NoError(t, p.EndStroke())
	assert.False(t, p.IsEmpty())

	_, err = p.ToImage()
	assert.NoError(t, err)
}

func TestFreeze(t *testing.T) {
	p, err := NewPad(400)
	require.NoError(t, err)
	drawLine(t, p)

	p.Freeze()
	assert.ErrorIs(t, p.BeginStroke(1, 1), ErrFrozen)
	assert.ErrorIs(t, p.Clear(), ErrFrozen)
	assert.False(t, p.IsEmpty())

	p.Thaw()
	assert.NoError(t, p.Clear())
}

func TestNewPadFromStrokes(t *testing.T) {
	p, err := NewPadFromStrokes(400, []Stroke{
		{{X: 1, Y: 1}, {X: 5, Y: 5}},
		{},
	})
	require.NoError(t, err)
	assert.Len(t, p.Strokes(), 1)

	empty, err := NewPadFromStrokes(400, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = NewPadFromStrokes(400, []Stroke{{{X: math.Inf(1), Y: 0}}})
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestOversizePadIsRejected(t *testing.T) {
	strokes := []Stroke{{{X: 1, Y: 1}, {X: 2, Y: 2}}}

	_, err := NewPadFromStrokes(1e6, strokes, WithScale(1e4))
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewPad(MaxWidth + 1)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewPad(400, WithScale(MaxScale+0.5))
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewPad(400, WithHeight(MaxHeight*2))
	assert.ErrorIs(t, err, ErrInvalidSize)

	p, err := NewPad(MaxWidth, WithScale(MaxScale))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Resize(MaxWidth*10), ErrInvalidSize)

	w, _ := p.Size()
	assert.Equal(t, float64(MaxWidth), w)
}
