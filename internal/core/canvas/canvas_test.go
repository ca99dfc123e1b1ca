package canvas

import (
	"errors"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/desksim/internal/core/surface"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	ink   = color.NRGBA{R: 10, G: 20, B: 30, A: 255}
)

func newCanvas(t *testing.T, size int) *Canvas {
	t.Helper()
	c, err := New(size, white)
	require.NoError(t, err)
	return c
}

func TestNewPublishesBackground(t *testing.T) {
	c := newCanvas(t, 8)
	snap := c.Latest()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, 8, snap.Size)
	assert.Equal(t, white, snap.At(3, 5))
	assert.False(t, c.Dirty())

	_, err := New(0, white)
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestSnapshotIsolation(t *testing.T) {
	c := newCanvas(t, 16)
	before := c.Latest()

	c.DrawDot(surface.SurfacePixel{Col: 4, Row: 4}, Brush{Color: ink})
	assert.True(t, c.Dirty())
	assert.Same(t, before, c.Latest(), "drawing must not leak into readers before Publish")
	assert.Equal(t, white, before.At(4, 4))

	after := c.Publish()
	assert.Equal(t, uint64(2), after.Version)
	assert.Equal(t, ink, after.At(4, 4))
	assert.Equal(t, white, before.At(4, 4), "old snapshots are immutable")
	assert.NotEqual(t, before.Hash, after.Hash)
}

func TestPublishWithoutChangesKeepsVersion(t *testing.T) {
	c := newCanvas(t, 4)
	first := c.Publish()
	second := c.Publish()
	assert.Same(t, first, second)
}

func TestDrawSegmentCoversEndpointsAndIsConnected(t *testing.T) {
	c := newCanvas(t, 64)
	a := surface.SurfacePixel{Col: 3, Row: 60}
	b := surface.SurfacePixel{Col: 50, Row: 7}
	c.DrawSegment(a, b, Brush{Color: ink})
	snap := c.Publish()

	assert.Equal(t, ink, snap.At(a.Col, a.Row))
	assert.Equal(t, ink, snap.At(b.Col, b.Row))

	// every column between the endpoints has at least one inked pixel
	for col := a.Col; col <= b.Col; col++ {
		found := false
		for row := 0; row < 64; row++ {
			if snap.At(col, row) == ink {
				found = true
				break
			}
		}
		assert.True(t, found, "column %d has a gap", col)
	}
}

func TestBrushRadiusAndClipping(t *testing.T) {
	c := newCanvas(t, 10)
	c.DrawDot(surface.SurfacePixel{Col: 0, Row: 0}, Brush{Color: ink, Radius: 2})
	snap := c.Publish()

	assert.Equal(t, ink, snap.At(2, 0))
	assert.Equal(t, ink, snap.At(1, 1))
	assert.Equal(t, white, snap.At(2, 2), "outside the disc")
}

func TestEraseRestoresBackground(t *testing.T) {
	c := newCanvas(t, 10)
	p := surface.SurfacePixel{Col: 5, Row: 5}
	c.DrawDot(p, Brush{Color: ink, Radius: 1})
	c.DrawDot(p, Brush{Erase: true, Radius: 1})
	assert.Equal(t, white, c.Publish().At(5, 5))
}

func TestPNGRoundTrip(t *testing.T) {
	c := newCanvas(t, 12)
	c.DrawSegment(surface.SurfacePixel{Col: 1, Row: 1}, surface.SurfacePixel{Col: 10, Row: 3}, Brush{Color: ink})
	snap := c.Publish()

	url, err := snap.DataURL()
	require.NoError(t, err)

	restored := newCanvas(t, 12)
	require.NoError(t, restored.LoadPNG([]byte(url)))
	assert.Equal(t, snap.Hash, restored.Publish().Hash)

	small := newCanvas(t, 4)
	raw, err := snap.PNG()
	require.NoError(t, err)
	assert.ErrorIs(t, small.LoadPNG(raw), ErrSizeMismatch)
}

func TestClear(t *testing.T) {
	c := newCanvas(t, 6)
	blank := c.Latest().Hash
	c.DrawDot(surface.SurfacePixel{Col: 2, Row: 2}, Brush{Color: ink})
	c.Publish()
	c.Clear()
	assert.Equal(t, blank, c.Publish().Hash)
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	c := newCanvas(t, 32)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := c.Latest()
				assert.GreaterOrEqual(t, snap.Version, last)
				last = snap.Version
			}
		}()
	}
	for i := 0; i < 32; i++ {
		c.DrawDot(surface.SurfacePixel{Col: i, Row: i}, Brush{Color: ink})
		c.Publish()
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, uint64(33), c.Latest().Version)
}

func TestStrokeRereadsPoseEverySample(t *testing.T) {
	c := newCanvas(t, 512)
	s := surface.MustNew(mgl64.Vec3{}, 0, 0.28, 0.4, 512)
	calls := 0
	pose := func() (surface.PlanarSurface, error) {
		calls++
		return s, nil
	}

	stroke := NewStroke(c, pose, Brush{Color: ink})
	first, err := stroke.Add(surface.WorldPoint{0, 0, 0.1})
	require.NoError(t, err)
	assert.Equal(t, surface.SurfacePixel{Col: 256, Row: 384}, first)

	// rotate the paper a quarter turn between samples; the same world point
	// now lies over a different part of the sheet
	s = surface.MustNew(mgl64.Vec3{}, math.Pi/2, 0.28, 0.4, 512)
	second, err := stroke.Add(surface.WorldPoint{0, 0, 0.1})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, calls)

	snap := stroke.End()
	assert.Equal(t, ink, snap.At(first.Col, first.Row))
	assert.Equal(t, ink, snap.At(second.Col, second.Row))
	assert.Equal(t, 2, stroke.Samples())

	_, err = stroke.Add(surface.WorldPoint{})
	assert.ErrorIs(t, err, ErrStrokeEnded)
}

func TestStrokeRejectsNonFiniteAndPoseErrors(t *testing.T) {
	c := newCanvas(t, 16)
	s := surface.MustNew(mgl64.Vec3{}, 0, 1, 1, 16)
	stroke := NewStroke(c, func() (surface.PlanarSurface, error) { return s, nil }, Brush{Color: ink})

	_, err := stroke.Add(surface.WorldPoint{math.NaN(), 0, 0})
	assert.ErrorIs(t, err, ErrNonFinitePoint)
	assert.Equal(t, 0, stroke.Samples())
	assert.False(t, c.Dirty())

	gone := errors.New("object removed")
	broken := NewStroke(c, func() (surface.PlanarSurface, error) { return surface.PlanarSurface{}, gone }, Brush{Color: ink})
	_, err = broken.Add(surface.WorldPoint{})
	assert.ErrorIs(t, err, gone)
}
