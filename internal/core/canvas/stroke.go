package canvas

import (
	"errors"
	"math"

	"github.com/zeusync/desksim/internal/core/surface"
)

var (
	ErrNonFinitePoint = errors.New("canvas: non-finite sample")
	ErrStrokeEnded    = errors.New("canvas: stroke already ended")
)

// PoseSource returns the surface pose as it is right now. A stroke calls it
// once per sample and never keeps the result.
type PoseSource func() (surface.PlanarSurface, error)

// Stroke connects consecutive pointer samples on one canvas.
type Stroke struct {
	canvas  *Canvas
	pose    PoseSource
	brush   Brush
	last    surface.SurfacePixel
	started bool
	ended   bool
	samples int
}

func NewStroke(c *Canvas, pose PoseSource, brush Brush) *Stroke {
	return &Stroke{canvas: c, pose: pose, brush: brush}
}

// Add maps p through the current pose and draws from the previous sample to
// it. The first sample draws a dot.
func (s *Stroke) Add(p surface.WorldPoint) (surface.SurfacePixel, error) {
	if s.ended {
		return surface.SurfacePixel{}, ErrStrokeEnded
	}
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return surface.SurfacePixel{}, ErrNonFinitePoint
		}
	}
	pose, err := s.pose()
	if err != nil {
		return surface.SurfacePixel{}, err
	}

	px := surface.MapToPixel(p, pose)
	if s.started {
		s.canvas.DrawSegment(s.last, px, s.brush)
	} else {
		s.canvas.DrawDot(px, s.brush)
		s.started = true
	}
	s.last = px
	s.samples++
	return px, nil
}

// Samples returns how many samples were drawn.
func (s *Stroke) Samples() int { return s.samples }

// Flush publishes what was drawn so far without ending the stroke.
func (s *Stroke) Flush() *Snapshot {
	return s.canvas.Publish()
}

// End publishes the stroke. Further samples are rejected.
func (s *Stroke) End() *Snapshot {
	s.ended = true
	return s.canvas.Publish()
}
