// Package surface maps pointer contacts on a rotatable drawable object into
// pixel coordinates of that object's drawing canvas.
//
// Convention: the surface-local frame is the object's unrotated frame with
// origin at the surface centre. Local +X spans the width, local +Z spans the
// depth and points away from the viewer at yaw 0. Pixel column grows with
// local X, pixel row grows with local Z, so row 0 is the -Depth/2 edge.
// The mapper never applies a texture flip; the render step owns it.
package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidSurface = errors.New("surface: invalid surface")

// WorldPoint is a pointer contact in world space.
type WorldPoint = mgl64.Vec3

// SurfacePixel addresses one pixel of a surface canvas.
type SurfacePixel struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (p SurfacePixel) String() string {
	return fmt.Sprintf("(%d,%d)", p.Col, p.Row)
}

// PlanarSurface is the drawable rectangle of an object, described by its
// current pose. Values are only ever created through New or SetPose, so the
// dimension invariants hold for every instance the mapper sees.
type PlanarSurface struct {
	position     mgl64.Vec3
	yaw          float64
	width        float64
	depth        float64
	resolutionPx int
}

// New validates and builds a surface. Width and depth are world extents with
// any uniform scale already applied.
func New(position mgl64.Vec3, yaw, width, depth float64, resolutionPx int) (PlanarSurface, error) {
	if !finite(width) || width <= 0 {
		return PlanarSurface{}, fmt.Errorf("%w: width %v", ErrInvalidSurface, width)
	}
	if !finite(depth) || depth <= 0 {
		return PlanarSurface{}, fmt.Errorf("%w: depth %v", ErrInvalidSurface, depth)
	}
	if resolutionPx <= 0 {
		return PlanarSurface{}, fmt.Errorf("%w: resolution %d", ErrInvalidSurface, resolutionPx)
	}
	s := PlanarSurface{width: width, depth: depth, resolutionPx: resolutionPx}
	if err := s.setPose(position, yaw); err != nil {
		return PlanarSurface{}, err
	}
	return s, nil
}

// MustNew is New for statically known dimensions.
func MustNew(position mgl64.Vec3, yaw, width, depth float64, resolutionPx int) PlanarSurface {
	s, err := New(position, yaw, width, depth, resolutionPx)
	if err != nil {
		panic(err)
	}
	return s
}

// WithPose returns a copy of s moved to position and rotated to yaw.
func (s PlanarSurface) WithPose(position mgl64.Vec3, yaw float64) (PlanarSurface, error) {
	if err := s.setPose(position, yaw); err != nil {
		return PlanarSurface{}, err
	}
	return s, nil
}

func (s *PlanarSurface) setPose(position mgl64.Vec3, yaw float64) error {
	if !finite(position[0]) || !finite(position[1]) || !finite(position[2]) {
		return fmt.Errorf("%w: position %v", ErrInvalidSurface, position)
	}
	if !finite(yaw) {
		return fmt.Errorf("%w: yaw %v", ErrInvalidSurface, yaw)
	}
	s.position = position
	s.yaw = yaw
	return nil
}

func (s PlanarSurface) Position() mgl64.Vec3 { return s.position }
func (s PlanarSurface) Yaw() float64         { return s.yaw }
func (s PlanarSurface) Width() float64       { return s.width }
func (s PlanarSurface) Depth() float64       { return s.depth }
func (s PlanarSurface) ResolutionPx() int    { return s.resolutionPx }

// PixelCenter is where the surface origin lands for every yaw.
func (s PlanarSurface) PixelCenter() SurfacePixel {
	return SurfacePixel{Col: s.resolutionPx / 2, Row: s.resolutionPx / 2}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
