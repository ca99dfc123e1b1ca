package desk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/desksim/internal/core/canvas"
	"github.com/zeusync/desksim/internal/core/surface"
	"github.com/zeusync/desksim/internal/core/systems/physics"
)

// SurfaceSize is the unscaled world footprint of a drawable object.
type SurfaceSize struct {
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

var drawable = map[string]SurfaceSize{
	physics.TypePaper:    {Width: 0.28, Depth: 0.4},
	physics.TypeNotebook: {Width: 0.4, Depth: 0.55},
}

// Drawable reports the unscaled surface size for objType, if it can be drawn on.
func Drawable(objType string) (SurfaceSize, bool) {
	s, ok := drawable[objType]
	return s, ok
}

// Object is the public view of a desk object.
type Object struct {
	ID        string             `json:"id"`
	Type      string             `json:"type"`
	Position  mgl64.Vec3         `json:"position"`
	Yaw       float64            `json:"yaw"`
	Scale     float64            `json:"scale"`
	Pages     int                `json:"pages,omitempty"`
	Thickness float64            `json:"thickness"`
	Physics   physics.Properties `json:"physics"`
	Drawable  bool               `json:"drawable"`
	StackedOn string             `json:"stackedOn,omitempty"`
}

// Top is the world height of the object's upper face.
func (o Object) Top() float64 {
	return o.Position.Y() + o.Thickness*o.Scale
}

// PlaceRequest describes a new object. Scale 0 means 1. A non-empty On stacks
// the object on top of that object and ignores Position.Y.
type PlaceRequest struct {
	Type     string     `json:"type"`
	Position mgl64.Vec3 `json:"position"`
	Yaw      float64    `json:"yaw"`
	Scale    float64    `json:"scale"`
	Pages    int        `json:"pages,omitempty"`
	On       string     `json:"on,omitempty"`
}

type entry struct {
	obj    Object
	size   SurfaceSize
	canvas *canvas.Canvas
	stroke string
	seq    uint64
}

func (e *entry) surface(res int) (surface.PlanarSurface, error) {
	if e.canvas == nil {
		return surface.PlanarSurface{}, ErrNotDrawable
	}
	return surface.New(e.obj.Position, e.obj.Yaw, e.size.Width*e.obj.Scale, e.size.Depth*e.obj.Scale, res)
}

// obstructs reports whether world point p falls inside one of the object's
// overhang collision cylinders.
func (e *entry) obstructs(p mgl64.Vec3) bool {
	points := physics.ExtraCollisionPoints(e.obj.Type, e.obj.Scale)
	if len(points) == 0 {
		return false
	}
	off := mgl64.Vec2{p.X() - e.obj.Position.X(), p.Z() - e.obj.Position.Z()}
	local := mgl64.Rotate2D(-e.obj.Yaw).Mul2x1(off)
	y := p.Y() - e.obj.Position.Y()
	for _, c := range points {
		if c.Hits(local.X(), y, local.Y()) {
			return true
		}
	}
	return false
}

func validPose(pos mgl64.Vec3, yaw, scale float64) bool {
	for _, v := range []float64{pos.X(), pos.Y(), pos.Z(), yaw, scale} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return scale > 0
}
