package physics

import "math"

// CollisionPoint is a vertical cylinder in object-local coordinates, scaled
// with the object.
type CollisionPoint struct {
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
	BaseY  float64 `json:"baseY"`
}

// laptop screen geometry in unscaled model units
const (
	laptopScreenTilt    = math.Pi / 6
	laptopScreenHeight  = 0.5
	laptopScreenWidth   = 0.78
	laptopScreenCenterY = 0.28
	laptopScreenCenterZ = -0.23
	laptopPointCount    = 5
	laptopPointRadius   = 0.04
	laptopPointHeight   = 0.25
)

// ExtraCollisionPoints returns collision cylinders for parts of an object
// that overhang its footprint. Only the laptop's tilted screen has any: five
// points spread along the top edge.
func ExtraCollisionPoints(objType string, scale float64) []CollisionPoint {
	if scale <= 0 {
		scale = 1
	}
	if objType != TypeLaptop {
		return nil
	}

	topEdgeY := laptopScreenCenterY + (laptopScreenHeight/2)*math.Cos(laptopScreenTilt)
	topEdgeZ := laptopScreenCenterZ - (laptopScreenHeight/2)*math.Sin(laptopScreenTilt)

	points := make([]CollisionPoint, 0, laptopPointCount)
	for i := 0; i < laptopPointCount; i++ {
		t := float64(i)/float64(laptopPointCount-1) - 0.5
		xOffset := t * (laptopScreenWidth - 0.1)
		points = append(points, CollisionPoint{
			X:      xOffset * scale,
			Z:      topEdgeZ * scale,
			Radius: laptopPointRadius * scale,
			Height: laptopPointHeight * scale,
			BaseY:  topEdgeY * scale,
		})
	}
	return points
}

// Hits reports whether the local point (x, y, z) is inside the cylinder.
func (c CollisionPoint) Hits(x, y, z float64) bool {
	if y < c.BaseY || y > c.BaseY+c.Height {
		return false
	}
	return Distance2(c.X, c.Z, x, z) <= c.Radius
}
