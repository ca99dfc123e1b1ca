package surface

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WorldToLocal expresses p in the surface's unrotated frame: the horizontal
// offset from the surface origin rotated by -yaw. The returned vector is
// (localX, localZ).
func WorldToLocal(p WorldPoint, s PlanarSurface) mgl64.Vec2 {
	offset := mgl64.Vec2{p[0] - s.position[0], p[2] - s.position[2]}
	if s.yaw == 0 {
		return offset
	}
	// Rotate2D(-yaw) = [cos sin; -sin cos]
	return mgl64.Rotate2D(-s.yaw).Mul2x1(offset)
}

// LocalToWorld is the inverse of WorldToLocal. The y coordinate is taken
// from the surface position since contacts lie on the surface plane.
func LocalToWorld(local mgl64.Vec2, s PlanarSurface) WorldPoint {
	offset := local
	if s.yaw != 0 {
		offset = mgl64.Rotate2D(s.yaw).Mul2x1(local)
	}
	return WorldPoint{
		s.position[0] + offset[0],
		s.position[1],
		s.position[2] + offset[1],
	}
}

// Normalized maps p into the unit square of the surface. Points on the
// surface satisfy 0 <= u,v <= 1; points outside it fall outside that range.
func Normalized(p WorldPoint, s PlanarSurface) (u, v float64) {
	local := WorldToLocal(p, s)
	return local[0]/s.width + 0.5, local[1]/s.depth + 0.5
}

// MapToPixel returns the canvas pixel under the contact p given the
// surface's pose at the moment of the sample. It is a pure function of its
// arguments; callers pass a freshly read pose for every sample and never
// rotate previously drawn pixels.
func MapToPixel(p WorldPoint, s PlanarSurface) SurfacePixel {
	u, v := Normalized(p, s)
	res := float64(s.resolutionPx)
	return SurfacePixel{
		Col: clampIndex(math.Floor(u*res), s.resolutionPx),
		Row: clampIndex(math.Floor(v*res), s.resolutionPx),
	}
}

// Contains reports whether p lies over the surface rectangle.
func Contains(p WorldPoint, s PlanarSurface) bool {
	u, v := Normalized(p, s)
	return u >= 0 && u <= 1 && v >= 0 && v <= 1
}

// clampIndex bounds a floored coordinate to [0, n-1]. NaN maps to 0.
func clampIndex(v float64, n int) int {
	if !(v >= 0) {
		return 0
	}
	if v >= float64(n-1) {
		return n - 1
	}
	return int(v)
}
