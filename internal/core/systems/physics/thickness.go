package physics

import "math"

const paperSheetThickness = 0.0001

// BookThickness returns the spine thickness of a book with totalPages pages:
// a 15mm base plus 0.08mm per page, never thinner than five sheets plus a
// cover and never thicker than 8cm.
func BookThickness(totalPages int) float64 {
	const (
		thicknessPerPage = 0.00008
		baseThickness    = 0.015
		maxThickness     = 0.08
	)
	minThickness := paperSheetThickness*5 + 0.01
	return math.Max(minThickness, math.Min(maxThickness, baseThickness+float64(totalPages)*thicknessPerPage))
}

// MagazineThickness uses the book formula with thinner paper, so a magazine
// is always slightly thinner than a book of the same page count.
func MagazineThickness(totalPages int) float64 {
	const (
		thicknessPerPage = 0.00007
		baseThickness    = 0.012
		minThickness     = 0.006
		maxThickness     = 0.06
	)
	return math.Max(minThickness, math.Min(maxThickness, baseThickness+float64(totalPages)*thicknessPerPage))
}

// Thickness dispatches on object type. Types without pages report their table height.
func Thickness(objType string, totalPages int) float64 {
	switch objType {
	case TypeBook:
		return BookThickness(totalPages)
	case TypeMagazine:
		return MagazineThickness(totalPages)
	default:
		return Lookup(objType).Height
	}
}
