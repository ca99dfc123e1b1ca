// Package physics holds the static heuristics used when placing and
// stacking desk objects. Nothing here simulates motion; every function is a
// lookup or a closed-form formula.
package physics

import "math"

// Object types with dedicated entries.
const (
	TypeClock          = "clock"
	TypeLamp           = "lamp"
	TypeLaptop         = "laptop"
	TypeNotebook       = "notebook"
	TypePhotoFrame     = "photo-frame"
	TypePaper          = "paper"
	TypeBook           = "book"
	TypeMagazine       = "magazine"
	TypeCassettePlayer = "cassette-player"
	TypeDictaphone     = "dictaphone"
)

// Properties are the per-type constants that drive placement and friction.
type Properties struct {
	Weight          float64 `json:"weight" yaml:"weight"`
	Stability       float64 `json:"stability" yaml:"stability"`
	Height          float64 `json:"height" yaml:"height"`
	BaseOffset      float64 `json:"baseOffset" yaml:"baseOffset"`
	Friction        float64 `json:"friction" yaml:"friction"`
	NoStackingOnTop bool    `json:"noStackingOnTop,omitempty" yaml:"noStackingOnTop,omitempty"`
}

// Default applies to any type without its own entry.
var Default = Properties{Weight: 0.5, Stability: 0.5, Height: 0.3, BaseOffset: 0, Friction: 0.5}

var table = map[string]Properties{
	TypeClock:          {Weight: 0.5, Stability: 0.5, Height: 0.6, BaseOffset: 0.35, Friction: 0.4, NoStackingOnTop: true},
	TypeLamp:           {Weight: 1.2, Stability: 0.85, Height: 0.9, BaseOffset: 0, Friction: 0.5},
	TypeLaptop:         {Weight: 1.5, Stability: 0.95, Height: 0.3, BaseOffset: 0, Friction: 0.6},
	TypeNotebook:       {Weight: 0.3, Stability: 0.95, Height: 0.1, BaseOffset: 0, Friction: 0.7},
	TypePhotoFrame:     {Weight: 0.3, Stability: 0.35, Height: 0.5, BaseOffset: 0.25, Friction: 0.4, NoStackingOnTop: true},
	TypePaper:          {Weight: 0.05, Stability: 0.95, Height: 0.01, BaseOffset: 0, Friction: 0.6},
	TypeBook:           {Weight: 0.6, Stability: 0.95, Height: 0.05, BaseOffset: 0, Friction: 0.7},
	TypeMagazine:       {Weight: 0.3, Stability: 0.95, Height: 0.03, BaseOffset: 0, Friction: 0.65},
	TypeCassettePlayer: {Weight: 0.4, Stability: 0.8, Height: 0.15, BaseOffset: 0, Friction: 0.5},
	TypeDictaphone:     {Weight: 0.15, Stability: 0.6, Height: 0.12, BaseOffset: 0, Friction: 0.5},
}

// Lookup returns the properties for objType, falling back to Default.
func Lookup(objType string) Properties {
	if p, ok := table[objType]; ok {
		return p
	}
	return Default
}

// Known reports whether objType has a dedicated entry.
func Known(objType string) bool {
	_, ok := table[objType]
	return ok
}

// CanStackOn reports whether an object may be placed on top of one of type below.
func CanStackOn(below string) bool {
	return !Lookup(below).NoStackingOnTop
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }
