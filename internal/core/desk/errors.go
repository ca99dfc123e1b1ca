package desk

import "errors"

var (
	ErrObjectNotFound     = errors.New("desk: object not found")
	ErrUnknownType        = errors.New("desk: object type is required")
	ErrInvalidPose        = errors.New("desk: position, yaw and scale must be finite and scale positive")
	ErrNotDrawable        = errors.New("desk: object has no drawable surface")
	ErrStackingNotAllowed = errors.New("desk: nothing can be stacked on this object")
	ErrCollision          = errors.New("desk: position collides with another object")
	ErrStrokeNotFound     = errors.New("desk: stroke not found")
	ErrStrokeActive       = errors.New("desk: surface already has an active stroke")
)
