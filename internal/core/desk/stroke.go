package desk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/desksim/internal/core/canvas"
	"github.com/zeusync/desksim/internal/core/observability/log"
	"github.com/zeusync/desksim/internal/core/surface"
)

// session serializes the samples of one stroke. It is the only writer of
// its object's canvas while it is registered.
type session struct {
	mu       sync.Mutex
	objectID string
	stroke   *canvas.Stroke
	done     bool
}

// BeginStroke opens a stroke on the canvas of id. A zero brush uses the
// desk's default brush.
func (d *Desk) BeginStroke(id string, brush canvas.Brush) (string, error) {
	if brush == (canvas.Brush{}) {
		brush = d.opts.Brush
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.objects[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	if e.canvas == nil {
		return "", ErrNotDrawable
	}
	if e.stroke != "" {
		return "", ErrStrokeActive
	}

	strokeID := uuid.NewString()
	d.strokes[strokeID] = &session{
		objectID: id,
		stroke:   canvas.NewStroke(e.canvas, d.poseSource(id), brush),
	}
	e.stroke = strokeID
	return strokeID, nil
}

// StrokeSample draws the next sample of a stroke. Non-finite points are
// dropped and reported; the stroke stays open.
func (d *Desk) StrokeSample(strokeID string, p surface.WorldPoint) (surface.SurfacePixel, error) {
	s, err := d.session(strokeID)
	if err != nil {
		return surface.SurfacePixel{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return surface.SurfacePixel{}, fmt.Errorf("%w: %s", ErrStrokeNotFound, strokeID)
	}
	px, err := s.stroke.Add(p)
	if errors.Is(err, canvas.ErrNonFinitePoint) {
		d.logger.Warn("Dropped non-finite stroke sample", log.String("stroke_id", strokeID))
	}
	return px, err
}

// EndStroke publishes the stroke, persists the drawing and frees the canvas
// for the next stroke.
func (d *Desk) EndStroke(ctx context.Context, strokeID string) (*canvas.Snapshot, error) {
	s, err := d.session(strokeID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrStrokeNotFound, strokeID)
	}
	snap := s.stroke.End()
	s.done = true
	samples := s.stroke.Samples()
	s.mu.Unlock()

	d.mu.Lock()
	delete(d.strokes, strokeID)
	e, alive := d.objects[s.objectID]
	if alive && e.stroke == strokeID {
		e.stroke = ""
	}
	d.mu.Unlock()

	if !alive {
		return snap, nil
	}
	d.logger.Debug("Stroke ended",
		log.String("object_id", s.objectID),
		log.Int("samples", samples),
		log.Uint64("version", snap.Version),
	)
	d.publish(EventSurfaceUpdated, Change{ObjectID: s.objectID, Version: snap.Version, Hash: snap.Hash})
	if err := d.persist(ctx, s.objectID, snap); err != nil {
		return snap, err
	}
	return snap, nil
}

func (d *Desk) session(strokeID string) (*session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.strokes[strokeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrokeNotFound, strokeID)
	}
	return s, nil
}

func (d *Desk) poseSource(id string) canvas.PoseSource {
	return func() (surface.PlanarSurface, error) {
		return d.Surface(id)
	}
}
