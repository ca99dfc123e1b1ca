// Package desk is the scene model: the objects on the desk, their poses and
// the canvases of the ones that can be drawn on.
//
// A drawable object's surface is rebuilt from its pose every time it is
// needed, so a stroke in progress always maps samples through the pose the
// object has at that instant.
package desk

import (
	"context"
	"fmt"
	"image/color"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/zeusync/desksim/internal/core/canvas"
	"github.com/zeusync/desksim/internal/core/events/bus"
	"github.com/zeusync/desksim/internal/core/observability/log"
	"github.com/zeusync/desksim/internal/core/storage"
	"github.com/zeusync/desksim/internal/core/surface"
	"github.com/zeusync/desksim/internal/core/systems/physics"
)

// Event types published on the bus. Event data is a Change.
const (
	EventObjectPlaced   = "object.placed"
	EventObjectMoved    = "object.moved"
	EventObjectRemoved  = "object.removed"
	EventSurfaceUpdated = "surface.updated"
)

// DrawingDataType is the object-data key drawings are stored under.
const DrawingDataType = "drawing"

const eventSource = "desk"

// Change is the payload of every desk event.
type Change struct {
	Type     string  `json:"type"`
	ObjectID string  `json:"objectId"`
	Object   *Object `json:"object,omitempty"`
	Version  uint64  `json:"version,omitempty"`
	Hash     uint64  `json:"hash,omitempty"`
}

type Options struct {
	Resolution int
	Background color.NRGBA
	Brush      canvas.Brush
	// Parallelism bounds concurrent PNG work in SaveDrawings and Import.
	Parallelism int
}

func DefaultOptions() Options {
	return Options{
		Resolution:  512,
		Background:  color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Brush:       canvas.DefaultBrush,
		Parallelism: 4,
	}
}

type Desk struct {
	opts   Options
	events bus.EventBus
	store  storage.Storage
	logger log.Log

	mu      sync.RWMutex
	objects map[string]*entry
	strokes map[string]*session
	seq     uint64
}

// New creates an empty desk. events and store may be nil.
func New(opts Options, events bus.EventBus, store storage.Storage, logger log.Log) *Desk {
	if opts.Resolution <= 0 {
		opts.Resolution = DefaultOptions().Resolution
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultOptions().Parallelism
	}
	return &Desk{
		opts:    opts,
		events:  events,
		store:   store,
		logger:  logger.With(log.String("component", "desk")),
		objects: make(map[string]*entry),
		strokes: make(map[string]*session),
	}
}

func (d *Desk) Options() Options { return d.opts }

// Place puts a new object on the desk.
func (d *Desk) Place(req PlaceRequest) (Object, error) {
	e, err := d.newEntry(uuid.NewString(), req)
	if err != nil {
		return Object{}, err
	}
	if err := d.insert(e, req.On); err != nil {
		return Object{}, err
	}
	obj := e.obj
	d.publish(EventObjectPlaced, Change{ObjectID: obj.ID, Object: &obj})
	d.logger.Debug("Object placed",
		log.String("object_id", obj.ID),
		log.String("type", obj.Type),
		log.Bool("drawable", obj.Drawable),
	)
	return obj, nil
}

func (d *Desk) newEntry(id string, req PlaceRequest) (*entry, error) {
	if req.Type == "" {
		return nil, ErrUnknownType
	}
	scale := req.Scale
	if scale == 0 {
		scale = 1
	}
	if !validPose(req.Position, req.Yaw, scale) {
		return nil, ErrInvalidPose
	}
	e := &entry{obj: Object{
		ID:        id,
		Type:      req.Type,
		Position:  req.Position,
		Yaw:       req.Yaw,
		Scale:     scale,
		Pages:     req.Pages,
		Thickness: physics.Thickness(req.Type, req.Pages),
		Physics:   physics.Lookup(req.Type),
	}}
	if size, ok := Drawable(req.Type); ok {
		c, err := canvas.New(d.opts.Resolution, d.opts.Background)
		if err != nil {
			return nil, err
		}
		e.size = size
		e.canvas = c
		e.obj.Drawable = true
	}
	return e, nil
}

func (d *Desk) insert(e *entry, on string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.objects[e.obj.ID]; exists {
		return fmt.Errorf("desk: duplicate object id %s", e.obj.ID)
	}
	if on != "" {
		below, ok := d.objects[on]
		if !ok {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, on)
		}
		if !physics.CanStackOn(below.obj.Type) {
			return fmt.Errorf("%w: %s", ErrStackingNotAllowed, below.obj.Type)
		}
		e.obj.Position[1] = below.obj.Top()
		e.obj.StackedOn = below.obj.ID
	}
	if id, hit := d.obstructedLocked(e.obj.Position, ""); hit {
		return fmt.Errorf("%w: %s", ErrCollision, id)
	}
	d.seq++
	e.seq = d.seq
	d.objects[e.obj.ID] = e
	return nil
}

// Move sets a new pose. Moving an object takes it off whatever it was stacked on.
func (d *Desk) Move(id string, position mgl64.Vec3, yaw float64) (Object, error) {
	d.mu.Lock()
	e, ok := d.objects[id]
	if !ok {
		d.mu.Unlock()
		return Object{}, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	if !validPose(position, yaw, e.obj.Scale) {
		d.mu.Unlock()
		return Object{}, ErrInvalidPose
	}
	if other, hit := d.obstructedLocked(position, id); hit {
		d.mu.Unlock()
		return Object{}, fmt.Errorf("%w: %s", ErrCollision, other)
	}
	e.obj.Position = position
	e.obj.Yaw = yaw
	e.obj.StackedOn = ""
	obj := e.obj
	d.mu.Unlock()

	d.publish(EventObjectMoved, Change{ObjectID: id, Object: &obj})
	return obj, nil
}

// Remove deletes the object, abandons its active stroke and drops its stored blobs.
func (d *Desk) Remove(ctx context.Context, id string) error {
	d.mu.Lock()
	e, ok := d.objects[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	delete(d.objects, id)
	if e.stroke != "" {
		delete(d.strokes, e.stroke)
	}
	for _, other := range d.objects {
		if other.obj.StackedOn == id {
			other.obj.StackedOn = ""
		}
	}
	d.mu.Unlock()

	var err error
	if d.store != nil {
		if err = d.store.DeleteObject(ctx, id); err != nil {
			d.logger.Warn("Failed to delete object data", log.String("object_id", id), log.Error(err))
		}
	}
	d.publish(EventObjectRemoved, Change{ObjectID: id})
	return err
}

func (d *Desk) Get(id string) (Object, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.objects[id]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return e.obj, nil
}

// List returns all objects in placement order.
func (d *Desk) List() []Object {
	type ordered struct {
		seq uint64
		obj Object
	}
	d.mu.RLock()
	items := make([]ordered, 0, len(d.objects))
	for _, e := range d.objects {
		items = append(items, ordered{seq: e.seq, obj: e.obj})
	}
	d.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })
	out := make([]Object, len(items))
	for i, it := range items {
		out[i] = it.obj
	}
	return out
}

// Surface returns the drawable surface of id at its current pose.
func (d *Desk) Surface(id string) (surface.PlanarSurface, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.objects[id]
	if !ok {
		return surface.PlanarSurface{}, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return e.surface(d.opts.Resolution)
}

// MapPoint maps a world point onto the surface of id.
func (d *Desk) MapPoint(id string, p surface.WorldPoint) (surface.SurfacePixel, error) {
	s, err := d.Surface(id)
	if err != nil {
		return surface.SurfacePixel{}, err
	}
	return surface.MapToPixel(p, s), nil
}

// SurfaceAt finds the drawable object under p. When surfaces overlap the
// highest one wins, then the most recently placed.
func (d *Desk) SurfaceAt(p surface.WorldPoint) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var best *entry
	for _, e := range d.objects {
		s, err := e.surface(d.opts.Resolution)
		if err != nil || !surface.Contains(p, s) {
			continue
		}
		y, bestY := e.obj.Position.Y(), 0.0
		if best != nil {
			bestY = best.obj.Position.Y()
		}
		if best == nil || y > bestY || (y == bestY && e.seq > best.seq) {
			best = e
		}
	}
	if best == nil {
		return "", false
	}
	return best.obj.ID, true
}

// Obstructed reports which object's overhang, if any, occupies p.
func (d *Desk) Obstructed(p mgl64.Vec3) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.obstructedLocked(p, "")
}

func (d *Desk) obstructedLocked(p mgl64.Vec3, skip string) (string, bool) {
	for id, e := range d.objects {
		if id != skip && e.obstructs(p) {
			return id, true
		}
	}
	return "", false
}

func (d *Desk) publish(typ string, change Change) {
	if d.events == nil {
		return
	}
	change.Type = typ
	if err := d.events.Publish(bus.NewEvent(typ, eventSource, change)); err != nil {
		d.logger.Warn("Event handler failed", log.String("event", typ), log.Error(err))
	}
}
