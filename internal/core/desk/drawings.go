package desk

import (
	"context"
	"fmt"

	"github.com/zeusync/desksim/internal/core/canvas"
	"github.com/zeusync/desksim/internal/core/observability/log"
	"github.com/zeusync/desksim/internal/core/systems/physics"
	"github.com/zeusync/desksim/pkg/concurrent"
)

// Snapshot returns the latest published drawing of id. If a stroke is in
// progress its samples so far are published first.
func (d *Desk) Snapshot(id string) (*canvas.Snapshot, error) {
	d.mu.RLock()
	e, ok := d.objects[id]
	if !ok {
		d.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	if e.canvas == nil {
		d.mu.RUnlock()
		return nil, ErrNotDrawable
	}
	c := e.canvas
	s := d.strokes[e.stroke]
	d.mu.RUnlock()

	if s != nil {
		s.mu.Lock()
		if !s.done {
			s.stroke.Flush()
		}
		s.mu.Unlock()
	}
	return c.Latest(), nil
}

// ClearSurface wipes the drawing of id and its stored copy.
func (d *Desk) ClearSurface(ctx context.Context, id string) (*canvas.Snapshot, error) {
	d.mu.Lock()
	e, err := d.idleCanvas(id)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	e.canvas.Clear()
	snap := e.canvas.Publish()
	d.mu.Unlock()

	d.publish(EventSurfaceUpdated, Change{ObjectID: id, Version: snap.Version, Hash: snap.Hash})
	if d.store != nil {
		if err := d.store.SaveObjectData(ctx, id, DrawingDataType, nil); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

// RestoreDrawing replaces the drawing of id with a PNG, raw or as a data URL.
func (d *Desk) RestoreDrawing(id string, data []byte) (*canvas.Snapshot, error) {
	d.mu.Lock()
	e, err := d.idleCanvas(id)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	if err := e.canvas.LoadPNG(data); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	snap := e.canvas.Publish()
	d.mu.Unlock()

	d.publish(EventSurfaceUpdated, Change{ObjectID: id, Version: snap.Version, Hash: snap.Hash})
	return snap, nil
}

// idleCanvas returns the entry of a drawable object with no stroke in
// progress. Callers hold d.mu.
func (d *Desk) idleCanvas(id string) (*entry, error) {
	e, ok := d.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	if e.canvas == nil {
		return nil, ErrNotDrawable
	}
	if e.stroke != "" {
		return nil, ErrStrokeActive
	}
	return e, nil
}

// SaveDrawings stores the latest snapshot of every drawn-on canvas.
// Encoding runs in parallel.
func (d *Desk) SaveDrawings(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	type pending struct {
		id   string
		snap *canvas.Snapshot
	}
	d.mu.RLock()
	var work []pending
	for id, e := range d.objects {
		if e.canvas == nil {
			continue
		}
		// version 1 is the untouched background
		if snap := e.canvas.Latest(); snap.Version > 1 {
			work = append(work, pending{id: id, snap: snap})
		}
	}
	d.mu.RUnlock()

	err := concurrent.ForEach(ctx, work, d.opts.Parallelism, func(ctx context.Context, p pending) error {
		return d.persist(ctx, p.id, p.snap)
	})
	if err != nil {
		return fmt.Errorf("desk: save drawings: %w", err)
	}
	d.logger.Info("Drawings saved", log.Int("count", len(work)))
	return nil
}

// Import places previously exported objects under their own IDs and reloads
// their stored drawings. Objects whose ID is already present are skipped. The
// batch is applied as a whole: if any object is invalid, collides or is stacked
// on something that cannot carry it, the desk is left unchanged. A StackedOn
// naming an object that is neither on the desk nor in the batch is dropped.
func (d *Desk) Import(ctx context.Context, objects []Object) ([]Object, error) {
	entries := make([]*entry, 0, len(objects))
	for _, o := range objects {
		if o.ID == "" {
			return nil, fmt.Errorf("%w: missing id", ErrObjectNotFound)
		}
		e, err := d.newEntry(o.ID, PlaceRequest{
			Type:     o.Type,
			Position: o.Position,
			Yaw:      o.Yaw,
			Scale:    o.Scale,
			Pages:    o.Pages,
		})
		if err != nil {
			return nil, fmt.Errorf("desk: import %s: %w", o.ID, err)
		}
		e.obj.StackedOn = o.StackedOn
		entries = append(entries, e)
	}

	d.mu.Lock()
	added, err := d.admitLocked(entries)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	placed := make([]Object, 0, len(added))
	for _, e := range added {
		d.seq++
		e.seq = d.seq
		d.objects[e.obj.ID] = e
		placed = append(placed, e.obj)
	}
	d.mu.Unlock()

	if d.store != nil {
		drawables := make([]*entry, 0, len(added))
		for _, e := range added {
			if e.canvas != nil {
				drawables = append(drawables, e)
			}
		}
		blobs, err := concurrent.Map(ctx, drawables, d.opts.Parallelism, func(ctx context.Context, e *entry) ([]byte, error) {
			return d.store.LoadObjectData(ctx, e.obj.ID, DrawingDataType)
		})
		if err != nil {
			// the objects are already on the desk; they keep blank canvases
			d.logger.Warn("Failed to load stored drawings", log.Error(err))
			blobs = nil
		}
		for i, blob := range blobs {
			if blob == nil {
				continue
			}
			if _, err := d.RestoreDrawing(drawables[i].obj.ID, blob); err != nil {
				d.logger.Warn("Stored drawing is unreadable",
					log.String("object_id", drawables[i].obj.ID),
					log.Error(err),
				)
			}
		}
	}

	for i := range placed {
		d.publish(EventObjectPlaced, Change{ObjectID: placed[i].ID, Object: &placed[i]})
	}
	return placed, nil
}

// admitLocked runs the placement checks for an import batch without touching
// the desk. Each object is checked against the desk and the objects admitted
// before it. Callers hold d.mu.
func (d *Desk) admitLocked(entries []*entry) ([]*entry, error) {
	batch := make(map[string]*entry, len(entries))
	for _, e := range entries {
		if _, dup := batch[e.obj.ID]; !dup {
			batch[e.obj.ID] = e
		}
	}

	var admitted []*entry
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		id := e.obj.ID
		if _, exists := d.objects[id]; exists || seen[id] {
			continue
		}
		seen[id] = true

		if on := e.obj.StackedOn; on != "" {
			below, ok := d.objects[on]
			if !ok {
				below, ok = batch[on]
			}
			switch {
			case !ok || on == id:
				d.logger.Debug("Dropping unknown stacking target",
					log.String("object_id", id),
					log.String("stacked_on", on),
				)
				e.obj.StackedOn = ""
			case !physics.CanStackOn(below.obj.Type):
				return nil, fmt.Errorf("desk: import %s: %w: %s", id, ErrStackingNotAllowed, below.obj.Type)
			}
		}

		if other, hit := d.obstructedLocked(e.obj.Position, ""); hit {
			return nil, fmt.Errorf("desk: import %s: %w: %s", id, ErrCollision, other)
		}
		for _, prev := range admitted {
			if prev.obstructs(e.obj.Position) {
				return nil, fmt.Errorf("desk: import %s: %w: %s", id, ErrCollision, prev.obj.ID)
			}
		}
		admitted = append(admitted, e)
	}
	return admitted, nil
}

func (d *Desk) persist(ctx context.Context, id string, snap *canvas.Snapshot) error {
	if d.store == nil {
		return nil
	}
	url, err := snap.DataURL()
	if err != nil {
		return err
	}
	if err := d.store.SaveObjectData(ctx, id, DrawingDataType, []byte(url)); err != nil {
		return fmt.Errorf("desk: persist drawing %s: %w", id, err)
	}
	return nil
}
