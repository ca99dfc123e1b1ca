// Package storage persists desk state and per-object data blobs under the
// application data directory.
package storage

import (
	"context"
	"encoding/json"
)

// Storage is what the IPC layer and the desk need from persistence.
type Storage interface {
	// SaveState stores the renderer's desk state as indented JSON.
	SaveState(ctx context.Context, state json.RawMessage) error
	// LoadState returns the stored state, or nil when nothing was saved yet.
	LoadState(ctx context.Context) (json.RawMessage, error)

	// SaveObjectData stores a blob for one object; empty data deletes it.
	SaveObjectData(ctx context.Context, objectID, dataType string, data []byte) error
	// LoadObjectData returns the blob, or nil when it does not exist.
	LoadObjectData(ctx context.Context, objectID, dataType string) ([]byte, error)
	// DeleteObject removes every blob stored for objectID.
	DeleteObject(ctx context.Context, objectID string) error

	// Dir returns a subdirectory of the data directory, creating it if needed.
	Dir(name string) (string, error)

	Statistics() Statistics
}

type Statistics struct {
	StateWrites   uint64
	StateSkipped  uint64
	ObjectWrites  uint64
	ObjectDeletes uint64
}
