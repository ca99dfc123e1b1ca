package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

const (
	StateFileName = "desk-state.json"
	ObjectDataDir = "object-data"
)

var (
	ErrInvalidKey   = errors.New("storage: invalid key")
	ErrInvalidState = errors.New("storage: state is not valid JSON")
)

var _ Storage = (*FileStore)(nil)

// FileStore keeps the state file and object blobs as plain files. Writes go
// through a temp file and a rename so a crash never leaves a torn file.
type FileStore struct {
	dir    string
	logger log.Log

	mu        sync.Mutex
	stateHash uint64
	hashValid bool

	stateWrites   atomic.Uint64
	stateSkipped  atomic.Uint64
	objectWrites  atomic.Uint64
	objectDeletes atomic.Uint64
}

// NewFileStore creates dataDir if needed.
func NewFileStore(dataDir string, logger log.Log) (*FileStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: empty data dir", ErrInvalidKey)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	return &FileStore{
		dir:    dataDir,
		logger: logger.With(log.String("component", "storage")),
	}, nil
}

func (s *FileStore) Root() string { return s.dir }

func (s *FileStore) SaveState(ctx context.Context, state json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(state) {
		return ErrInvalidState
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, state, "", "  "); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// position saves fire on every drag; identical content is not rewritten
	sum := xxhash.Sum64(pretty.Bytes())
	if s.hashValid && sum == s.stateHash {
		s.stateSkipped.Add(1)
		return nil
	}
	if err := writeAtomic(filepath.Join(s.dir, StateFileName), pretty.Bytes()); err != nil {
		return err
	}
	s.stateHash = sum
	s.hashValid = true
	s.stateWrites.Add(1)
	s.logger.Debug("State saved", log.Int("bytes", pretty.Len()))
	return nil
}

func (s *FileStore) LoadState(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, StateFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read state: %w", err)
	}
	if !json.Valid(data) {
		return nil, ErrInvalidState
	}

	s.mu.Lock()
	s.stateHash = xxhash.Sum64(data)
	s.hashValid = true
	s.mu.Unlock()
	return data, nil
}

func (s *FileStore) SaveObjectData(ctx context.Context, objectID, dataType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.objectPath(objectID, dataType)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: delete object data: %w", err)
		}
		s.objectDeletes.Add(1)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: create object dir: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}
	s.objectWrites.Add(1)
	return nil
}

func (s *FileStore) LoadObjectData(ctx context.Context, objectID, dataType string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.objectPath(objectID, dataType)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read object data: %w", err)
	}
	return data, nil
}

func (s *FileStore) DeleteObject(ctx context.Context, objectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(objectID); err != nil {
		return err
	}
	dir := filepath.Join(s.dir, ObjectDataDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: list object data: %w", err)
	}
	var all error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, _, ok := splitObjectFile(entry.Name())
		if !ok || id != objectID {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			all = errors.Join(all, err)
			continue
		}
		s.objectDeletes.Add(1)
	}
	return all
}

func (s *FileStore) Dir(name string) (string, error) {
	if err := validateKey(name); err != nil {
		return "", err
	}
	dir := filepath.Join(s.dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", name, err)
	}
	return dir, nil
}

func (s *FileStore) Statistics() Statistics {
	return Statistics{
		StateWrites:   s.stateWrites.Load(),
		StateSkipped:  s.stateSkipped.Load(),
		ObjectWrites:  s.objectWrites.Load(),
		ObjectDeletes: s.objectDeletes.Load(),
	}
}

func (s *FileStore) objectPath(objectID, dataType string) (string, error) {
	if err := validateKey(objectID); err != nil {
		return "", err
	}
	if err := validateDataType(dataType); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, ObjectDataDir, objectID+"-"+dataType+".data"), nil
}

// splitObjectFile parses "<objectID>-<dataType>.data". Data types never
// contain '-', so the last '-' separates the two.
func splitObjectFile(name string) (objectID, dataType string, ok bool) {
	base, found := strings.CutSuffix(name, ".data")
	if !found {
		return "", "", false
	}
	i := strings.LastIndexByte(base, '-')
	if i <= 0 || i == len(base)-1 {
		return "", "", false
	}
	return base[:i], base[i+1:], true
}

// validateKey keeps renderer-supplied names inside the data directory.
func validateKey(k string) error {
	if k == "" || k == "." || k == ".." || strings.ContainsAny(k, `/\`) || strings.ContainsRune(k, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k)
	}
	return nil
}

func validateDataType(k string) error {
	if strings.ContainsRune(k, '-') {
		return fmt.Errorf("%w: data type %q contains '-'", ErrInvalidKey, k)
	}
	return validateKey(k)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
