package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/desksim/internal/config"
	"github.com/zeusync/desksim/internal/core/canvas"
	"github.com/zeusync/desksim/internal/core/desk"
	"github.com/zeusync/desksim/internal/core/storage"
	"github.com/zeusync/desksim/internal/media"
)

// Transcoder converts uploaded audio to WAV.
type Transcoder interface {
	Available() bool
	Transcode(ctx context.Context, data []byte, fileName string) ([]byte, error)
}

// Services are the components the IPC channels call into.
type Services struct {
	Desk       *desk.Desk
	Store      storage.Storage
	Transcoder Transcoder
	Recorder   *media.Recorder
	Notes      *media.Notes
}

// RegisterChannels installs every IPC channel backed by svc.
func RegisterChannels(r *Registry, svc Services) {
	h := &handlers{svc: svc}

	r.Handle("save-state", typed(h.saveState))
	r.Handle("load-state", typed(h.loadState))
	r.Handle("save-object-data", typed(h.saveObjectData))
	r.Handle("load-object-data", typed(h.loadObjectData))

	r.Handle("transcode-audio", typed(h.transcodeAudio))
	r.Handle("scan-music-folder", typed(h.scanMusicFolder))
	r.Handle("refresh-music-folder", typed(h.refreshMusicFolder))
	r.Handle("read-audio-file", typed(h.readAudioFile))

	r.Handle("open-recordings-folder", typed(h.openRecordingsFolder))
	r.Handle("get-next-recording-number", typed(h.nextRecordingNumber))
	r.Handle("save-recording", typed(h.saveRecording))

	r.Handle("get-default-notes-folder", typed(h.defaultNotesFolder))
	r.Handle("save-markdown-file", typed(h.saveMarkdownFile))

	r.Handle("place-object", typed(h.placeObject))
	r.Handle("move-object", typed(h.moveObject))
	r.Handle("remove-object", typed(h.removeObject))
	r.Handle("list-objects", typed(h.listObjects))
	r.Handle("import-objects", typed(h.importObjects))

	r.Handle("begin-stroke", typed(h.beginStroke))
	r.Handle("stroke-sample", typed(h.strokeSample))
	r.Handle("end-stroke", typed(h.endStroke))
	r.Handle("surface-snapshot", typed(h.surfaceSnapshot))
	r.Handle("clear-surface", typed(h.clearSurface))
	r.Handle("map-point", typed(h.mapPoint))
}

type handlers struct {
	svc Services
}

type noArgs struct{}

// state

type saveStateArgs struct {
	State json.RawMessage `json:"state"`
}

func (h *handlers) saveState(ctx context.Context, a saveStateArgs) (any, error) {
	if len(a.State) == 0 {
		return nil, fmt.Errorf("%w: state is required", ErrInvalidArgs)
	}
	return nil, h.svc.Store.SaveState(ctx, a.State)
}

func (h *handlers) loadState(ctx context.Context, _ noArgs) (any, error) {
	state, err := h.svc.Store.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"state": state}, nil
}

type objectDataArgs struct {
	ObjectID string  `json:"objectId"`
	DataType string  `json:"dataType"`
	DataURL  *string `json:"dataUrl"`
}

func (h *handlers) saveObjectData(ctx context.Context, a objectDataArgs) (any, error) {
	var data []byte
	if a.DataURL != nil {
		data = []byte(*a.DataURL)
	}
	return nil, h.svc.Store.SaveObjectData(ctx, a.ObjectID, a.DataType, data)
}

func (h *handlers) loadObjectData(ctx context.Context, a objectDataArgs) (any, error) {
	data, err := h.svc.Store.LoadObjectData(ctx, a.ObjectID, a.DataType)
	if err != nil {
		return nil, err
	}
	var out *string
	if data != nil {
		s := string(data)
		out = &s
	}
	return map[string]any{"data": out}, nil
}

// audio

type transcodeArgs struct {
	AudioDataBase64 string `json:"audioDataBase64"`
	FileName        string `json:"fileName"`
}

func (h *handlers) transcodeAudio(ctx context.Context, a transcodeArgs) (any, error) {
	if h.svc.Transcoder == nil || !h.svc.Transcoder.Available() {
		return nil, &HandlerError{Err: ErrFFmpegMissing, Data: map[string]any{"ffmpegMissing": true}}
	}
	raw, err := base64.StdEncoding.DecodeString(a.AudioDataBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: audio data is not base64", ErrInvalidArgs)
	}
	wav, err := h.svc.Transcoder.Transcode(ctx, raw, a.FileName)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"wavDataBase64":    base64.StdEncoding.EncodeToString(wav),
		"originalFileName": a.FileName,
	}, nil
}

type folderArgs struct {
	FolderPath string `json:"folderPath"`
	Recursive  *bool  `json:"recursive"`
}

func (a folderArgs) recursive() bool {
	return a.Recursive == nil || *a.Recursive
}

func (h *handlers) scanMusicFolder(_ context.Context, a folderArgs) (any, error) {
	files, err := media.Scan(a.FolderPath, a.recursive())
	if err != nil {
		return nil, err
	}
	return map[string]any{"folderPath": a.FolderPath, "audioFiles": files}, nil
}

func (h *handlers) refreshMusicFolder(_ context.Context, a folderArgs) (any, error) {
	files, err := media.Scan(a.FolderPath, a.recursive())
	if err != nil {
		return nil, err
	}
	return map[string]any{"audioFiles": files}, nil
}

type filePathArgs struct {
	FilePath string `json:"filePath"`
}

func (h *handlers) readAudioFile(_ context.Context, a filePathArgs) (any, error) {
	url, err := media.ReadDataURL(a.FilePath)
	if err != nil {
		return nil, err
	}
	return map[string]any{"dataUrl": url, "fileName": filepath.Base(a.FilePath)}, nil
}

// recordings

func (h *handlers) openRecordingsFolder(_ context.Context, a folderArgs) (any, error) {
	n, err := h.svc.Recorder.NextNumber(a.FolderPath)
	if err != nil {
		return nil, err
	}
	return map[string]any{"folderPath": a.FolderPath, "nextRecordingNumber": n}, nil
}

func (h *handlers) nextRecordingNumber(_ context.Context, a folderArgs) (any, error) {
	n, err := h.svc.Recorder.NextNumber(a.FolderPath)
	if err != nil {
		return nil, err
	}
	return map[string]any{"nextNumber": n}, nil
}

type saveRecordingArgs struct {
	FolderPath      string       `json:"folderPath"`
	RecordingNumber int          `json:"recordingNumber"`
	AudioDataBase64 string       `json:"audioDataBase64"`
	Format          media.Format `json:"format"`
}

func (h *handlers) saveRecording(ctx context.Context, a saveRecordingArgs) (any, error) {
	wav, err := base64.StdEncoding.DecodeString(a.AudioDataBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: audio data is not base64", ErrInvalidArgs)
	}
	if a.Format == "" {
		a.Format = media.FormatWAV
	}
	return h.svc.Recorder.Save(ctx, a.FolderPath, a.RecordingNumber, wav, a.Format)
}

// notes

func (h *handlers) defaultNotesFolder(_ context.Context, _ noArgs) (any, error) {
	dir, err := h.svc.Notes.DefaultFolder()
	if err != nil {
		return nil, err
	}
	return map[string]any{"folderPath": dir}, nil
}

type markdownArgs struct {
	FolderPath string `json:"folderPath"`
	FileName   string `json:"fileName"`
	Content    string `json:"content"`
}

func (h *handlers) saveMarkdownFile(_ context.Context, a markdownArgs) (any, error) {
	path, err := h.svc.Notes.Save(a.FolderPath, a.FileName, a.Content)
	if err != nil {
		return nil, err
	}
	return map[string]any{"filePath": path}, nil
}

// desk objects

func (h *handlers) placeObject(_ context.Context, a desk.PlaceRequest) (any, error) {
	obj, err := h.svc.Desk.Place(a)
	if err != nil {
		return nil, err
	}
	return map[string]any{"object": obj}, nil
}

type moveArgs struct {
	ObjectID string     `json:"objectId"`
	Position mgl64.Vec3 `json:"position"`
	Yaw      float64    `json:"yaw"`
}

func (h *handlers) moveObject(_ context.Context, a moveArgs) (any, error) {
	obj, err := h.svc.Desk.Move(a.ObjectID, a.Position, a.Yaw)
	if err != nil {
		return nil, err
	}
	return map[string]any{"object": obj}, nil
}

type objectArgs struct {
	ObjectID string `json:"objectId"`
}

func (h *handlers) removeObject(ctx context.Context, a objectArgs) (any, error) {
	return nil, h.svc.Desk.Remove(ctx, a.ObjectID)
}

func (h *handlers) listObjects(_ context.Context, _ noArgs) (any, error) {
	return map[string]any{"objects": h.svc.Desk.List()}, nil
}

type importArgs struct {
	Objects []desk.Object `json:"objects"`
}

func (h *handlers) importObjects(ctx context.Context, a importArgs) (any, error) {
	added, err := h.svc.Desk.Import(ctx, a.Objects)
	if err != nil {
		return nil, err
	}
	if added == nil {
		added = []desk.Object{}
	}
	return map[string]any{"objects": added}, nil
}

// drawing

type beginStrokeArgs struct {
	ObjectID string `json:"objectId"`
	Color    string `json:"color"`
	Radius   *int   `json:"radius"`
	Erase    bool   `json:"erase"`
}

func (h *handlers) beginStroke(_ context.Context, a beginStrokeArgs) (any, error) {
	brush := h.svc.Desk.Options().Brush
	if a.Color != "" {
		c, err := config.ParseColor(a.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
		brush.Color = c
	}
	if a.Radius != nil {
		if *a.Radius < 0 {
			return nil, fmt.Errorf("%w: radius must not be negative", ErrInvalidArgs)
		}
		brush.Radius = *a.Radius
	}
	brush.Erase = a.Erase
	id, err := h.svc.Desk.BeginStroke(a.ObjectID, brush)
	if err != nil {
		return nil, err
	}
	return map[string]any{"strokeId": id}, nil
}

type strokeSampleArgs struct {
	StrokeID string     `json:"strokeId"`
	Point    mgl64.Vec3 `json:"point"`
}

func (h *handlers) strokeSample(_ context.Context, a strokeSampleArgs) (any, error) {
	px, err := h.svc.Desk.StrokeSample(a.StrokeID, a.Point)
	if err != nil {
		return nil, err
	}
	return map[string]any{"pixel": px}, nil
}

type strokeArgs struct {
	StrokeID string `json:"strokeId"`
}

func (h *handlers) endStroke(ctx context.Context, a strokeArgs) (any, error) {
	snap, err := h.svc.Desk.EndStroke(ctx, a.StrokeID)
	if snap == nil {
		return nil, err
	}
	data := map[string]any{"version": snap.Version, "hash": snap.Hash}
	if err != nil {
		return nil, &HandlerError{Err: err, Data: data}
	}
	return data, nil
}

func (h *handlers) surfaceSnapshot(_ context.Context, a objectArgs) (any, error) {
	snap, err := h.svc.Desk.Snapshot(a.ObjectID)
	if err != nil {
		return nil, err
	}
	return snapshotData(snap)
}

func (h *handlers) clearSurface(ctx context.Context, a objectArgs) (any, error) {
	snap, err := h.svc.Desk.ClearSurface(ctx, a.ObjectID)
	if snap == nil {
		return nil, err
	}
	data := map[string]any{"version": snap.Version, "hash": snap.Hash}
	if err != nil {
		return nil, &HandlerError{Err: err, Data: data}
	}
	return data, nil
}

func snapshotData(snap *canvas.Snapshot) (any, error) {
	url, err := snap.DataURL()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"version":    snap.Version,
		"hash":       snap.Hash,
		"resolution": snap.Size,
		"pngDataUrl": url,
	}, nil
}

type mapPointArgs struct {
	ObjectID string     `json:"objectId"`
	Point    mgl64.Vec3 `json:"point"`
}

func (h *handlers) mapPoint(_ context.Context, a mapPointArgs) (any, error) {
	id := a.ObjectID
	if id == "" {
		var ok bool
		if id, ok = h.svc.Desk.SurfaceAt(a.Point); !ok {
			return nil, errors.New("no drawable surface under point")
		}
	}
	px, err := h.svc.Desk.MapPoint(id, a.Point)
	if err != nil {
		return nil, err
	}
	return map[string]any{"objectId": id, "pixel": px}, nil
}
