package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/desksim/internal/core/desk"
	"github.com/zeusync/desksim/internal/core/events/bus"
	"github.com/zeusync/desksim/internal/core/observability/log"
	"github.com/zeusync/desksim/internal/core/storage"
	"github.com/zeusync/desksim/internal/media"
)

type fakeTranscoder struct {
	available bool
	err       error
}

func (f fakeTranscoder) Available() bool { return f.available }

func (f fakeTranscoder) Transcode(_ context.Context, data []byte, _ string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("RIFF"), data...), nil
}

type testEnv struct {
	srv   *Server
	desk  *desk.Desk
	store *storage.FileStore
	url   string
}

func newTestServer(t *testing.T, mutate func(*Config), transcoder Transcoder) *testEnv {
	t.Helper()
	logger := log.NewNop()
	events := bus.New()

	store, err := storage.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)
	d := desk.New(desk.DefaultOptions(), events, store, logger)

	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	if mutate != nil {
		mutate(&cfg)
	}

	srv := NewServer(cfg, Services{
		Desk:       d,
		Store:      store,
		Transcoder: transcoder,
		Recorder:   media.NewRecorder("", nil, logger),
		Notes:      media.NewNotes(filepath.Join(t.TempDir(), "notes")),
	}, events, logger)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Close() })

	return &testEnv{srv: srv, desk: d, store: store, url: "ws://" + srv.Addr() + ipcPath}
}

// wireMessage is the union of Response and EventMessage as seen by a client.
type wireMessage struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testClient struct {
	t      *testing.T
	conn   *websocket.Conn
	seq    int
	events []wireMessage
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) read() wireMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wireMessage
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

// call sends one request and returns its response, stashing pushed events.
func (c *testClient) call(channel string, args any) wireMessage {
	c.t.Helper()
	c.seq++
	req := map[string]any{"id": fmt.Sprintf("req-%d", c.seq), "channel": channel}
	if args != nil {
		req["args"] = args
	}
	require.NoError(c.t, c.conn.WriteJSON(req))
	for {
		msg := c.read()
		if msg.Channel == EventChannel && msg.ID == "" {
			c.events = append(c.events, msg)
			continue
		}
		require.Equal(c.t, req["id"], msg.ID)
		return msg
	}
}

func (c *testClient) waitEvent(typ string) eventPayload {
	c.t.Helper()
	for {
		for i, msg := range c.events {
			var ev eventPayload
			require.NoError(c.t, json.Unmarshal(msg.Data, &ev))
			if ev.Type == typ {
				c.events = append(c.events[:i], c.events[i+1:]...)
				return ev
			}
		}
		msg := c.read()
		require.Equal(c.t, EventChannel, msg.Channel)
		c.events = append(c.events, msg)
	}
}

func decode[T any](t *testing.T, msg wireMessage) T {
	t.Helper()
	require.True(t, msg.Success, msg.Error)
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

func TestStateRoundTrip(t *testing.T) {
	env := newTestServer(t, nil, nil)
	c := dial(t, env.url)

	resp := c.call("load-state", nil)
	got := decode[struct {
		State json.RawMessage `json:"state"`
	}](t, resp)
	assert.Equal(t, "null", string(got.State))

	state := map[string]any{"objects": []any{map[string]any{"id": "a", "type": "book"}}, "camera": 1.5}
	resp = c.call("save-state", map[string]any{"state": state})
	require.True(t, resp.Success, resp.Error)

	got = decode[struct {
		State json.RawMessage `json:"state"`
	}](t, c.call("load-state", nil))
	want, _ := json.Marshal(state)
	assert.JSONEq(t, string(want), string(got.State))

	resp = c.call("save-state", map[string]any{})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, ErrInvalidArgs.Error())
}

func TestObjectDataRoundTrip(t *testing.T) {
	env := newTestServer(t, nil, nil)
	c := dial(t, env.url)

	url := "data:image/png;base64,AAAA"
	resp := c.call("save-object-data", map[string]any{"objectId": "obj-1", "dataType": "drawing", "dataUrl": url})
	require.True(t, resp.Success, resp.Error)

	type loaded struct {
		Data *string `json:"data"`
	}
	got := decode[loaded](t, c.call("load-object-data", map[string]any{"objectId": "obj-1", "dataType": "drawing"}))
	require.NotNil(t, got.Data)
	assert.Equal(t, url, *got.Data)

	resp = c.call("save-object-data", map[string]any{"objectId": "obj-1", "dataType": "drawing", "dataUrl": nil})
	require.True(t, resp.Success, resp.Error)
	got = decode[loaded](t, c.call("load-object-data", map[string]any{"objectId": "obj-1", "dataType": "drawing"}))
	assert.Nil(t, got.Data)

	resp = c.call("save-object-data", map[string]any{"objectId": "../x", "dataType": "drawing", "dataUrl": url})
	assert.False(t, resp.Success)
}

func TestDrawingFlow(t *testing.T) {
	env := newTestServer(t, nil, nil)
	c := dial(t, env.url)

	placed := decode[struct {
		Object desk.Object `json:"object"`
	}](t, c.call("place-object", map[string]any{"type": "paper", "position": []float64{0, 0.75, 0}}))
	id := placed.Object.ID
	require.NotEmpty(t, id)
	assert.True(t, placed.Object.Drawable)

	begin := decode[struct {
		StrokeID string `json:"strokeId"`
	}](t, c.call("begin-stroke", map[string]any{"objectId": id, "color": "#ff0000", "radius": 2}))
	require.NotEmpty(t, begin.StrokeID)

	resp := c.call("begin-stroke", map[string]any{"objectId": id})
	assert.False(t, resp.Success, "one stroke per surface")

	type sample struct {
		Pixel struct{ Col, Row int } `json:"pixel"`
	}
	s := decode[sample](t, c.call("stroke-sample", map[string]any{"strokeId": begin.StrokeID, "point": []float64{0, 0.75, 0}}))
	assert.Equal(t, 256, s.Pixel.Col)
	assert.Equal(t, 256, s.Pixel.Row)
	decode[sample](t, c.call("stroke-sample", map[string]any{"strokeId": begin.StrokeID, "point": []float64{0.05, 0.75, 0.05}}))

	ended := decode[struct {
		Version uint64 `json:"version"`
		Hash    uint64 `json:"hash"`
	}](t, c.call("end-stroke", map[string]any{"strokeId": begin.StrokeID}))
	assert.Greater(t, ended.Version, uint64(1))

	ev := c.waitEvent(desk.EventSurfaceUpdated)
	assert.Equal(t, "desk", ev.Source)

	snap := decode[struct {
		Version    uint64 `json:"version"`
		Hash       uint64 `json:"hash"`
		Resolution int    `json:"resolution"`
		PNGDataURL string `json:"pngDataUrl"`
	}](t, c.call("surface-snapshot", map[string]any{"objectId": id}))
	assert.Equal(t, ended.Version, snap.Version)
	assert.Equal(t, ended.Hash, snap.Hash)
	assert.Equal(t, 512, snap.Resolution)
	assert.True(t, strings.HasPrefix(snap.PNGDataURL, "data:image/png;base64,"))

	stored, err := env.store.LoadObjectData(context.Background(), id, desk.DrawingDataType)
	require.NoError(t, err)
	assert.Equal(t, snap.PNGDataURL, string(stored))

	mapped := decode[struct {
		ObjectID string `json:"objectId"`
	}](t, c.call("map-point", map[string]any{"point": []float64{0.01, 0.75, 0.01}}))
	assert.Equal(t, id, mapped.ObjectID)

	resp = c.call("map-point", map[string]any{"point": []float64{5, 0.75, 5}})
	assert.False(t, resp.Success)

	cleared := decode[struct {
		Version uint64 `json:"version"`
	}](t, c.call("clear-surface", map[string]any{"objectId": id}))
	assert.Greater(t, cleared.Version, snap.Version)
}

func TestObjectLifecycle(t *testing.T) {
	env := newTestServer(t, nil, nil)
	c := dial(t, env.url)

	book := decode[struct {
		Object desk.Object `json:"object"`
	}](t, c.call("place-object", map[string]any{"type": "book", "position": []float64{0.5, 0.75, 0}, "pages": 100}))
	paper := decode[struct {
		Object desk.Object `json:"object"`
	}](t, c.call("place-object", map[string]any{"type": "paper", "on": book.Object.ID}))
	assert.Equal(t, book.Object.ID, paper.Object.StackedOn)
	assert.InDelta(t, book.Object.Top(), paper.Object.Position.Y(), 1e-9)

	moved := decode[struct {
		Object desk.Object `json:"object"`
	}](t, c.call("move-object", map[string]any{"objectId": paper.Object.ID, "position": []float64{-0.5, 0.75, 0}, "yaw": 1}))
	assert.Empty(t, moved.Object.StackedOn)
	assert.Equal(t, mgl64.Vec3{-0.5, 0.75, 0}, moved.Object.Position)

	list := decode[struct {
		Objects []desk.Object `json:"objects"`
	}](t, c.call("list-objects", nil))
	require.Len(t, list.Objects, 2)
	assert.Equal(t, book.Object.ID, list.Objects[0].ID)

	resp := c.call("remove-object", map[string]any{"objectId": book.Object.ID})
	require.True(t, resp.Success, resp.Error)
	resp = c.call("remove-object", map[string]any{"objectId": book.Object.ID})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, desk.ErrObjectNotFound.Error())

	imported := decode[struct {
		Objects []desk.Object `json:"objects"`
	}](t, c.call("import-objects", map[string]any{"objects": []desk.Object{
		{ID: "restored-1", Type: "notebook", Position: mgl64.Vec3{1, 0.75, 1}, Scale: 1},
		{ID: paper.Object.ID, Type: "paper"},
	}}))
	require.Len(t, imported.Objects, 1)
	assert.Equal(t, "restored-1", imported.Objects[0].ID)
}

func TestUnknownChannelAndMalformedRequests(t *testing.T) {
	env := newTestServer(t, nil, nil)
	c := dial(t, env.url)

	resp := c.call("launch-rockets", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "launch-rockets", resp.Channel)
	assert.Contains(t, resp.Error, ErrUnknownChannel.Error())

	resp = c.call("place-object", "not an object")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, ErrInvalidArgs.Error())

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	msg := c.read()
	assert.False(t, msg.Success)
	assert.Contains(t, msg.Error, ErrInvalidMessage.Error())

	// the connection survives bad input
	resp = c.call("list-objects", nil)
	assert.True(t, resp.Success)
}

func TestEventsReachOtherClients(t *testing.T) {
	env := newTestServer(t, nil, nil)
	a := dial(t, env.url)
	b := dial(t, env.url)
	// a round trip guarantees b is registered
	require.True(t, b.call("list-objects", nil).Success)

	placed := decode[struct {
		Object desk.Object `json:"object"`
	}](t, a.call("place-object", map[string]any{"type": "lamp", "position": []float64{1, 0.75, 1}}))

	ev := b.waitEvent(desk.EventObjectPlaced)
	data, err := json.Marshal(ev.Data)
	require.NoError(t, err)
	var change desk.Change
	require.NoError(t, json.Unmarshal(data, &change))
	assert.Equal(t, placed.Object.ID, change.ObjectID)
	assert.Equal(t, desk.EventObjectPlaced, change.Type)

	assert.Eventually(t, func() bool { return env.srv.GetStats().EventsSent >= 2 }, time.Second, 10*time.Millisecond)
}

func TestTranscodeAudio(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("ID3"))

	t.Run("ffmpeg missing", func(t *testing.T) {
		env := newTestServer(t, nil, fakeTranscoder{available: false})
		resp := dial(t, env.url).call("transcode-audio", map[string]any{"audioDataBase64": payload, "fileName": "a.mp3"})
		assert.False(t, resp.Success)
		assert.Equal(t, ErrFFmpegMissing.Error(), resp.Error)
		assert.JSONEq(t, `{"ffmpegMissing":true}`, string(resp.Data))
	})

	t.Run("converted", func(t *testing.T) {
		env := newTestServer(t, nil, fakeTranscoder{available: true})
		got := decode[struct {
			WAV      string `json:"wavDataBase64"`
			Original string `json:"originalFileName"`
		}](t, dial(t, env.url).call("transcode-audio", map[string]any{"audioDataBase64": payload, "fileName": "a.mp3"}))
		wav, err := base64.StdEncoding.DecodeString(got.WAV)
		require.NoError(t, err)
		assert.Equal(t, "RIFFID3", string(wav))
		assert.Equal(t, "a.mp3", got.Original)
	})

	t.Run("failure", func(t *testing.T) {
		env := newTestServer(t, nil, fakeTranscoder{available: true, err: errors.New("ffmpeg failed with code 1: bad input")})
		resp := dial(t, env.url).call("transcode-audio", map[string]any{"audioDataBase64": payload, "fileName": "a.mp3"})
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "bad input")
	})
}

func TestMediaChannels(t *testing.T) {
	env := newTestServer(t, nil, nil)
	c := dial(t, env.url)

	music := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(music, "album"), 0o755))
	for _, name := range []string{"b.mp3", "a.wav", "album/c.flac", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(music, filepath.FromSlash(name)), []byte("x"), 0o644))
	}

	scanned := decode[struct {
		FolderPath string            `json:"folderPath"`
		AudioFiles []media.AudioFile `json:"audioFiles"`
	}](t, c.call("scan-music-folder", map[string]any{"folderPath": music}))
	assert.Equal(t, music, scanned.FolderPath)
	require.Len(t, scanned.AudioFiles, 3)
	assert.Equal(t, "a", scanned.AudioFiles[0].Name)
	assert.Equal(t, "album/c", scanned.AudioFiles[1].Name)
	assert.Equal(t, "b", scanned.AudioFiles[2].Name)

	flat := decode[struct {
		AudioFiles []media.AudioFile `json:"audioFiles"`
	}](t, c.call("refresh-music-folder", map[string]any{"folderPath": music, "recursive": false}))
	assert.Len(t, flat.AudioFiles, 2)

	audio := decode[struct {
		DataURL  string `json:"dataUrl"`
		FileName string `json:"fileName"`
	}](t, c.call("read-audio-file", map[string]any{"filePath": filepath.Join(music, "b.mp3")}))
	assert.Equal(t, "data:audio/mpeg;base64,eA==", audio.DataURL)
	assert.Equal(t, "b.mp3", audio.FileName)

	recordings := t.TempDir()
	opened := decode[struct {
		Next int `json:"nextRecordingNumber"`
	}](t, c.call("open-recordings-folder", map[string]any{"folderPath": recordings}))
	assert.Equal(t, 1, opened.Next)

	saved := decode[media.SavedRecording](t, c.call("save-recording", map[string]any{
		"folderPath":      recordings,
		"recordingNumber": opened.Next,
		"audioDataBase64": base64.StdEncoding.EncodeToString([]byte("RIFF")),
		"format":          "mp3",
	}))
	assert.Equal(t, media.FormatWAV, saved.ActualFormat)
	assert.Equal(t, media.MP3FallbackMessage, saved.Message)

	next := decode[struct {
		Next int `json:"nextNumber"`
	}](t, c.call("get-next-recording-number", map[string]any{"folderPath": recordings}))
	assert.Equal(t, 2, next.Next)

	notes := decode[struct {
		FolderPath string `json:"folderPath"`
	}](t, c.call("get-default-notes-folder", nil))
	assert.DirExists(t, notes.FolderPath)

	written := decode[struct {
		FilePath string `json:"filePath"`
	}](t, c.call("save-markdown-file", map[string]any{"folderPath": notes.FolderPath, "fileName": "todo", "content": "# todo"}))
	assert.Equal(t, filepath.Join(notes.FolderPath, "todo.md"), written.FilePath)
}

func TestTokenAuth(t *testing.T) {
	env := newTestServer(t, func(c *Config) { c.AuthToken = "s3cret" }, nil)

	_, resp, err := websocket.DefaultDialer.Dial(env.url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(env.url+"?token=wrong", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c := dial(t, env.url+"?token=s3cret")
	assert.True(t, c.call("list-objects", nil).Success)

	header := http.Header{"Authorization": []string{"Bearer s3cret"}}
	conn, _, err := websocket.DefaultDialer.Dial(env.url, header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestMaxClients(t *testing.T) {
	env := newTestServer(t, func(c *Config) { c.MaxClients = 1 }, nil)
	c := dial(t, env.url)
	require.True(t, c.call("list-objects", nil).Success)

	_, resp, err := websocket.DefaultDialer.Dial(env.url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMaxClientsUnderConcurrentDials(t *testing.T) {
	env := newTestServer(t, func(c *Config) { c.MaxClients = 2 }, nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*websocket.Conn
		rejected int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, resp, err := websocket.DefaultDialer.Dial(env.url, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if assert.NotNil(t, resp) {
					assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
				}
				rejected++
				return
			}
			accepted = append(accepted, conn)
		}()
	}
	wg.Wait()
	t.Cleanup(func() {
		for _, conn := range accepted {
			_ = conn.Close()
		}
	})

	assert.Len(t, accepted, 2)
	assert.Equal(t, 6, rejected)
	assert.LessOrEqual(t, env.srv.GetStats().ClientCount, int64(2))
}

func TestFailedUpgradeReleasesSlot(t *testing.T) {
	env := newTestServer(t, func(c *Config) { c.MaxClients = 1 }, nil)

	resp, err := http.Get("http://" + env.srv.Addr() + ipcPath)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.EqualValues(t, 0, env.srv.GetStats().ClientCount)

	c := dial(t, env.url)
	assert.True(t, c.call("list-objects", nil).Success)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t, nil, nil)

	resp, err := http.Get("http://" + env.srv.Addr() + healthPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.True(t, stats.Running)
	assert.Equal(t, len(env.srv.Registry().Channels()), stats.Channels)
	assert.Equal(t, 24, stats.Channels)
}

func TestHealthChecksReapIdleClients(t *testing.T) {
	env := newTestServer(t, func(c *Config) {
		c.HealthCheckInterval = 20 * time.Millisecond
		c.ClientTimeout = 50 * time.Millisecond
	}, nil)
	c := dial(t, env.url)
	require.True(t, c.call("list-objects", nil).Success)
	require.EqualValues(t, 1, env.srv.GetStats().ClientCount)

	// the test client never answers pings because nothing reads
	assert.Eventually(t, func() bool { return env.srv.GetStats().ClientCount == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestServerLifecycle(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, Services{}, nil, log.NewNop())

	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerAlreadyRunning)
	assert.True(t, srv.GetStats().Running)

	require.NoError(t, srv.Stop(context.Background()))
	assert.ErrorIs(t, srv.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerClosed)

	bad := NewServer(Config{}, Services{}, nil, log.NewNop())
	assert.ErrorIs(t, bad.Start(context.Background()), ErrInvalidConfig)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, Services{}, bus.New(), log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.GetStats().Running }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, srv.GetStats().Running)
}

func TestDispatchRecoversPanics(t *testing.T) {
	r := NewRegistry()
	r.Handle("boom", func(context.Context, json.RawMessage) (any, error) { panic("kaboom") })
	r.Handle("fail", func(context.Context, json.RawMessage) (any, error) {
		return nil, &HandlerError{Err: errors.New("partial"), Data: 7}
	})

	resp := r.Dispatch(context.Background(), Request{ID: "1", Channel: "boom"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "kaboom")

	resp = r.Dispatch(context.Background(), Request{ID: "2", Channel: "fail"})
	assert.Equal(t, "partial", resp.Error)
	assert.Equal(t, 7, resp.Data)
	assert.Equal(t, []string{"boom", "fail"}, r.Channels())
}

func TestLocalOrigin(t *testing.T) {
	cases := map[string]bool{
		"":                       true,
		"null":                   true,
		"file://":                true,
		"http://localhost:5173":  true,
		"http://127.0.0.1:8765":  true,
		"http://[::1]:3000":      true,
		"https://evil.example":   false,
		"http://192.168.1.10:80": false,
	}
	for origin, want := range cases {
		r, err := http.NewRequest(http.MethodGet, "http://127.0.0.1/ipc", nil)
		require.NoError(t, err)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		assert.Equal(t, want, localOrigin(r), origin)
	}
}
