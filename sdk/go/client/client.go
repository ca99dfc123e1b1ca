// Package client provides a Go client for the desksim IPC server
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

// Client represents a desksim IPC connection
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	// Pending requests by id
	pending   map[string]chan response
	pendingMu sync.Mutex
	nextID    uint64 // atomic

	// Event handlers
	eventHandlers []EventHandler
	handlerMutex  sync.RWMutex

	// Lifecycle
	connected int32 // atomic bool
	closed    int32 // atomic bool
	done      chan struct{}

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	// ServerURL is the websocket endpoint, e.g. ws://127.0.0.1:8765/ipc.
	ServerURL      string
	Token          string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxMessageSize int64
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:      "ws://127.0.0.1:8765/ipc",
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 2 * time.Minute,
		MaxMessageSize: 64 << 20,
	}
}

// Event is a server-pushed desk or library event
type Event struct {
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// EventHandler is called on the client's read goroutine.
type EventHandler func(event Event)

// RemoteError is a failed response. Data carries extra fields the server
// attached, such as ffmpegMissing.
type RemoteError struct {
	Channel string
	Message string
	Data    json.RawMessage
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Channel, e.Message)
}

type response struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// NewClient creates a new desksim client. A nil logger disables logging.
func NewClient(config Config, logger log.Log) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		pending: make(map[string]chan response),
		done:    make(chan struct{}),
		config:  config,
		logger:  logger.With(log.String("component", "client")),
	}
}

// Connect dials the server
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 1 {
		return ErrAlreadyConnected
	}

	target, err := url.Parse(c.config.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.config.Token != "" {
		q := target.Query()
		q.Set("token", c.config.Token)
		target.RawQuery = q.Encode()
	}

	c.logger.Info("Connecting to server", log.String("url", c.config.ServerURL))

	connectCtx := ctx
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(connectCtx, target.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connect: %w", err)
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.conn = conn
	atomic.StoreInt32(&c.connected, 1)

	c.workerGroup.Add(1)
	go func() {
		defer c.workerGroup.Done()
		c.readLoop()
	}()

	c.logger.Info("Connected to server", log.String("remote_addr", conn.RemoteAddr().String()))
	return nil
}

// Close disconnects and fails every pending call
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.done)
	var err error
	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	}
	c.workerGroup.Wait()
	return err
}

// OnEvent registers a handler for pushed events
func (c *Client) OnEvent(handler EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.eventHandlers = append(c.eventHandlers, handler)
}

// Call invokes channel with args and decodes the response data into out,
// which may be nil.
func (c *Client) Call(ctx context.Context, channel string, args, out any) error {
	if atomic.LoadInt32(&c.connected) == 0 {
		return ErrNotConnected
	}

	req := struct {
		ID      string `json:"id"`
		Channel string `json:"channel"`
		Args    any    `json:"args,omitempty"`
	}{
		ID:      strconv.FormatUint(atomic.AddUint64(&c.nextID, 1), 10),
		Channel: channel,
		Args:    args,
	}

	ch := make(chan response, 1)
	c.pendingMu.Lock()
	c.pending[req.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("send %s: %w", channel, err)
	}

	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if !resp.Success {
			return &RemoteError{Channel: channel, Message: resp.Error, Data: resp.Data}
		}
		if out == nil || len(resp.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidMessage, channel, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrMessageTimeout, channel, ctx.Err())
	case <-c.done:
		return ErrClientClosed
	}
}

func (c *Client) readLoop() {
	defer func() {
		atomic.StoreInt32(&c.connected, 0)
		c.pendingMu.Lock()
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if atomic.LoadInt32(&c.closed) == 0 {
				c.logger.Warn("Connection lost", log.Error(err))
			}
			return
		}

		var msg response
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Malformed message from server", log.Error(err))
			continue
		}

		if msg.ID == "" && msg.Channel == "event" {
			c.dispatchEvent(msg.Data)
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.pendingMu.Unlock()
		if !ok {
			c.logger.Debug("Response without caller", log.String("id", msg.ID), log.String("channel", msg.Channel))
			continue
		}
		ch <- msg
	}
}

func (c *Client) dispatchEvent(data json.RawMessage) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.logger.Warn("Malformed event", log.Error(err))
		return
	}
	c.handlerMutex.RLock()
	handlers := c.eventHandlers
	c.handlerMutex.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// Typed helpers for the desk channels.

// Object mirrors a desk object as the server reports it.
type Object struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Position  mgl64.Vec3 `json:"position"`
	Yaw       float64    `json:"yaw"`
	Scale     float64    `json:"scale"`
	Pages     int        `json:"pages,omitempty"`
	Thickness float64    `json:"thickness"`
	Drawable  bool       `json:"drawable"`
	StackedOn string     `json:"stackedOn,omitempty"`
}

type PlaceRequest struct {
	Type     string     `json:"type"`
	Position mgl64.Vec3 `json:"position"`
	Yaw      float64    `json:"yaw,omitempty"`
	Scale    float64    `json:"scale,omitempty"`
	Pages    int        `json:"pages,omitempty"`
	On       string     `json:"on,omitempty"`
}

type Pixel struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type Snapshot struct {
	Version    uint64 `json:"version"`
	Hash       uint64 `json:"hash"`
	Resolution int    `json:"resolution"`
	PNGDataURL string `json:"pngDataUrl"`
}

func (c *Client) PlaceObject(ctx context.Context, req PlaceRequest) (Object, error) {
	var out struct {
		Object Object `json:"object"`
	}
	err := c.Call(ctx, "place-object", req, &out)
	return out.Object, err
}

func (c *Client) ListObjects(ctx context.Context) ([]Object, error) {
	var out struct {
		Objects []Object `json:"objects"`
	}
	err := c.Call(ctx, "list-objects", nil, &out)
	return out.Objects, err
}

// BeginStroke starts a stroke on objectID. Empty color and negative radius
// use the server's default brush.
func (c *Client) BeginStroke(ctx context.Context, objectID, color string, radius int) (string, error) {
	args := map[string]any{"objectId": objectID}
	if color != "" {
		args["color"] = color
	}
	if radius >= 0 {
		args["radius"] = radius
	}
	var out struct {
		StrokeID string `json:"strokeId"`
	}
	err := c.Call(ctx, "begin-stroke", args, &out)
	return out.StrokeID, err
}

func (c *Client) StrokeSample(ctx context.Context, strokeID string, point mgl64.Vec3) (Pixel, error) {
	var out struct {
		Pixel Pixel `json:"pixel"`
	}
	err := c.Call(ctx, "stroke-sample", map[string]any{"strokeId": strokeID, "point": point}, &out)
	return out.Pixel, err
}

func (c *Client) EndStroke(ctx context.Context, strokeID string) (uint64, error) {
	var out struct {
		Version uint64 `json:"version"`
	}
	err := c.Call(ctx, "end-stroke", map[string]any{"strokeId": strokeID}, &out)
	return out.Version, err
}

func (c *Client) SurfaceSnapshot(ctx context.Context, objectID string) (Snapshot, error) {
	var out Snapshot
	err := c.Call(ctx, "surface-snapshot", map[string]any{"objectId": objectID}, &out)
	return out, err
}
