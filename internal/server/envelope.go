package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// EventChannel is the channel name of server-pushed events.
const EventChannel = "event"

// Request is one call from the renderer.
type Request struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response answers the Request with the same ID.
type Response struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventMessage is pushed to every client without a request.
type EventMessage struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// HandlerFunc serves one channel. The returned value becomes Response.Data.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Registry maps channel names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Handle registers h for channel, replacing any previous handler.
func (r *Registry) Handle(channel string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[channel] = h
}

func (r *Registry) Lookup(channel string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[channel]
	return h, ok
}

// Channels returns the registered channel names, sorted.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler for req and builds its response. Handler panics
// are turned into failed responses.
func (r *Registry) Dispatch(ctx context.Context, req Request) (resp Response) {
	resp = Response{ID: req.ID, Channel: req.Channel}

	h, ok := r.Lookup(req.Channel)
	if !ok {
		resp.Error = fmt.Sprintf("%s: %q", ErrUnknownChannel, req.Channel)
		return resp
	}

	defer func() {
		if p := recover(); p != nil {
			resp.Success = false
			resp.Data = nil
			resp.Error = fmt.Sprintf("internal error: %v", p)
		}
	}()

	data, err := h(ctx, req.Args)
	if err != nil {
		resp.Error = err.Error()
		var he *HandlerError
		if errors.As(err, &he) {
			resp.Data = he.Data
		}
		return resp
	}
	resp.Success = true
	resp.Data = data
	return resp
}

// decodeArgs unmarshals args into v. Missing args leave v at its zero value.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

// typed adapts a handler taking decoded arguments.
func typed[A any](fn func(ctx context.Context, args A) (any, error)) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}
