package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     localOrigin,
}

// localOrigin accepts connections from the desktop shell and from pages
// served on the loopback interface.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "file" {
		return true
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// clientSession represents a connected renderer
type clientSession struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	lastSeen    int64 // atomic unix nanos
	logger      log.Log

	done      chan struct{}
	closeOnce sync.Once
}

func (c *clientSession) touch() {
	atomic.StoreInt64(&c.lastSeen, time.Now().UnixNano())
}

func (c *clientSession) LastSeen() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastSeen))
}

func (c *clientSession) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue queues a response, waiting for room unless the session is gone.
func (c *clientSession) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	}
}

// trySend queues without waiting.
func (c *clientSession) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// handleIPC upgrades the request and serves the session until it ends.
func (s *Server) handleIPC(w http.ResponseWriter, r *http.Request) {
	if !s.reserveClient() {
		s.logger.Warn("Maximum clients reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt64(&s.clientCount, -1)
		s.logger.Warn("Websocket upgrade failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}

	session := &clientSession{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, s.config.SendBuffer),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
	session.logger = s.logger.With(log.String("client_id", session.id))
	session.touch()

	s.clients.Store(session.id, session)

	session.logger.Info("Client connected",
		log.String("remote_addr", r.RemoteAddr),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	defer func() {
		session.close()
		s.clients.Delete(session.id)
		atomic.AddInt64(&s.clientCount, -1)

		session.logger.Info("Client disconnected",
			log.Duration("connected_for", time.Since(session.connectedAt)),
			log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
	}()

	go s.writeLoop(session)
	s.readLoop(session)
}

// reserveClient takes a client slot before the upgrade so concurrent
// handshakes cannot exceed MaxClients.
func (s *Server) reserveClient() bool {
	for {
		n := atomic.LoadInt64(&s.clientCount)
		if n >= int64(s.config.MaxClients) {
			return false
		}
		if atomic.CompareAndSwapInt64(&s.clientCount, n, n+1) {
			return true
		}
	}
}

// readLoop dispatches requests in arrival order, so stroke samples from one
// client are applied in the order they were sent.
func (s *Server) readLoop(session *clientSession) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-session.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	conn := session.conn
	conn.SetReadLimit(s.config.MaxMessageSize)
	conn.SetPongHandler(func(string) error {
		session.touch()
		return nil
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				session.logger.Warn("Failed to read message", log.Error(err))
			}
			return
		}
		session.touch()
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		resp := s.handleMessage(ctx, session, data)
		out, err := json.Marshal(resp)
		if err != nil {
			session.logger.Error("Failed to encode response",
				log.String("channel", resp.Channel),
				log.Error(err))
			out, _ = json.Marshal(Response{
				ID:      resp.ID,
				Channel: resp.Channel,
				Error:   fmt.Sprintf("encode response: %v", err),
			})
		}
		if !session.enqueue(out) {
			return
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, session *clientSession, data []byte) Response {
	atomic.AddUint64(&s.requests, 1)

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		session.logger.Warn("Malformed request", log.Error(err))
		return Response{Error: fmt.Sprintf("%s: %v", ErrInvalidMessage, err)}
	}
	if req.Channel == "" {
		return Response{ID: req.ID, Error: fmt.Sprintf("%s: missing channel", ErrInvalidMessage)}
	}

	start := time.Now()
	resp := s.registry.Dispatch(ctx, req)
	if !resp.Success {
		session.logger.Debug("Request failed",
			log.String("channel", req.Channel),
			log.String("error", resp.Error))
	} else {
		session.logger.Debug("Request handled",
			log.String("channel", req.Channel),
			log.Duration("took", time.Since(start)))
	}
	return resp
}

func (s *Server) writeLoop(session *clientSession) {
	for {
		select {
		case msg := <-session.send:
			_ = session.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
			if err := session.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				session.logger.Debug("Failed to write message", log.Error(err))
				session.close()
				return
			}
		case <-session.done:
			return
		}
	}
}
