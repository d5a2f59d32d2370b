// Package hub fans service events out to Server-Sent Events clients.
//
// Every event is written as a named SSE frame:
//
//	id: 12
//	event: discovery-progress
//	data: {"type":"discovery-progress","payload":{...}}
//
// so browsers can subscribe to single event types with addEventListener.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wololo/internal/logger"
	"wololo/internal/service"
)

const (
	keepAliveInterval = 30 * time.Second
	queueSize         = 256
	clientBuffer      = 64
)

type client struct {
	id     string
	frames chan []byte
}

// Hub holds the connected SSE clients and the queue of pending events.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	closed  bool

	queue     chan service.Event
	seq       uint64
	keepAlive time.Duration
	log       zerolog.Logger
}

// New creates a hub. Events are only delivered while Run is active.
func New() *Hub {
	return &Hub{
		clients:   make(map[string]*client),
		queue:     make(chan service.Event, queueSize),
		keepAlive: keepAliveInterval,
		log:       logger.WithComponent("hub"),
	}
}

// Run encodes queued events and hands them to every client until ctx is
// cancelled. Connected clients are disconnected on return.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case ev := <-h.queue:
			frame, err := h.encode(ev)
			if err != nil {
				h.log.Error().Err(err).Str("event", string(ev.Type)).Msg("failed to encode event")
				continue
			}
			h.fanOut(frame)

		case <-ctx.Done():
			h.mu.Lock()
			h.closed = true
			for id, c := range h.clients {
				delete(h.clients, id)
				close(c.frames)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Relay queues every event received from events until ctx is cancelled or
// events is closed.
func (h *Hub) Relay(ctx context.Context, events <-chan service.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Broadcast(ev)
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast queues an event for delivery. The event is dropped when the
// queue is full.
func (h *Hub) Broadcast(ev service.Event) {
	select {
	case h.queue <- ev:
	default:
		h.log.Warn().Str("event", string(ev.Type)).Msg("event queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) encode(ev service.Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	h.seq++
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "id: %d\nevent: %s\ndata: %s\n\n", h.seq, ev.Type, data)
	return buf.Bytes(), nil
}

func (h *Hub) fanOut(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.frames <- frame:
		default:
			h.log.Warn().Str("client", c.id).Msg("SSE client is slow, skipping event")
		}
	}
}

func (h *Hub) attach() (*client, bool) {
	c := &client{id: uuid.NewString(), frames: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	h.clients[c.id] = c
	h.log.Debug().Str("client", c.id).Int("total", len(h.clients)).Msg("SSE client connected")
	return c, true
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.frames)
	h.log.Debug().Str("client", c.id).Int("total", len(h.clients)).Msg("SSE client disconnected")
}

// ServeHTTP streams events to one client until it disconnects or the hub
// stops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	c, ok := h.attach()
	if !ok {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.detach(c)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.frames:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
