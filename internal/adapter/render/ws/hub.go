package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"sarsim/internal/domain/rescue"
)

// Frame is what observers receive for every published snapshot.
type Frame struct {
	EpisodeID string          `json:"episode_id"`
	Snapshot  rescue.Snapshot `json:"snapshot"`
}

type client struct {
	episodeID string
	out       chan []byte
}

// Hub fans render snapshots out to websocket observers. Publish never blocks:
// a client whose buffer is full misses frames.
type Hub struct {
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  map[string][]byte

	dropped atomic.Uint64
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		buffer:  buffer,
		clients: map[*client]struct{}{},
		latest:  map[string][]byte{},
	}
}

func (h *Hub) Publish(episodeID string, snap rescue.Snapshot) {
	b, err := json.Marshal(Frame{EpisodeID: episodeID, Snapshot: snap})
	if err != nil {
		log.Printf("render frame %s: %v", episodeID, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[episodeID] = b
	for c := range h.clients {
		if c.episodeID != "" && c.episodeID != episodeID {
			continue
		}
		select {
		case c.out <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) join(episodeID string) *client {
	c := &client{episodeID: episodeID, out: make(chan []byte, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if episodeID != "" {
		if b, ok := h.latest[episodeID]; ok {
			c.out <- b
		}
	}
	return c
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Handler serves observers. ?episode=<id> limits the stream to one episode
// and starts it with that episode's latest snapshot.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := h.join(r.URL.Query().Get("episode"))
		defer h.leave(c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Observers only listen; reading detects the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}
