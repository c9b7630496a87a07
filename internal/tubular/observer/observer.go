// Package observer broadcasts completed-tick snapshots over a websocket
// to any number of connected live viewers. It never affects engine
// semantics: slow or absent viewers simply miss ticks.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Snapshot is the wire shape of one broadcast tick.
type Snapshot struct {
	Tick         uint64 `json:"tick"`
	LiveDroplets int    `json:"live_droplets"`
	Collisions   int    `json:"collisions"`
	BytesWritten int    `json:"bytes_written"`
}

// Hub fans out Snapshot broadcasts to connected websocket clients.
type Hub struct {
	log *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewHub returns an empty Hub. logger may be nil, in which case
// log.Default() is used.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[chan []byte]struct{}),
	}
}

// Broadcast pushes snap to every currently connected client. Clients that
// are not keeping up have the send dropped rather than block the engine.
func (h *Hub) Broadcast(snap Snapshot) {
	b, err := json.Marshal(snap)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- b:
		default:
		}
	}
}

// Handler upgrades loopback connections to websocket and streams
// broadcasts until the client disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out := make(chan []byte, 64)
		h.mu.Lock()
		h.clients[out] = struct{}{}
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.clients, out)
			h.mu.Unlock()
		}()

		for b := range out {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
