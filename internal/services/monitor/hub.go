// Package monitor streams live batch progress to external viewers over
// websocket and a small HTTP surface. Observers run on worker goroutines,
// so the hub never blocks them: messages to slow clients are dropped.
package monitor

import (
	"encoding/json"
	"sync"

	"wildlifedetector/internal/logger"
	"wildlifedetector/internal/models"

	"github.com/gorilla/websocket"
)

// broadcastBuffer bounds the queue between workers and the hub loop.
const broadcastBuffer = 64

type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	log        *logger.Logger

	latestMu sync.RWMutex
	latest   models.BatchProgress
	hasData  bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		log:        log,
	}
}

// Run owns the client set. Intended to run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Info("Monitor client connected. Total: %d", h.ClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.log.Info("Monitor client disconnected. Total: %d", h.ClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.log.Error("Error sending to monitor client: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastProgress publishes a progress snapshot to all connected clients
// and records it for the /progress endpoint. Never blocks the caller; the
// snapshot is dropped for streaming when the hub is backed up.
func (h *Hub) BroadcastProgress(p models.BatchProgress) {
	h.latestMu.Lock()
	h.latest = p
	h.hasData = true
	h.latestMu.Unlock()

	message, err := json.Marshal(p)
	if err != nil {
		h.log.Error("Failed to marshal progress snapshot: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
	}
}

// LatestProgress returns the most recent snapshot and whether one exists.
func (h *Hub) LatestProgress() (models.BatchProgress, bool) {
	h.latestMu.RLock()
	defer h.latestMu.RUnlock()
	return h.latest, h.hasData
}

func (h *Hub) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *Hub) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
