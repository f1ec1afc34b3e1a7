package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Routes returns the monitor's HTTP surface: a websocket stream of progress
// snapshots on /ws and the latest snapshot as JSON on /progress.
func (h *Hub) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/progress", h.serveProgress)
	return mux
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed: %v", err)
		return
	}

	h.Register(conn)

	// Read loop only to observe the close; clients never send data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.Unregister(conn)
				return
			}
		}
	}()
}

func (h *Hub) serveProgress(w http.ResponseWriter, r *http.Request) {
	progress, ok := h.LatestProgress()
	if !ok {
		http.Error(w, "no batch has run yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(progress); err != nil {
		h.log.Error("Failed to encode progress: %v", err)
	}
}
