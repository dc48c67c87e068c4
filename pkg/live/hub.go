package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/trafficlens/congestion/pkg/congestion"
)

const writeWait = 10 * time.Second

// Message is what viewers receive for every analyzed frame.
type Message struct {
	Video  string                  `json:"video"`
	Result *congestion.FrameResult `json:"result"`
}

// Hub fans frame results out to the websocket clients watching a video.
type Hub struct {
	// clients maps video name -> set of connections
	clients map[string]map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewHub returns a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]bool),
	}
}

// Register adds conn to the viewers of video.
func (h *Hub) Register(video string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[video] == nil {
		h.clients[video] = make(map[*websocket.Conn]bool)
	}
	h.clients[video][conn] = true
	log.Printf("Hub: client registered for '%s' (total: %d)", video, len(h.clients[video]))
}

// Unregister removes conn from the viewers of video.
func (h *Hub) Unregister(video string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[video]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, video)
		}
	}
}

// HasClients reports whether anybody is watching video.
func (h *Hub) HasClients(video string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[video]) > 0
}

// ClientCount returns the number of connections over all videos.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.clients {
		count += len(conns)
	}
	return count
}

// Broadcast sends res to every viewer of video. Clients that fail the write are dropped.
func (h *Hub) Broadcast(video string, res *congestion.FrameResult) {
	if !h.HasClients(video) {
		return
	}

	data, err := json.Marshal(&Message{Video: video, Result: res})
	if err != nil {
		log.Printf("Broadcast: Error marshaling frame %d, got '%v'", res.Frame, err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[video]))
	for conn := range h.clients[video] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Broadcast: Error sending to client, got '%v'", err)
			h.Unregister(video, conn)
			conn.Close()
		}
	}
}
