package web

import (
	"encoding/json"
	"sync"
	"tv_channel/helpers/logs"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocket message types
type WSLogMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type WSNowPlayingMessage struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	StartedAt int64  `json:"started_at"`
}

// WebSocketHub manages WebSocket connections
type WebSocketHub struct {
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	logger     *logrus.Entry
}

var (
	wsHub     *WebSocketHub
	wsHubOnce sync.Once
)

// GetWebSocketHub returns the singleton WebSocketHub instance
func GetWebSocketHub() *WebSocketHub {
	wsHubOnce.Do(func() {
		logger := logs.GetLogger().WithField("module", "websocket")
		wsHub = &WebSocketHub{
			clients:    make(map[*websocket.Conn]bool),
			broadcast:  make(chan []byte, 256),
			register:   make(chan *websocket.Conn),
			unregister: make(chan *websocket.Conn),
			logger:     logger,
		}

		go wsHub.run()

		logger.Info("WebSocket hub initialized")
	})
	return wsHub
}

// run handles hub operations
func (h *WebSocketHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.WithField("total_clients", h.GetClientCount()).Info("WebSocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				h.logger.WithField("total_clients", len(h.clients)).Info("WebSocket client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					// Schedule for removal
					go func(c *websocket.Conn) {
						h.unregister <- c
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// RegisterClient adds a new WebSocket client
func (h *WebSocketHub) RegisterClient(conn *websocket.Conn) {
	h.register <- conn
}

// UnregisterClient removes a WebSocket client
func (h *WebSocketHub) UnregisterClient(conn *websocket.Conn) {
	h.unregister <- conn
}

// BroadcastLog sends a formatted log line to all connected clients.
// Implements logs.WebSocketBroadcaster.
func (h *WebSocketHub) BroadcastLog(message string) {
	data, err := json.Marshal(WSLogMessage{Type: "log", Message: message})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Channel full: drop rather than block the logger.
	}
}

// BroadcastNowPlaying sends the on-air item to all connected clients.
// Implements channel.Broadcaster.
func (h *WebSocketHub) BroadcastNowPlaying(name string, startedAt int64) {
	msg := WSNowPlayingMessage{
		Type:      "now_playing",
		Name:      name,
		StartedAt: startedAt,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal now_playing message")
		return
	}

	select {
	case h.broadcast <- data:
		h.logger.WithFields(logrus.Fields{
			"name":       name,
			"started_at": startedAt,
		}).Debug("Broadcasting now_playing event")
	default:
		h.logger.Warn("Broadcast channel full, dropping now_playing message")
	}
}

// GetClientCount returns the number of connected clients
func (h *WebSocketHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
