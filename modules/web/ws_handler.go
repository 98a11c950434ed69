package web

import (
	"net/http"
	"time"
	"tv_channel/helpers/logs"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const pongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for now (adjust in production)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket handles WebSocket connections at /api/ws
func handleWebSocket(c *gin.Context) {
	logger := logs.GetLogger().WithFields(logrus.Fields{
		"module":    "web",
		"handler":   "handleWebSocket",
		"client_ip": c.ClientIP(),
	})

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade connection to WebSocket")
		return
	}

	logger.Info("WebSocket connection established")

	hub := GetWebSocketHub()
	hub.RegisterClient(conn)

	defer func() {
		hub.UnregisterClient(conn)
		logger.Info("WebSocket connection closed")
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Read loop - keep connection alive; clients only listen.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithError(err).Warn("WebSocket connection closed unexpectedly")
			}
			break
		}
	}
}
