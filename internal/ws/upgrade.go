package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vigilo/config"
	"vigilo/internal/auth"
	"vigilo/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// subscribeMsg is the only inbound message the alert socket understands.
// Clients are auto-subscribed to their own alert topic; report category
// topics are opt-in.
type subscribeMsg struct {
	Action string `json:"action"` // subscribe | unsubscribe
	Topic  string `json:"topic"`  // e.g. reports:THEFT
}

// UpgradeAlertsWS upgrades the connection for the realtime alert stream.
// Auth is via token query param; the client is registered for the lifetime
// of the connection and unregistered from all topics on close.
func UpgradeAlertsWS(cfg *config.JWTConfig, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &Client{
			UserID: claims.UserID,
			Send:   make(chan []byte, 256),
		}
		hub.Register(client)
		defer client.Close()

		go writePump(client, conn)

		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg subscribeMsg
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if !validTopic(msg.Topic) {
				continue
			}
			switch msg.Action {
			case "subscribe":
				hub.Subscribe(client, msg.Topic)
			case "unsubscribe":
				hub.Unsubscribe(client, msg.Topic)
			}
		}
	}
}

// validTopic restricts client-requested subscriptions to report category
// streams; alert topics are assigned by the hub, never requested.
func validTopic(topic string) bool {
	category, ok := strings.CutPrefix(topic, "reports:")
	return ok && domain.ValidCategory(category)
}

func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
