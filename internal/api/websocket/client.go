package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512KB
)

type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("WebSocket read error")
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Batch queued messages
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// subscribeMessage is what clients send to follow a project or execution.
type subscribeMessage struct {
	Action      string `json:"action"` // subscribe, unsubscribe
	ProjectID   string `json:"project_id,omitempty"`
	ExecutionID string `json:"execution_id,omitempty"`
}

func (c *Client) handleMessage(message []byte) {
	var msg subscribeMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Msg("Ignoring malformed WebSocket message")
		return
	}

	switch msg.Action {
	case "subscribe":
		if id, err := uuid.Parse(msg.ExecutionID); err == nil {
			c.Hub.SubscribeToExecution(c, id)
		}
		if id, err := uuid.Parse(msg.ProjectID); err == nil {
			c.Hub.SubscribeToProject(c, id)
		}
	case "unsubscribe":
		if id, err := uuid.Parse(msg.ExecutionID); err == nil {
			c.Hub.UnsubscribeFromExecution(c, id)
		}
		if id, err := uuid.Parse(msg.ProjectID); err == nil {
			c.Hub.UnsubscribeFromProject(c, id)
		}
	}
}
