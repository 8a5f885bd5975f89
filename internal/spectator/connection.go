package spectator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024
	sendBuffer     = 256
)

var ErrConnectionClosed = errors.New("connection closed")

// connection is one websocket client of the hub.
type connection struct {
	conn      *websocket.Conn
	hub       *Hub
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConnection(conn *websocket.Conn, hub *Hub) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &connection{
		conn:   conn,
		hub:    hub,
		send:   make(chan *Message, sendBuffer),
		logger: hub.logger.With("remote", conn.RemoteAddr().String()),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *connection) start() {
	go c.writePump()
	go c.readPump()
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.hub.unregister(c)
		_ = c.conn.Close()
	})
}

// enqueue queues msg without blocking. A client that cannot keep up is
// disconnected.
func (c *connection) enqueue(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Spectator send buffer full, closing connection")
		go c.close()
		return ErrConnectionClosed
	}
}

func (c *connection) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeSelect:
		var data SelectData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("failed to parse select data")
			return
		}
		if err := c.hub.selectSlot(data.Player, data.Slot); err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendMessage(MessageTypeAccepted, data)
	default:
		c.sendError("unknown message type " + string(msg.Type))
	}
}

func (c *connection) sendMessage(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to encode message", "type", t, "error", err)
		return
	}
	_ = c.enqueue(msg)
}

func (c *connection) sendError(message string) {
	c.sendMessage(MessageTypeError, ErrorData{Message: message})
}
