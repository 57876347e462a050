package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quizrally/internal/app"
	"quizrally/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// errSendBufferFull tells the room loop this peer cannot keep up; the room
// drops the peer rather than stalling the other players.
var errSendBufferFull = errors.New("send buffer full")

// Client is one player's WebSocket connection: a read pump feeding the
// room's event queue and a write pump draining the send buffer.
type Client struct {
	conn   *websocket.Conn
	room   *app.Room
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	mu     sync.Mutex
	closed bool

	// Set once the hello handshake binds an identity.
	userID int64
	name   string
	joined bool

	// onHello, if set, runs after a successful handshake.
	onHello func(userID int64)

	// refreshRoom, if set, resolves a fresh room when the bound one refuses
	// the join because its loop already stopped.
	refreshRoom func() *app.Room
}

// NewClient creates a client for an upgraded connection.
func NewClient(conn *websocket.Conn, room *app.Room, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		room:   room,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Send implements app.ClientConn.
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close implements app.ClientConn.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps. It returns when the
// connection is gone; a leave is synthesized for the bound player.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection into the room.
func (c *Client) readPump() {
	defer func() {
		if c.joined {
			// Carrying the connection lets the room ignore this leave when a
			// reconnect has already replaced it.
			c.room.Leave(c.userID, c)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		if !c.joined {
			if !c.handleHello(message) {
				return
			}
			continue
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleHello processes the mandatory first frame. It returns false when the
// connection should be dropped.
func (c *Client) handleHello(data []byte) bool {
	msgType, err := messageType(data)
	if err != nil || msgType != MsgHello {
		c.sendError("hello must be the first message")
		return false
	}

	var hello HelloMsg
	if err := json.Unmarshal(data, &hello); err != nil || hello.UserID == 0 {
		c.sendError("invalid hello")
		return false
	}

	name := hello.Name
	if name == "" {
		name = fmt.Sprintf("User%d", hello.UserID)
	}

	c.userID = hello.UserID
	c.name = name

	if c.onHello != nil {
		c.onHello(hello.UserID)
	}

	for attempt := 0; attempt < 3; attempt++ {
		if c.room.Join(domain.NewPlayer(hello.UserID, name, hello.IsGuest), c) {
			c.joined = true
			return true
		}
		if c.refreshRoom == nil {
			break
		}
		// The room's loop stopped between the lookup and the join; resolve a
		// fresh room through the registry and try again.
		c.room = c.refreshRoom()
	}

	c.sendError("room is closing")
	return false
}

// handleMessage dispatches one inbound frame. Malformed or unknown frames
// are dropped without affecting the room.
func (c *Client) handleMessage(data []byte) {
	msgType, err := messageType(data)
	if err != nil {
		c.logger.Debug("malformed frame dropped", "userID", c.userID)
		return
	}

	switch msgType {
	case MsgStart:
		c.room.Start(c.userID)
	case MsgAnswer:
		var msg AnswerMsg
		if err := json.Unmarshal(data, &msg); err != nil || msg.QID == "" {
			c.logger.Debug("malformed answer dropped", "userID", c.userID)
			return
		}
		c.room.Answer(c.userID, msg.QID, msg.ChoiceIdx)
	case MsgStamp:
		var msg StampMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		c.room.Stamp(c.userID, msg.Key)
	case MsgBuzz:
		// Reserved extension point: accepted and relayed even when unused
		// by the current game mode.
		c.room.Buzz(c.userID)
	case MsgChat:
		var msg ChatMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		c.room.Chat(c.userID, msg.Msg)
	default:
		// Unknown types are ignored by both ends.
	}
}

// sendError writes an error frame directly; used before the room binding
// exists.
func (c *Client) sendError(msg string) {
	c.Send(domain.NewErrorMsg(msg))
}
