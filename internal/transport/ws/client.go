package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ito/internal/app"
	"ito/internal/domain"
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

// Client represents a WebSocket client connection. One connection is one
// player for the connection's lifetime.
type Client struct {
	conn     *websocket.Conn
	router   *app.Router
	playerID string
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, router *app.Router, playerID string, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		router:   router,
		playerID: playerID,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// PlayerID implements app.ClientConn
func (c *Client) PlayerID() string {
	return c.playerID
}

// Send implements app.ClientConn
func (c *Client) Send(event string, payload any) error {
	data, err := json.Marshal(NewServerMessage(MessageType(event), payload))
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
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConn
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

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.router.Disconnect(c.playerID)
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

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
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

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case MsgJoinRoom:
		c.handleJoinRoom(msg.Payload)
	case MsgSubmitAnswer:
		c.handleSubmitAnswer(msg.Payload)
	case MsgUpdateOrder:
		c.handleUpdateOrder(msg.Payload)
	case MsgShowResult:
		c.reportError(c.router.ShowResult(c.playerID))
	case MsgResetGame:
		c.reportError(c.router.ResetGame(c.playerID))
	case MsgDisbandRoom:
		c.reportError(c.router.DisbandRoom(c.playerID))
	case MsgPing:
		c.sendPong()
	default:
		c.sendError("unknown message type")
	}
}

// handleJoinRoom handles a join_room message
func (c *Client) handleJoinRoom(payload json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("invalid payload")
		return
	}

	c.reportError(c.router.JoinRoom(c, p.Room, p.Nickname))
}

// handleSubmitAnswer handles a submit_answer message
func (c *Client) handleSubmitAnswer(payload json.RawMessage) {
	var p SubmitAnswerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("invalid payload")
		return
	}

	c.reportError(c.router.SubmitAnswer(c.playerID, p.Answer))
}

// handleUpdateOrder handles an update_order message
func (c *Client) handleUpdateOrder(payload json.RawMessage) {
	var p UpdateOrderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError("invalid payload")
		return
	}

	c.reportError(c.router.UpdateOrder(c.playerID, p.OrderedIDs))
}

// reportError sends an advisory error_message to this connection only.
// Errors are never broadcast to the room.
func (c *Client) reportError(err error) {
	if err == nil {
		return
	}
	c.sendError(errorText(err))
}

// errorText maps a domain error to its user-facing advisory string
func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRoomName):
		return "room name must be 1-20 allowed characters"
	case errors.Is(err, domain.ErrInvalidNickname):
		return "nickname must be 1-20 allowed characters"
	case errors.Is(err, domain.ErrInvalidAnswer):
		return "answer must be 1-100 characters"
	case errors.Is(err, domain.ErrRoomFull):
		return "this room is full"
	case errors.Is(err, domain.ErrAlreadyInRoom):
		return "already in a room"
	case errors.Is(err, domain.ErrNotInRoom):
		return "you are not in a room"
	case errors.Is(err, domain.ErrNotHost):
		return "only the host can do that"
	case errors.Is(err, domain.ErrWrongPhase):
		return "that action is not available right now"
	default:
		return "internal server error"
	}
}

// sendError sends an error_message to the client
func (c *Client) sendError(message string) {
	msg := NewServerMessage(MsgErrorMessage, message)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
	}
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(string(MsgPong), nil)
}
