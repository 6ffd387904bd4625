package ws

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgJoinRoom     MessageType = "join_room"
	MsgSubmitAnswer MessageType = "submit_answer"
	MsgUpdateOrder  MessageType = "update_order"
	MsgShowResult   MessageType = "show_result"
	MsgResetGame    MessageType = "reset_game"
	MsgDisbandRoom  MessageType = "disband_room"
	MsgPing         MessageType = "ping"
)

// Server → Client message types
const (
	MsgYourCard      MessageType = "your_card"
	MsgGameUpdate    MessageType = "game_update"
	MsgRoomDisbanded MessageType = "room_disbanded"
	MsgErrorMessage  MessageType = "error_message"
	MsgPong          MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload any) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// JoinRoomPayload is the payload for join_room
type JoinRoomPayload struct {
	Room     string `json:"room"`
	Nickname string `json:"nickname"`
}

// SubmitAnswerPayload is the payload for submit_answer
type SubmitAnswerPayload struct {
	Answer string `json:"answer"`
}

// UpdateOrderPayload is the payload for update_order
type UpdateOrderPayload struct {
	OrderedIDs []string `json:"orderedIds"`
}
