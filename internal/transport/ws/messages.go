package ws

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgSubmitAnswer MessageType = "submit_answer"
	MsgRefresh      MessageType = "refresh"
	MsgPing         MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected    MessageType = "connected"
	MsgError        MessageType = "error"
	MsgPollView     MessageType = "poll_view"
	MsgSubmitResult MessageType = "submit_result"
	MsgPong         MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// SubmitAnswerPayload is the payload for submit_answer message
type SubmitAnswerPayload struct {
	QuestionIndex *int   `json:"questionIndex"`
	Text          string `json:"text"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	SessionID string      `json:"sessionId"`
	View      interface{} `json:"view"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeInvalidIndex   = "INVALID_INDEX"
	ErrCodeQuestionClosed = "QUESTION_CLOSED"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
