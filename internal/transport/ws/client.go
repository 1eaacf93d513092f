package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wordpoll/internal/app"
	"wordpoll/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16384

	// Size of the send channel buffer
	sendBufferSize = 256

	// Time allowed for a submission to reach the store
	submitTimeout = 10 * time.Second
)

// Client represents a WebSocket client connection
type Client struct {
	conn    *websocket.Conn
	poll    *app.Poll
	session *domain.Session
	send    chan []byte
	done    chan struct{}
	logger  *slog.Logger
	mu      sync.Mutex
	closed  bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, poll *app.Poll, session *domain.Session, logger *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		poll:    poll,
		session: session,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Session implements app.ClientConnection interface
func (c *Client) Session() *domain.Session {
	return c.session
}

// Send implements app.ClientConnection. View updates pushed by the poll are
// wrapped as poll_view messages; anything else is sent as given.
func (c *Client) Send(message interface{}) error {
	if update, ok := message.(*domain.ViewUpdate); ok {
		message = NewServerMessage(MsgPollView, update)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

// enqueue hands a frame to the write pump. Slow clients lose frames rather
// than stall the broadcaster.
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, frame dropped", "sessionID", c.session.ID)
	}
}

// Close implements app.ClientConnection interface
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
		c.poll.UnregisterClient(c)
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

		c.session.Touch()
		c.handleMessage(message)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
// Each message goes out as its own text frame.
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
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("websocket write failed", "sessionID", c.session.ID, "error", err)
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
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgSubmitAnswer:
		c.handleSubmitAnswer(msg.Payload)
	case MsgRefresh:
		c.sendView()
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleSubmitAnswer handles a submit_answer message
func (c *Client) handleSubmitAnswer(payload json.RawMessage) {
	var req SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.QuestionIndex == nil {
		c.sendError(ErrCodeInvalidMessage, "questionIndex is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	result, err := c.poll.Submit(ctx, c.session, *req.QuestionIndex, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuestionClosed):
			c.sendError(ErrCodeQuestionClosed, result.Message)
		case errors.Is(err, domain.ErrInvalidIndex):
			c.sendError(ErrCodeInvalidIndex, "Question index out of range")
		default:
			c.sendError(ErrCodeInternalError, "Failed to save your answer")
		}
		return
	}

	c.Send(NewServerMessage(MsgSubmitResult, result))
}

// sendConnected sends the connected message to the client
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		SessionID: c.session.ID,
		View:      c.poll.View(c.session),
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendView sends the client its current view
func (c *Client) sendView() {
	c.Send(NewServerMessage(MsgPollView, &domain.ViewUpdate{View: c.poll.View(c.session)}))
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	payload := &ErrorPayload{
		Code:    code,
		Message: message,
	}

	c.Send(NewServerMessage(MsgError, payload))
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(NewServerMessage(MsgPong, nil))
}
