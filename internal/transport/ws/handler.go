package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"wordpoll/internal/app"
	"wordpoll/internal/auth"
)

// Handler upgrades authenticated requests to push connections
type Handler struct {
	poll     *app.Poll
	sessions *app.Sessions
	tokens   *auth.TokenIssuer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler for the poll
func NewHandler(poll *app.Poll, sessions *app.Sessions, tokens *auth.TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{
		poll:     poll,
		sessions: sessions,
		tokens:   tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Sessions are bound by token, not cookie
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP resolves the session before upgrading. Browsers cannot set
// headers on the handshake, so the token normally comes in ?token=.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.FromToken(h.tokens, h.poll.ID(), auth.TokenFromRequest(r))
	if err != nil {
		http.Error(w, "valid session token is required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "sessionID", session.ID, "error", err)
		return
	}

	client := NewClient(conn, h.poll, session, h.logger)
	h.poll.RegisterClient(client)
	h.logger.Info("viewer connected", "sessionID", session.ID, "isAdmin", session.IsAdmin())

	client.sendConnected()
	client.Run()

	h.logger.Info("viewer disconnected", "sessionID", session.ID)
}
