package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"wordpoll/internal/app"
	"wordpoll/internal/auth"
	"wordpoll/internal/domain"
)

// maxBodySize bounds JSON request bodies
const maxBodySize = 1 << 20

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidPassword  = "INVALID_PASSWORD"
	ErrCodeInvalidIndex     = "INVALID_INDEX"
	ErrCodeQuestionClosed   = "QUESTION_CLOSED"
	ErrCodePollCompleted    = "POLL_COMPLETED"
	ErrCodePollNotCompleted = "POLL_NOT_COMPLETED"
	ErrCodeNotAvailable     = "NOT_AVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// CreateSessionResponse is the response for session creation
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

// SubmitAnswerRequest is the body of an answer submission
type SubmitAnswerRequest struct {
	Text string `json:"text"`
}

// LoginRequest is the body of an admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse is the response for admin login
type LoginResponse struct {
	Authenticated bool `json:"authenticated"`
}

// SetCurrentRequest is the body of a set-current-question request
type SetCurrentRequest struct {
	Index *int `json:"index"`
}

// ViewAllRequest is the body of a view-all toggle
type ViewAllRequest struct {
	Enabled bool `json:"enabled"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	app.PollStats
	Sessions int `json:"sessions"`
	Admins   int `json:"admins"`
}

type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, sess *domain.Session)

// withSession resolves the caller's session from its token
func (s *Server) withSession(next sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.FromToken(s.tokens, s.poll.ID(), auth.TokenFromRequest(r))
		if err != nil {
			s.sendError(w, http.StatusUnauthorized, ErrCodeInvalidToken, "Session is missing or expired")
			return
		}
		next(w, r, sess)
	}
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()

	token, err := s.tokens.Issue(s.poll.ID(), sess.ID)
	if err != nil {
		s.sessions.Delete(sess.ID)
		s.logger.Error("failed to issue session token", "error", err)
		s.sendError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create session")
		return
	}

	s.sendJSON(w, http.StatusCreated, &CreateSessionResponse{
		SessionID: sess.ID,
		Token:     token,
	})
}

// handleGetView handles GET /api/view
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	s.sendSuccess(w, s.poll.View(sess))
}

// handleSubmitAnswer handles POST /api/questions/{index}/answers
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	index, ok := s.pathIndex(w, r)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	result, err := s.poll.Submit(r.Context(), sess, index, req.Text)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, result)
}

// handleRenderCloud handles GET /api/questions/{index}/cloud
func (s *Server) handleRenderCloud(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	index, ok := s.pathIndex(w, r)
	if !ok {
		return
	}

	img, contentType, err := s.poll.RenderQuestion(sess, index)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img)
}

// handleAdminLogin handles POST /api/admin/login
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	if !s.poll.Login(sess, req.Password) {
		s.sendError(w, http.StatusUnauthorized, ErrCodeInvalidPassword, "Incorrect password")
		return
	}

	s.sendSuccess(w, &LoginResponse{Authenticated: true})
}

// handleAdminLogout handles POST /api/admin/logout
func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	s.poll.Logout(sess)
	s.sendSuccess(w, &LoginResponse{Authenticated: false})
}

// handleAdminAdvance handles POST /api/admin/advance
func (s *Server) handleAdminAdvance(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	s.sendStatus(w)(s.poll.Advance(r.Context(), sess))
}

// handleAdminSetCurrent handles POST /api/admin/current
func (s *Server) handleAdminSetCurrent(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req SetCurrentRequest
	if err := decodeJSON(r, &req); err != nil || req.Index == nil {
		s.sendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "index is required")
		return
	}

	s.sendStatus(w)(s.poll.SetCurrent(r.Context(), sess, *req.Index))
}

// handleAdminComplete handles POST /api/admin/complete
func (s *Server) handleAdminComplete(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	s.sendStatus(w)(s.poll.Complete(r.Context(), sess))
}

// handleAdminReset handles POST /api/admin/reset
func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	s.sendStatus(w)(s.poll.Reset(r.Context(), sess))
}

// handleAdminViewAll handles POST /api/admin/view-all
func (s *Server) handleAdminViewAll(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req ViewAllRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	if err := s.poll.SetViewAll(sess, req.Enabled); err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, s.poll.View(sess))
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		PollStats: s.poll.Stats(),
		Sessions:  s.sessions.Count(),
		Admins:    s.sessions.AdminCount(),
	})
}

// handleStatic serves static files
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	// Strip /static/ prefix
	path := strings.TrimPrefix(r.URL.Path, "/static/")

	// Try to open from webFS
	file, err := s.webFS.Open("static/" + path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	// Get file info for content type and modification time
	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	seeker, ok := file.(io.ReadSeeker)
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Serve the file
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), seeker)
}

// handleSPA serves the single-page application
func (s *Server) handleSPA(w http.ResponseWriter, r *http.Request) {
	file, err := s.webFS.Open("index.html")
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	seeker, ok := file.(io.ReadSeeker)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", stat.ModTime(), seeker)
}

// pathIndex parses the {index} path value, writing an error when invalid
func (s *Server) pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, ErrCodeInvalidIndex, "Question index must be a number")
		return 0, false
	}
	return index, true
}

// sendStatus returns a writer for the result of an admin operation
func (s *Server) sendStatus(w http.ResponseWriter) func(domain.Status, error) {
	return func(status domain.Status, err error) {
		if err != nil {
			s.sendDomainError(w, err)
			return
		}
		s.sendSuccess(w, status)
	}
}

// sendDomainError maps domain errors to HTTP responses
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		s.sendError(w, http.StatusForbidden, ErrCodeUnauthorized, "Admin access required")
	case errors.Is(err, domain.ErrInvalidIndex):
		s.sendError(w, http.StatusBadRequest, ErrCodeInvalidIndex, "Question index out of range")
	case errors.Is(err, domain.ErrQuestionClosed):
		s.sendError(w, http.StatusConflict, ErrCodeQuestionClosed, "This question is currently disabled. You cannot add words at this time.")
	case errors.Is(err, domain.ErrPollCompleted):
		s.sendError(w, http.StatusConflict, ErrCodePollCompleted, "Poll is already completed")
	case errors.Is(err, domain.ErrPollNotCompleted):
		s.sendError(w, http.StatusConflict, ErrCodePollNotCompleted, "Poll must be completed before it can be reset")
	case errors.Is(err, app.ErrRendererUnavailable):
		s.sendError(w, http.StatusNotFound, ErrCodeNotAvailable, "Word cloud images are not available")
	default:
		s.logger.Error("request failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error")
	}
}

// decodeJSON decodes a bounded JSON request body
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	s.sendJSON(w, http.StatusOK, data)
}

// sendJSON sends a successful JSON response with the given status
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
