package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"wordpoll/internal/app"
	"wordpoll/internal/auth"
	"wordpoll/internal/config"
	"wordpoll/internal/domain"
)

type testEnv struct {
	handler  http.Handler
	poll     *app.Poll
	sessions *app.Sessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithFS(t, nil)
}

func newTestEnvWithFS(t *testing.T, webFS fstest.MapFS) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Host: "127.0.0.1", Env: "development"},
	}

	questions, err := domain.NewQuestions([]string{"First?", "Second?", "Third?"})
	if err != nil {
		t.Fatalf("NewQuestions() error = %v", err)
	}

	poll, err := app.NewPoll(context.Background(), app.Options{
		PollID:    "test",
		Questions: questions,
		Verifier:  auth.NewPlainVerifier("admin123"),
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("NewPoll() error = %v", err)
	}
	sessions := app.NewSessions(time.Hour, logger)
	t.Cleanup(func() {
		poll.Close()
		sessions.Close()
	})

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	var server *Server
	if webFS == nil {
		server = NewServer(cfg, poll, sessions, tokens, logger, nil)
	} else {
		server = NewServer(cfg, poll, sessions, tokens, logger, webFS)
	}

	return &testEnv{handler: server.Handler(), poll: poll, sessions: sessions}
}

// do sends a request and decodes the response envelope into data
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, data interface{}) (int, *Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorInfo      `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}

	return rec.Code, &Response{Success: raw.Success, Error: raw.Error}
}

func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()

	var created CreateSessionResponse
	code, _ := e.do(t, "POST", "/api/sessions", "", nil, &created)
	if code != http.StatusCreated {
		t.Fatalf("POST /api/sessions status = %d, want %d", code, http.StatusCreated)
	}
	if created.SessionID == "" || created.Token == "" {
		t.Fatalf("POST /api/sessions = %+v", created)
	}
	return created.Token
}

func (e *testEnv) newAdmin(t *testing.T) string {
	t.Helper()

	token := e.newSession(t)
	code, _ := e.do(t, "POST", "/api/admin/login", token, &LoginRequest{Password: "admin123"}, nil)
	if code != http.StatusOK {
		t.Fatalf("login status = %d", code)
	}
	return token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var health HealthResponse
	code, resp := env.do(t, "GET", "/api/health", "", nil, &health)
	if code != http.StatusOK || !resp.Success || health.Status != "ok" {
		t.Errorf("GET /api/health = %d %+v %+v", code, resp, health)
	}
}

func TestView_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.do(t, "GET", "/api/view", tt.token, nil, nil)
			if code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", code, http.StatusUnauthorized)
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeInvalidToken {
				t.Errorf("error = %+v, want %s", resp.Error, ErrCodeInvalidToken)
			}
		})
	}
}

func TestSubmitAnswer(t *testing.T) {
	env := newTestEnv(t)
	token := env.newSession(t)

	var result domain.SubmitResult
	code, _ := env.do(t, "POST", "/api/questions/0/answers", token, &SubmitAnswerRequest{Text: "The Quick, quick FOX!!"}, &result)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !result.Accepted || result.WordsAdded != 3 {
		t.Errorf("result = %+v", result)
	}

	var view domain.PollView
	env.do(t, "GET", "/api/view", token, nil, &view)
	if len(view.Questions) != 1 || view.Questions[0].Counts["quick"] != 2 {
		t.Errorf("view = %+v", view)
	}

	code, _ = env.do(t, "POST", "/api/questions/0/answers", token, &SubmitAnswerRequest{Text: "!!!"}, &result)
	if code != http.StatusOK || result.Reason != domain.ReasonEmptyInput {
		t.Errorf("empty submission = %d %+v", code, result)
	}
}

func TestSubmitAnswer_Errors(t *testing.T) {
	env := newTestEnv(t)
	token := env.newSession(t)

	tests := []struct {
		name     string
		path     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"disabled question", "/api/questions/1/answers", &SubmitAnswerRequest{Text: "hello"}, http.StatusConflict, ErrCodeQuestionClosed},
		{"out of range", "/api/questions/9/answers", &SubmitAnswerRequest{Text: "hello"}, http.StatusBadRequest, ErrCodeInvalidIndex},
		{"not a number", "/api/questions/abc/answers", &SubmitAnswerRequest{Text: "hello"}, http.StatusBadRequest, ErrCodeInvalidIndex},
		{"bad body", "/api/questions/0/answers", "not an object", http.StatusBadRequest, ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.do(t, "POST", tt.path, token, tt.body, nil)
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	token := env.newSession(t)

	code, resp := env.do(t, "POST", "/api/admin/login", token, &LoginRequest{Password: "nope"}, nil)
	if code != http.StatusUnauthorized || resp.Error.Code != ErrCodeInvalidPassword {
		t.Errorf("wrong password = %d %+v", code, resp.Error)
	}

	var login LoginResponse
	code, _ = env.do(t, "POST", "/api/admin/login", token, &LoginRequest{Password: "admin123"}, &login)
	if code != http.StatusOK || !login.Authenticated {
		t.Errorf("login = %d %+v", code, login)
	}

	var stats StatsResponse
	env.do(t, "GET", "/api/stats", "", nil, &stats)
	if stats.Sessions != 1 || stats.Admins != 1 {
		t.Errorf("stats = %+v", stats)
	}

	env.do(t, "POST", "/api/admin/logout", token, nil, &login)
	if login.Authenticated {
		t.Error("logout response still authenticated")
	}

	code, resp = env.do(t, "POST", "/api/admin/advance", token, nil, nil)
	if code != http.StatusForbidden || resp.Error.Code != ErrCodeUnauthorized {
		t.Errorf("advance after logout = %d %+v", code, resp.Error)
	}
}

func TestAdminFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.newAdmin(t)
	guest := env.newSession(t)

	var status domain.Status
	code, _ := env.do(t, "POST", "/api/admin/advance", admin, nil, &status)
	if code != http.StatusOK || status.Message != "Question 2 enabled and set as current!" {
		t.Errorf("advance = %d %+v", code, status)
	}

	code, resp := env.do(t, "POST", "/api/admin/current", admin, map[string]int{"index": 5}, nil)
	if code != http.StatusBadRequest || resp.Error.Code != ErrCodeInvalidIndex {
		t.Errorf("set current 5 = %d %+v", code, resp.Error)
	}
	code, _ = env.do(t, "POST", "/api/admin/current", admin, map[string]string{}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("set current without index = %d, want 400", code)
	}
	code, _ = env.do(t, "POST", "/api/admin/current", admin, map[string]int{"index": 2}, &status)
	if code != http.StatusOK || status.Message != "Question 3 enabled and set as current." {
		t.Errorf("set current 2 = %d %+v", code, status)
	}

	code, resp = env.do(t, "POST", "/api/admin/reset", admin, nil, nil)
	if code != http.StatusConflict || resp.Error.Code != ErrCodePollNotCompleted {
		t.Errorf("reset before completion = %d %+v", code, resp.Error)
	}

	env.do(t, "POST", "/api/questions/2/answers", guest, &SubmitAnswerRequest{Text: "flying"}, nil)

	code, _ = env.do(t, "POST", "/api/admin/complete", admin, nil, &status)
	if code != http.StatusOK || !status.Changed {
		t.Errorf("complete = %d %+v", code, status)
	}

	var view domain.PollView
	env.do(t, "GET", "/api/view", guest, nil, &view)
	if view.State != domain.StateCompleted || len(view.Questions) != 3 {
		t.Errorf("guest view after completion: %s with %d questions", view.State, len(view.Questions))
	}

	code, resp = env.do(t, "POST", "/api/admin/advance", admin, nil, nil)
	if code != http.StatusConflict || resp.Error.Code != ErrCodePollCompleted {
		t.Errorf("advance after completion = %d %+v", code, resp.Error)
	}

	code, _ = env.do(t, "POST", "/api/admin/reset", admin, nil, &status)
	if code != http.StatusOK || status.Message != "Poll has been reset!" {
		t.Errorf("reset = %d %+v", code, status)
	}

	env.do(t, "GET", "/api/view", guest, nil, &view)
	if view.State != domain.StateCollecting || view.CurrentQuestion.Index != 0 || view.Questions[0].Total != 0 {
		t.Errorf("guest view after reset = %+v", view)
	}
}

func TestAdminViewAll(t *testing.T) {
	env := newTestEnv(t)
	admin := env.newAdmin(t)
	guest := env.newSession(t)

	code, resp := env.do(t, "POST", "/api/admin/view-all", guest, &ViewAllRequest{Enabled: true}, nil)
	if code != http.StatusForbidden || resp.Error.Code != ErrCodeUnauthorized {
		t.Errorf("guest view-all = %d %+v", code, resp.Error)
	}

	var view domain.PollView
	code, _ = env.do(t, "POST", "/api/admin/view-all", admin, &ViewAllRequest{Enabled: true}, &view)
	if code != http.StatusOK || len(view.Questions) != 3 || !view.Session.ViewAll {
		t.Errorf("admin view-all = %d, %d questions, viewAll %v", code, len(view.Questions), view.Session.ViewAll)
	}
}

func TestRenderCloud_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	token := env.newSession(t)

	code, resp := env.do(t, "GET", "/api/questions/0/cloud", token, nil, nil)
	if code != http.StatusNotFound || resp.Error.Code != ErrCodeNotAvailable {
		t.Errorf("cloud = %d %+v", code, resp.Error)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("OPTIONS", "/api/view", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestStaticAndSPA(t *testing.T) {
	webFS := fstest.MapFS{
		"index.html":     {Data: []byte("<html>poll</html>")},
		"static/app.css": {Data: []byte("body{}")},
	}
	env := newTestEnvWithFS(t, webFS)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, "<html>poll</html>"},
		{"/admin", http.StatusOK, "<html>poll</html>"},
		{"/static/app.css", http.StatusOK, "body{}"},
		{"/static/missing.js", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestIsStaticRequest(t *testing.T) {
	tests := map[string]bool{
		"/static/app.js": true,
		"/static/":       false,
		"/api/view":      false,
	}
	for path, want := range tests {
		if got := isStaticRequest(path); got != want {
			t.Errorf("isStaticRequest(%q) = %v, want %v", path, got, want)
		}
	}
}
