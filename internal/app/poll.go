package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"wordpoll/internal/auth"
	"wordpoll/internal/domain"
	"wordpoll/internal/store"
)

// DefaultTopN is how many frequent words a question view lists
const DefaultTopN = 5

// ClientConnection represents a connected client that receives view updates
type ClientConnection interface {
	Send(message interface{}) error
	Session() *domain.Session
	Close() error
}

// Options configures a Poll
type Options struct {
	PollID    string
	Questions []domain.Question
	TopN      int
	Store     store.Store
	Verifier  auth.Verifier
	Renderer  Renderer
	Logger    *slog.Logger
}

// Poll is the poll state machine. It owns the control config and one word
// bag per question, and is the only way to read or change either.
//
// Lock order is config then bag; nothing takes a bag lock before the config
// lock, and no two bag locks are held at once.
type Poll struct {
	id        string
	questions []domain.Question
	topN      int
	store     store.Store
	verifier  auth.Verifier
	renderer  Renderer
	logger    *slog.Logger

	mu     sync.RWMutex
	config domain.PollConfig
	bags   []*domain.WordBag

	clients   map[ClientConnection]struct{}
	clientsMu sync.RWMutex

	// Event channel for broadcasting
	events chan *domain.PollEvent
	done   chan struct{}
}

// NewPoll loads the stored state and starts the event broadcaster
func NewPoll(ctx context.Context, opts Options) (*Poll, error) {
	if len(opts.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Verifier == nil {
		return nil, errors.New("admin verifier is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	n := len(opts.Questions)
	snap, err := opts.Store.Load(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load poll state: %w", err)
	}

	bags := make([]*domain.WordBag, n)
	for q := range bags {
		bags[q] = domain.NewWordBag(snap.Words[q]...)
	}

	p := &Poll{
		id:        opts.PollID,
		questions: opts.Questions,
		topN:      opts.TopN,
		store:     opts.Store,
		verifier:  opts.Verifier,
		renderer:  opts.Renderer,
		logger:    opts.Logger.With("pollID", opts.PollID),
		config:    snap.Config,
		bags:      bags,
		clients:   make(map[ClientConnection]struct{}),
		events:    make(chan *domain.PollEvent, 100),
		done:      make(chan struct{}),
	}

	p.logger.Info("poll loaded",
		"questions", n,
		"state", snap.Config.State(),
		"currentQuestion", snap.Config.CurrentQuestion,
	)

	go p.eventLoop()

	return p, nil
}

// ID returns the poll identifier
func (p *Poll) ID() string {
	return p.id
}

// Questions returns the fixed question list
func (p *Poll) Questions() []domain.Question {
	out := make([]domain.Question, len(p.questions))
	copy(out, p.questions)
	return out
}

// Config returns a copy of the current control state
func (p *Poll) Config() domain.PollConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Clone()
}

// Submit normalizes raw text and records the tokens for question q.
// A closed question or bad index is returned as an error with nothing
// recorded; text without usable words is reported in the result only.
func (p *Poll) Submit(ctx context.Context, sess *domain.Session, q int, raw string) (domain.SubmitResult, error) {
	tokens := domain.Normalize(raw)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.config.AcceptsSubmission(q, sess.IsAdmin()); err != nil {
		result := domain.SubmitResult{Message: "Invalid question."}
		if errors.Is(err, domain.ErrQuestionClosed) {
			result.Reason = domain.ReasonQuestionClosed
			result.Message = "This question is currently disabled. You cannot add words at this time."
		}
		return result, err
	}

	if len(tokens) == 0 {
		message := "No words added."
		if strings.TrimSpace(raw) == "" {
			message = "Please enter some text first."
		}
		return domain.SubmitResult{Reason: domain.ReasonEmptyInput, Message: message}, nil
	}

	total, err := p.bags[q].AppendFunc(tokens, func(offset int) error {
		return p.store.AppendWords(ctx, q, offset, tokens)
	})
	if err != nil {
		p.logger.Error("failed to store words", "question", q, "error", err)
		return domain.SubmitResult{Message: "Failed to save your answer."}, fmt.Errorf("failed to store words: %w", err)
	}

	p.logger.Debug("answer submitted", "question", q, "words", len(tokens), "total", total)
	p.queueEvent(domain.NewEvent(domain.EventAnswerSubmitted, p.id, q))

	return domain.SubmitResult{
		Accepted:   true,
		WordsAdded: len(tokens),
		Message:    fmt.Sprintf("Added %s to the word cloud!", english.Plural(len(tokens), "word", "")),
	}, nil
}

// View returns the results the session is entitled to see
func (p *Poll) View(sess *domain.Session) domain.PollView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	isAdmin := sess.IsAdmin()
	visible := p.config.VisibleQuestions(isAdmin, sess.ViewAll())

	questions := make([]domain.QuestionView, 0, len(visible))
	for _, q := range visible {
		questions = append(questions, p.questionView(q))
	}

	view := domain.PollView{
		PollID:          p.id,
		State:           p.config.State(),
		CurrentQuestion: p.questions[p.config.CurrentQuestion],
		QuestionCount:   len(p.questions),
		Enabled:         append([]bool(nil), p.config.Enabled...),
		Questions:       questions,
	}
	if sess != nil {
		view.Session = sess.ToInfo()
	}
	return view
}

// questionView builds the aggregate view of one question (caller must hold lock)
func (p *Poll) questionView(q int) domain.QuestionView {
	stats := p.bags[q].Stats(p.topN)
	return domain.QuestionView{
		Index:   q,
		Prompt:  p.questions[q].Prompt,
		Enabled: p.config.Enabled[q],
		Counts:  stats.Counts,
		Top:     stats.Top,
		Total:   stats.Total,
		Unique:  stats.Unique,
	}
}

// Login grants admin access to the session if the password is correct
func (p *Poll) Login(sess *domain.Session, password string) bool {
	if !p.verifier.Verify(password) {
		p.logger.Warn("admin login failed", "sessionID", sess.ID)
		return false
	}

	sess.Authenticate()
	p.logger.Info("admin logged in", "sessionID", sess.ID)
	p.queueEvent(domain.NewSessionEvent(domain.EventViewChanged, p.id, sess.ID))
	return true
}

// Logout drops admin access and admin-only view preferences
func (p *Poll) Logout(sess *domain.Session) {
	wasAdmin := sess.IsAdmin()
	sess.Logout()

	if wasAdmin {
		p.logger.Info("admin logged out", "sessionID", sess.ID)
		p.queueEvent(domain.NewSessionEvent(domain.EventViewChanged, p.id, sess.ID))
	}
}

// SetViewAll toggles whether an admin sees every question's results
func (p *Poll) SetViewAll(sess *domain.Session, enabled bool) error {
	if err := sess.SetViewAll(enabled); err != nil {
		return err
	}
	p.queueEvent(domain.NewSessionEvent(domain.EventViewChanged, p.id, sess.ID))
	return nil
}

// Advance enables the next question (admin only)
func (p *Poll) Advance(ctx context.Context, sess *domain.Session) (domain.Status, error) {
	return p.updateConfig(ctx, sess, func(cfg *domain.PollConfig) (domain.Status, error) {
		advanced, err := cfg.Advance()
		if err != nil {
			return domain.Status{}, err
		}
		if !advanced {
			return domain.Status{Message: "Already at the last question."}, nil
		}
		return domain.Status{
			Changed: true,
			Message: fmt.Sprintf("Question %d enabled and set as current!", cfg.CurrentQuestion+1),
		}, nil
	})
}

// SetCurrent enables question i and makes it current (admin only)
func (p *Poll) SetCurrent(ctx context.Context, sess *domain.Session, i int) (domain.Status, error) {
	return p.updateConfig(ctx, sess, func(cfg *domain.PollConfig) (domain.Status, error) {
		if err := cfg.SetCurrent(i); err != nil {
			return domain.Status{}, err
		}
		return domain.Status{
			Changed: true,
			Message: fmt.Sprintf("Question %d enabled and set as current.", i+1),
		}, nil
	})
}

// Complete closes submissions and reveals all results (admin only)
func (p *Poll) Complete(ctx context.Context, sess *domain.Session) (domain.Status, error) {
	status, err := p.updateConfig(ctx, sess, func(cfg *domain.PollConfig) (domain.Status, error) {
		if !cfg.Complete() {
			return domain.Status{Message: "Poll is already completed."}, nil
		}
		return domain.Status{
			Changed: true,
			Message: "Poll completed! All users will now see the results.",
		}, nil
	})
	if err == nil && status.Changed {
		p.logger.Info("poll completed", "words", humanize.Comma(int64(p.totalWords())))
	}
	return status, err
}

// Reset returns a completed poll to its initial state and clears every
// question's words (admin only)
func (p *Poll) Reset(ctx context.Context, sess *domain.Session) (domain.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !sess.IsAdmin() {
		return domain.Status{}, domain.ErrUnauthorized
	}

	next := p.config.Clone()
	if err := next.Reset(); err != nil {
		return domain.Status{}, err
	}

	if err := p.store.Reset(ctx, len(p.questions)); err != nil {
		p.logger.Error("failed to reset stored poll", "error", err)
		return domain.Status{}, fmt.Errorf("failed to reset poll: %w", err)
	}

	for _, bag := range p.bags {
		bag.Clear()
	}
	p.config = next

	p.logger.Info("poll reset", "sessionID", sess.ID)
	p.queueEvent(domain.NewEvent(domain.EventPollReset, p.id, next.CurrentQuestion))

	return domain.Status{Changed: true, Message: "Poll has been reset!"}, nil
}

// updateConfig applies an admin transition to a copy of the config, stores
// it and only then makes it current. The admin check runs under the lock,
// immediately before the mutation.
func (p *Poll) updateConfig(ctx context.Context, sess *domain.Session, apply func(cfg *domain.PollConfig) (domain.Status, error)) (domain.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !sess.IsAdmin() {
		return domain.Status{}, domain.ErrUnauthorized
	}

	next := p.config.Clone()
	status, err := apply(&next)
	if err != nil || !status.Changed {
		return status, err
	}

	if err := p.store.SaveConfig(ctx, next); err != nil {
		p.logger.Error("failed to store poll config", "error", err)
		return domain.Status{}, fmt.Errorf("failed to save poll config: %w", err)
	}

	eventType := domain.EventQuestionChanged
	if next.Completed && !p.config.Completed {
		eventType = domain.EventPollCompleted
	}
	p.config = next

	p.logger.Info("poll config changed",
		"event", eventType,
		"currentQuestion", next.CurrentQuestion,
		"state", next.State(),
	)
	p.queueEvent(domain.NewEvent(eventType, p.id, next.CurrentQuestion))

	return status, nil
}

// PollStats summarizes the poll for monitoring
type PollStats struct {
	State           domain.State `json:"state"`
	CurrentQuestion int          `json:"currentQuestion"`
	TotalWords      int          `json:"totalWords"`
	TotalWordsText  string       `json:"totalWordsText"`
	Clients         int          `json:"clients"`
}

// Stats returns aggregate counters
func (p *Poll) Stats() PollStats {
	p.mu.RLock()
	state, current := p.config.State(), p.config.CurrentQuestion
	p.mu.RUnlock()

	total := p.totalWords()
	return PollStats{
		State:           state,
		CurrentQuestion: current,
		TotalWords:      total,
		TotalWordsText:  humanize.Comma(int64(total)),
		Clients:         p.ClientCount(),
	}
}

func (p *Poll) totalWords() int {
	total := 0
	for _, bag := range p.bags {
		total += bag.Total()
	}
	return total
}

// RegisterClient registers a client connection for view updates
func (p *Poll) RegisterClient(client ClientConnection) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	p.clients[client] = struct{}{}
}

// UnregisterClient removes a client connection
func (p *Poll) UnregisterClient(client ClientConnection) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	delete(p.clients, client)
}

// ClientCount returns the number of connected clients
func (p *Poll) ClientCount() int {
	p.clientsMu.RLock()
	defer p.clientsMu.RUnlock()
	return len(p.clients)
}

// queueEvent adds an event to the broadcast queue
func (p *Poll) queueEvent(event *domain.PollEvent) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop processes events and broadcasts to clients
func (p *Poll) eventLoop() {
	for {
		select {
		case <-p.done:
			return
		case event := <-p.events:
			p.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends every affected client its own view. Views differ per
// viewer, so the event alone is not enough.
func (p *Poll) broadcastEvent(event *domain.PollEvent) {
	p.clientsMu.RLock()
	defer p.clientsMu.RUnlock()

	for client := range p.clients {
		sess := client.Session()
		if event.SessionID != "" && (sess == nil || sess.ID != event.SessionID) {
			continue
		}

		update := &domain.ViewUpdate{Event: event, View: p.View(sess)}
		if err := client.Send(update); err != nil {
			p.logger.Debug("failed to send to client", "error", err)
		}
	}
}

// Close shuts down the poll and its client connections
func (p *Poll) Close() {
	select {
	case <-p.done:
		return // Already closed
	default:
		close(p.done)
	}

	p.clientsMu.Lock()
	for client := range p.clients {
		client.Close()
	}
	p.clients = make(map[ClientConnection]struct{})
	p.clientsMu.Unlock()
}
