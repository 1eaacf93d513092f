package domain

import "time"

// EventType represents the type of poll event
type EventType string

const (
	EventAnswerSubmitted EventType = "ANSWER_SUBMITTED"
	EventQuestionChanged EventType = "QUESTION_CHANGED"
	EventPollCompleted   EventType = "POLL_COMPLETED"
	EventPollReset       EventType = "POLL_RESET"
	EventViewChanged     EventType = "VIEW_CHANGED"
)

// PollEvent represents something that changed what viewers should see
type PollEvent struct {
	Type      EventType `json:"type"`
	PollID    string    `json:"pollId"`
	SessionID string    `json:"sessionId,omitempty"` // If event concerns one session only
	Question  int       `json:"question"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates a new poll-wide event
func NewEvent(eventType EventType, pollID string, question int) *PollEvent {
	return &PollEvent{
		Type:      eventType,
		PollID:    pollID,
		Question:  question,
		Timestamp: time.Now(),
	}
}

// NewSessionEvent creates an event that only concerns one session
func NewSessionEvent(eventType EventType, pollID, sessionID string) *PollEvent {
	return &PollEvent{
		Type:      eventType,
		PollID:    pollID,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// QuestionView is the aggregated result of one question
type QuestionView struct {
	Index   int            `json:"index"`
	Prompt  string         `json:"prompt"`
	Enabled bool           `json:"enabled"`
	Counts  map[string]int `json:"counts"`
	Top     []WordCount    `json:"top"`
	Total   int            `json:"total"`
	Unique  int            `json:"unique"`
}

// PollView is everything a viewer is entitled to see
type PollView struct {
	PollID          string         `json:"pollId"`
	State           State          `json:"state"`
	CurrentQuestion Question       `json:"currentQuestion"`
	QuestionCount   int            `json:"questionCount"`
	Enabled         []bool         `json:"enabled"`
	Session         SessionInfo    `json:"session"`
	Questions       []QuestionView `json:"questions"`
}

// SubmitReason explains why a submission was not accepted
type SubmitReason string

const (
	ReasonNone           SubmitReason = ""
	ReasonQuestionClosed SubmitReason = "QUESTION_CLOSED"
	ReasonEmptyInput     SubmitReason = "EMPTY_INPUT"
)

// SubmitResult is the outcome of a submission
type SubmitResult struct {
	Accepted   bool         `json:"accepted"`
	WordsAdded int          `json:"wordsAdded"`
	Reason     SubmitReason `json:"reason,omitempty"`
	Message    string       `json:"message"`
}

// Status is the outcome of an admin operation
type Status struct {
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}

// ViewUpdate is pushed to a client after an event, with the client's own view
type ViewUpdate struct {
	Event *PollEvent `json:"event"`
	View  PollView   `json:"view"`
}
