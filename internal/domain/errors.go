package domain

import "errors"

// Domain errors
var (
	ErrUnauthorized     = errors.New("admin authentication required")
	ErrInvalidIndex     = errors.New("question index out of range")
	ErrQuestionClosed   = errors.New("question is not accepting submissions")
	ErrPollCompleted    = errors.New("poll is already completed")
	ErrPollNotCompleted = errors.New("poll has not been completed")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidToken     = errors.New("invalid session token")
	ErrNoQuestions      = errors.New("poll needs at least one question")
)
