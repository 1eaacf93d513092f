package domain

// PollConfig is the mutable control state of a poll.
//
// Enabled keeps one flag per question, but every transition that enables a
// question disables all the others first, so at most one flag is ever set.
// PollConfig does no locking of its own; the owner serializes access.
type PollConfig struct {
	CurrentQuestion int    `json:"currentQuestion" msgpack:"current_question"`
	Enabled         []bool `json:"enabled" msgpack:"enabled"`
	Completed       bool   `json:"completed" msgpack:"completed"`
}

// NewPollConfig returns the initial configuration for n questions
func NewPollConfig(n int) PollConfig {
	enabled := make([]bool, n)
	if n > 0 {
		enabled[0] = true
	}
	return PollConfig{
		CurrentQuestion: 0,
		Enabled:         enabled,
		Completed:       false,
	}
}

// Clone returns a deep copy
func (c PollConfig) Clone() PollConfig {
	enabled := make([]bool, len(c.Enabled))
	copy(enabled, c.Enabled)
	c.Enabled = enabled
	return c
}

// QuestionCount returns the number of questions the config covers
func (c *PollConfig) QuestionCount() int {
	return len(c.Enabled)
}

// State returns the lifecycle state
func (c *PollConfig) State() State {
	if c.Completed {
		return StateCompleted
	}
	return StateCollecting
}

// Valid reports whether the config is consistent for n questions
func (c *PollConfig) Valid(n int) bool {
	if len(c.Enabled) != n || c.CurrentQuestion < 0 || c.CurrentQuestion >= n {
		return false
	}
	enabled := 0
	for _, e := range c.Enabled {
		if e {
			enabled++
		}
	}
	return enabled <= 1
}

// IsLast reports whether the current question is the final one
func (c *PollConfig) IsLast() bool {
	return c.CurrentQuestion >= len(c.Enabled)-1
}

// Advance enables the next question and makes it current. It returns false
// without changing anything when the current question is already the last.
func (c *PollConfig) Advance() (bool, error) {
	if c.Completed {
		return false, ErrPollCompleted
	}
	if c.IsLast() {
		return false, nil
	}

	c.enableOnly(c.CurrentQuestion + 1)
	return true, nil
}

// SetCurrent enables question i and makes it current
func (c *PollConfig) SetCurrent(i int) error {
	if c.Completed {
		return ErrPollCompleted
	}
	if i < 0 || i >= len(c.Enabled) {
		return ErrInvalidIndex
	}

	c.enableOnly(i)
	return nil
}

// Complete closes submissions and reveals every question. It returns false
// when the poll was already completed.
func (c *PollConfig) Complete() bool {
	if !c.State().CanTransitionTo(StateCompleted) {
		return false
	}
	c.Completed = true
	return true
}

// Reset restores the initial configuration of a completed poll
func (c *PollConfig) Reset() error {
	if !c.State().CanTransitionTo(StateCollecting) {
		return ErrPollNotCompleted
	}
	*c = NewPollConfig(len(c.Enabled))
	return nil
}

// AcceptsSubmission checks whether an answer to question q may be recorded.
// Admins may answer disabled questions; nobody may answer once completed.
func (c *PollConfig) AcceptsSubmission(q int, isAdmin bool) error {
	if q < 0 || q >= len(c.Enabled) {
		return ErrInvalidIndex
	}
	if c.Completed {
		return ErrQuestionClosed
	}
	if !c.Enabled[q] && !isAdmin {
		return ErrQuestionClosed
	}
	return nil
}

// VisibleQuestions returns the indexes whose results the viewer may see
func (c *PollConfig) VisibleQuestions(isAdmin, viewAll bool) []int {
	if c.Completed || (isAdmin && viewAll) {
		all := make([]int, len(c.Enabled))
		for i := range all {
			all[i] = i
		}
		return all
	}
	return []int{c.CurrentQuestion}
}

// enableOnly disables every question, then enables and selects i
func (c *PollConfig) enableOnly(i int) {
	for q := range c.Enabled {
		c.Enabled[q] = false
	}
	c.Enabled[i] = true
	c.CurrentQuestion = i
}
