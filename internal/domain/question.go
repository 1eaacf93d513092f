package domain

import "strings"

// Question is one fixed prompt of the poll
type Question struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

// NewQuestions builds the question list from prompts, skipping blank ones
func NewQuestions(prompts []string) ([]Question, error) {
	questions := make([]Question, 0, len(prompts))
	for _, p := range prompts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		questions = append(questions, Question{Index: len(questions), Prompt: p})
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}
