package app

import (
	"errors"

	"wordpoll/internal/domain"
)

// ErrRendererUnavailable is returned when no image renderer is configured
var ErrRendererUnavailable = errors.New("word cloud renderer not configured")

// Renderer turns word frequencies into an image
type Renderer interface {
	Render(counts map[string]int) ([]byte, error)
	ContentType() string
}

// RenderQuestion renders question q if the session may see its results
func (p *Poll) RenderQuestion(sess *domain.Session, q int) ([]byte, string, error) {
	if p.renderer == nil {
		return nil, "", ErrRendererUnavailable
	}

	p.mu.RLock()
	if q < 0 || q >= len(p.questions) {
		p.mu.RUnlock()
		return nil, "", domain.ErrInvalidIndex
	}
	visible := false
	for _, v := range p.config.VisibleQuestions(sess.IsAdmin(), sess.ViewAll()) {
		if v == q {
			visible = true
			break
		}
	}
	counts := p.bags[q].Counts()
	p.mu.RUnlock()

	if !visible {
		return nil, "", domain.ErrUnauthorized
	}

	img, err := p.renderer.Render(counts)
	if err != nil {
		return nil, "", err
	}
	return img, p.renderer.ContentType(), nil
}
