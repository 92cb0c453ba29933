package port

import (
	"fmt"
	"strings"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
)

// Tagger assigns themes to a case study from its text.
type Tagger interface {
	// Themes returns at least one theme for text.
	Themes(text string) []domain.Theme
}

// Summarizer produces a short extractive summary for a case study.
type Summarizer interface {
	Summarize(title, body string) string
}

// ParseTheme maps a user supplied label to a Theme. Matching is exact after
// trimming surrounding whitespace.
func ParseTheme(s string) (domain.Theme, error) {
	t := domain.Theme(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
	return t, nil
}

// ParseThemes parses every label in order. Nil input yields nil.
func ParseThemes(labels []string) ([]domain.Theme, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	out := make([]domain.Theme, 0, len(labels))
	for _, l := range labels {
		t, err := ParseTheme(l)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseMode maps "" or "summary" to an AnswerMode.
func ParseMode(s string) (domain.AnswerMode, error) {
	switch m := domain.AnswerMode(strings.TrimSpace(s)); m {
	case domain.ModeAnswer, domain.ModeSummary:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
