package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

var (
	outcomeWords = regexp.MustCompile(`(?i)\b(result|outcome|deliver|implemented|launched|improved|increase|reduce)\b`)
	domainWords  = regexp.MustCompile(`(?i)\b(ai|ml|web3|ux|ui|design|prototype|rag|agent|automation)\b`)
)

// ExtractiveSummarizer picks the highest scoring sentences of "title. body".
// It is deterministic and needs no model.
type ExtractiveSummarizer struct {
	sentences int
}

var _ port.Summarizer = (*ExtractiveSummarizer)(nil)

// NewExtractiveSummarizer returns a summarizer keeping two sentences.
func NewExtractiveSummarizer() *ExtractiveSummarizer {
	return &ExtractiveSummarizer{sentences: 2}
}

func (s *ExtractiveSummarizer) Summarize(title, body string) string {
	text := strings.Join(strings.Fields(title+". "+body), " ")
	sents := splitSentences(text)

	// stable so equal scores keep reading order
	sort.SliceStable(sents, func(i, j int) bool {
		return sentenceScore(sents[i]) > sentenceScore(sents[j])
	})
	if len(sents) > s.sentences {
		sents = sents[:s.sentences]
	}
	return strings.Join(sents, " ")
}

func sentenceScore(s string) float64 {
	score := 0.0
	if outcomeWords.MatchString(s) {
		score += 2
	}
	if domainWords.MatchString(s) {
		score++
	}
	return score + math.Min(float64(len(s))/120, 1)
}

// splitSentences cuts single-space separated text after '.', '!' or '?'.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' || i == 0 {
			continue
		}
		switch text[i-1] {
		case '.', '!', '?':
			if s := text[start:i]; s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := text[start:]; s != "" {
		out = append(out, s)
	}
	return out
}
