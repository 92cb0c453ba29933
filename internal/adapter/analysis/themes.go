package analysis

import (
	"regexp"
	"strings"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

type themeRule struct {
	theme domain.Theme
	re    *regexp.Regexp
}

// Rules are checked in this order and the result keeps it.
var themeRules = []themeRule{
	{domain.ThemeWeb3, regexp.MustCompile(`\b(blockchain|smart contract|web3|wallet|token|solidity|evm)\b`)},
	{domain.ThemeAI, regexp.MustCompile(`\b(ai|ml|machine learning|gpt|llm|rag|embedding|computer vision)\b`)},
	{domain.ThemeUXUI, regexp.MustCompile(`\b(ux|ui|design|wireframe|prototype|usability|accessibility|figma)\b`)},
}

// KeywordTagger tags case studies by keyword matching on lowercased text.
type KeywordTagger struct {
	fallback domain.Theme
}

var _ port.Tagger = (*KeywordTagger)(nil)

// NewKeywordTagger returns a tagger that falls back to UX/UI when nothing matches.
func NewKeywordTagger() *KeywordTagger {
	return &KeywordTagger{fallback: domain.ThemeUXUI}
}

func (k *KeywordTagger) Themes(text string) []domain.Theme {
	t := strings.ToLower(text)
	var out []domain.Theme
	for _, r := range themeRules {
		if r.re.MatchString(t) {
			out = append(out, r.theme)
		}
	}
	if len(out) == 0 {
		out = append(out, k.fallback)
	}
	return out
}
