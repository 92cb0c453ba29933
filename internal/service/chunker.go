package service

import (
	"fmt"
	"strings"

	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// Default word window parameters.
const (
	DefaultChunkSize    = 900
	DefaultChunkOverlap = 150
)

// Chunker splits text into overlapping word windows.
type Chunker struct {
	maxWords int
	overlap  int
}

// NewChunker validates the window parameters: maxWords > 0 and 0 <= overlap < maxWords.
func NewChunker(maxWords, overlap int) (*Chunker, error) {
	if maxWords <= 0 || overlap < 0 || overlap >= maxWords {
		return nil, fmt.Errorf("%w: maxWords=%d overlap=%d", port.ErrInvalidChunking, maxWords, overlap)
	}
	return &Chunker{maxWords: maxWords, overlap: overlap}, nil
}

// MaxWords returns the window size.
func (c *Chunker) MaxWords() int { return c.maxWords }

// Overlap returns the number of words shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns windows of up to maxWords whitespace separated words, each
// starting maxWords-overlap words after the previous one. The last window is
// the first one that reaches the end of the text.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.maxWords - c.overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + c.maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
