package domain

import "time"

// Theme is one of the fixed topical tags attached to a case study.
type Theme string

const (
	ThemeAI   Theme = "AI"
	ThemeUXUI Theme = "UX/UI"
	ThemeWeb3 Theme = "Web3"
)

// AllThemes lists the recognised themes in canonical order.
var AllThemes = []Theme{ThemeAI, ThemeUXUI, ThemeWeb3}

// Valid reports whether t is one of the recognised themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeAI, ThemeUXUI, ThemeWeb3:
		return true
	}
	return false
}

// Chunk is a contiguous word window of a document body together with its embedding.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Document is one ingested case study.
type Document struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Themes  []Theme `json:"themes"`
	Summary string  `json:"summary"`
	Chunks  []Chunk `json:"chunks"`
}

// HasAnyTheme reports whether the document carries at least one of the given themes.
func (d *Document) HasAnyTheme(filter []Theme) bool {
	for _, want := range filter {
		for _, have := range d.Themes {
			if have == want {
				return true
			}
		}
	}
	return false
}

// IndexMeta describes how a VectorIndex was built.
type IndexMeta struct {
	BuiltAt    time.Time `json:"builtAt"`
	EmbedModel string    `json:"embedModel"`
	Dims       int       `json:"dims"`
	ChunkSize  int       `json:"chunkSize"`
	Overlap    int       `json:"overlap"`
}

// VectorIndex is the persisted artifact produced by ingest and loaded by the server.
// Once loaded it is never mutated.
type VectorIndex struct {
	Meta IndexMeta  `json:"meta"`
	Docs []Document `json:"docs"`
}

// ChunkCount returns the total number of chunks across all documents.
func (v *VectorIndex) ChunkCount() int {
	n := 0
	for i := range v.Docs {
		n += len(v.Docs[i].Chunks)
	}
	return n
}

// RawDocument is one scraped record fed into the index builder.
type RawDocument struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ScoredChunk is a retrieval hit. Document and Chunk point into the loaded index.
type ScoredChunk struct {
	Document *Document
	Chunk    *Chunk
	Score    float64
}

// AnswerMode selects how the answer composer responds.
type AnswerMode string

const (
	ModeAnswer  AnswerMode = ""
	ModeSummary AnswerMode = "summary"
)

// Source is a citation returned with an answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AskRequest is a question with optional theme filters and answer mode.
type AskRequest struct {
	Question string
	Filters  []Theme
	Mode     AnswerMode
}

// AskResponse is the composed answer.
type AskResponse struct {
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Degraded bool     `json:"degraded,omitempty"`
}

// DocSummary is the light catalog view of a document (no chunks).
type DocSummary struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Themes  []Theme `json:"themes"`
	Summary string  `json:"summary"`
}
