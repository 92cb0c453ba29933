package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrInvalidChunking      = errors.New("invalid chunking parameters")
	ErrNoRawDocuments       = errors.New("no raw documents")
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	ErrInvalidEmbedding     = errors.New("invalid embedding response")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
	ErrIndexNotFound        = errors.New("index not found")
	ErrMalformedIndex       = errors.New("malformed index")
	ErrEmptyQuestion        = errors.New("question is required")
	ErrUnknownTheme         = errors.New("unknown theme")
	ErrUnknownMode          = errors.New("unknown mode")
	ErrGeneratorUnavailable = errors.New("generator unavailable")
)

// IsValidation reports whether err is caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrUnknownTheme) ||
		errors.Is(err, ErrUnknownMode)
}
