package port

import "context"

// Embedder turns text into fixed-dimension vectors.
// Implementations can target Ollama, OpenAI, or any compatible API.
type Embedder interface {
	// ModelName returns the identifier of the embedding model.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one embedding per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer grounded in the supplied context text.
type Generator interface {
	// ModelName returns the identifier of the generation model.
	ModelName() string

	// Generate answers question using only contextText.
	Generate(ctx context.Context, question, contextText string) (string, error)
}
