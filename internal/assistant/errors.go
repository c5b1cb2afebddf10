package assistant

import "errors"

// Sentinel errors returned by Answer. Callers map them to transport-level
// responses with errors.Is.
var (
	// ErrEmptyQuestion means the question was empty after trimming. Nothing
	// was embedded, retrieved, or committed.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmbedding means the embedding provider could not vectorize the
	// question.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrieval means the similarity search or the entry lookup failed.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration means the language model failed or timed out, including
	// the automatic retry.
	ErrGeneration = errors.New("answer generation failed")
)
