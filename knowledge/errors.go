package knowledge

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrUnknownStrategy is returned for a retrieval strategy the store does not implement.
	ErrUnknownStrategy = errors.New("unknown retrieval strategy")

	// ErrBatchFailed is returned when a batch of vector records could not be uploaded.
	ErrBatchFailed = errors.New("batch upload failed")

	// ErrEmbeddingMismatch is returned when the embedder returns the wrong
	// number of vectors or vectors of the wrong dimension.
	ErrEmbeddingMismatch = errors.New("embedding does not match collection")
)
