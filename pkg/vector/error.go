package vector

import "errors"

var (
	// ErrEmptyInput is returned when there are no vectors to aggregate.
	ErrEmptyInput = errors.New("no vectors to aggregate")

	// ErrDimensionMismatch is returned when vectors of differing lengths are
	// combined, or a vector does not match the configured dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
