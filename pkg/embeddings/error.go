package embeddings

import "errors"

// ErrProviderFailure is returned when the embedding provider cannot produce a
// vector: transport errors, non-2xx responses, undecodable bodies and empty
// vectors all wrap it.
var ErrProviderFailure = errors.New("embedding provider failure")
