package chroma

// chromaCollection represents a Chroma collection response.
type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// chromaCreateCollectionRequest is the request body for creating a collection.
type chromaCreateCollectionRequest struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// chromaUpsertRequest is the request body for adding or replacing records.
type chromaUpsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas,omitempty"`
	Documents  []string         `json:"documents,omitempty"`
}

// chromaQueryRequest is the request body for querying.
type chromaQueryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

// chromaQueryResponse is the response from a query.
type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float32        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Documents [][]string         `json:"documents"`
}

// chromaGetRequest is the request body for getting records by filter.
type chromaGetRequest struct {
	Where   map[string]any `json:"where,omitempty"`
	Include []string       `json:"include"`
}

// chromaGetResponse is the response from getting records.
type chromaGetResponse struct {
	IDs []string `json:"ids"`
}

// chromaDeleteRequest is the request body for deleting records.
type chromaDeleteRequest struct {
	Where map[string]any `json:"where"`
}
