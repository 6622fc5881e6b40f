package domain

import "context"

// SearchHit is one ranked result from the vector index: a chunk id and its
// inner-product score against the query embedding.
type SearchHit struct {
	ChunkID string
	Score   float32
}

// VectorSearcher runs similarity queries against the persisted index
// artifact. Search returns at most k hits in descending score order, ties
// broken by ascending index row. It returns ErrIndexNotBuilt when no
// artifact exists.
type VectorSearcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchHit, error)
}
