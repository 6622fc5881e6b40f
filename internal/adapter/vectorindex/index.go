// Package vectorindex implements the flat inner-product similarity index
// over chunk embeddings, persisted as a pair of artifact files: the vector
// matrix and a parallel array mapping row order to chunk ids. The pair is
// rebuilt wholesale; it is never updated incrementally.
package vectorindex

import (
	"fmt"
	"math"
	"sort"

	"caselaw-rag/internal/domain"
)

// Index is an ordered collection of unit-normalized embeddings plus the
// row→chunk-id map. Rows are append-only during build and read-only after.
type Index struct {
	Dim     int
	Vectors []float32 // flat row-major matrix, len = Dim * len(IDs)
	IDs     []string
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	return &Index{Dim: dim}, nil
}

// Add appends one embedding and its chunk id. The vector is unit-normalized
// in place before it is stored.
func (ix *Index) Add(id string, vec []float32) error {
	if len(vec) != ix.Dim {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vec), ix.Dim)
	}
	Normalize(vec)
	ix.Vectors = append(ix.Vectors, vec...)
	ix.IDs = append(ix.IDs, id)
	return nil
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	return len(ix.IDs)
}

// Search scans all rows and returns up to k hits ordered by descending
// inner product, ties broken by ascending row. The query is normalized
// first, so scores are cosine similarities.
func (ix *Index) Search(query []float32, k int) ([]domain.SearchHit, error) {
	if len(query) != ix.Dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(query), ix.Dim)
	}
	if k <= 0 || ix.Len() == 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	Normalize(q)

	type scoredRow struct {
		row   int
		score float32
	}
	scored := make([]scoredRow, ix.Len())
	for row := 0; row < ix.Len(); row++ {
		offset := row * ix.Dim
		var dot float32
		for i, v := range q {
			dot += v * ix.Vectors[offset+i]
		}
		scored[row] = scoredRow{row: row, score: dot}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].row < scored[j].row
	})

	if k > len(scored) {
		k = len(scored)
	}
	hits := make([]domain.SearchHit, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.SearchHit{ChunkID: ix.IDs[scored[i].row], Score: scored[i].score}
	}
	return hits, nil
}

// Normalize scales vec to unit L2 norm in place. Zero vectors are left
// untouched.
func Normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}
