package domain

import "context"

// VectorEncoder turns texts into embedding vectors. Implementations may
// batch internally; batching must not change the returned vectors.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
