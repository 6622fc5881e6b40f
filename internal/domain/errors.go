package domain

import "errors"

var (
	// ErrEmptyCorpus is returned when an index build finds no chunks.
	// No partial artifact is written.
	ErrEmptyCorpus = errors.New("no chunks in corpus: run ingest and chunk first")

	// ErrIndexNotBuilt is returned when a search runs before any index
	// artifact exists on disk. Callers surface it with the corrective
	// instruction to run a build.
	ErrIndexNotBuilt = errors.New("vector index not built: run build first")
)
