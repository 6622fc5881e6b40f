package domain

import "context"

// CorpusStore is the narrow read/write interface over the persisted
// case/opinion/chunk tables. Writes are idempotent upserts keyed by the
// stable identifiers; deletes cascade from the case.
type CorpusStore interface {
	UpsertCase(ctx context.Context, c Case) error
	CaseExists(ctx context.Context, caseID string) (bool, error)
	InsertOpinions(ctx context.Context, caseID string, opinions []Opinion) error
	AllOpinions(ctx context.Context) ([]Opinion, error)

	UpsertChunks(ctx context.Context, chunks []Chunk) error
	// AllChunkRefs returns every chunk's (id, text), ordered by chunk id so
	// index builds are deterministic for a given corpus.
	AllChunkRefs(ctx context.Context) ([]ChunkRef, error)
	ChunkCount(ctx context.Context) (int, error)

	// CandidatesByChunkIDs joins chunk ids against case metadata. IDs with
	// no matching row are simply absent from the result.
	CandidatesByChunkIDs(ctx context.Context, chunkIDs []string) (map[string]RetrievedCandidate, error)

	ListCourts(ctx context.Context) ([]string, error)
	DeleteCase(ctx context.Context, caseID string) error
}

// TransactionManager runs fn inside a storage transaction. Store methods
// called with the ctx passed to fn join that transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
