package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"caselaw-rag/internal/domain"
)

// Builder rebuilds the persisted index artifact from the full current chunk
// set. A build is an exclusive offline operation: it must not run while a
// process is querying the same artifact directory.
type Builder struct {
	store     domain.CorpusStore
	encoder   domain.VectorEncoder
	dir       string
	batchSize int
	logger    *slog.Logger
}

// NewBuilder wires a builder over the corpus store and the embedding
// service. batchSize only affects throughput, never results.
func NewBuilder(store domain.CorpusStore, encoder domain.VectorEncoder, dir string, batchSize int, logger *slog.Logger) *Builder {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Builder{store: store, encoder: encoder, dir: dir, batchSize: batchSize, logger: logger}
}

// Build embeds every chunk and replaces the artifact pair wholesale. It
// returns domain.ErrEmptyCorpus when no chunks exist; nothing is written in
// that case. Re-running with the same corpus and embedder is idempotent.
func (b *Builder) Build(ctx context.Context) (int, error) {
	refs, err := b.store.AllChunkRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(refs) == 0 {
		return 0, domain.ErrEmptyCorpus
	}

	b.logger.Info("index_build_started",
		slog.Int("chunk_count", len(refs)),
		slog.String("embedder", b.encoder.Version()),
	)
	start := time.Now()

	var ix *Index
	for lo := 0; lo < len(refs); lo += b.batchSize {
		hi := lo + b.batchSize
		if hi > len(refs) {
			hi = len(refs)
		}

		texts := make([]string, 0, hi-lo)
		for _, ref := range refs[lo:hi] {
			texts = append(texts, ref.Text)
		}

		vectors, err := b.encoder.Encode(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to encode batch at %d: %w", lo, err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("encoder returned %d vectors for %d texts", len(vectors), len(texts))
		}

		if ix == nil {
			ix, err = NewIndex(len(vectors[0]))
			if err != nil {
				return 0, err
			}
		}
		for i, vec := range vectors {
			if err := ix.Add(refs[lo+i].ID, vec); err != nil {
				return 0, err
			}
		}

		b.logger.Debug("index_build_progress", slog.Int("encoded", hi), slog.Int("total", len(refs)))
	}

	if err := Save(b.dir, ix); err != nil {
		return 0, fmt.Errorf("failed to persist index: %w", err)
	}

	b.logger.Info("index_build_completed",
		slog.Int("vector_count", ix.Len()),
		slog.Int("dimension", ix.Dim),
		slog.String("dir", b.dir),
		slog.Duration("elapsed", time.Since(start)),
	)
	return ix.Len(), nil
}
