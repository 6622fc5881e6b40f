package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"caselaw-rag/internal/domain"

	"github.com/google/uuid"
)

const chunkInsertBatchSize = 1000

// ChunkUsecase splits every stored opinion into retrieval chunks and
// writes them back to the corpus store.
type ChunkUsecase interface {
	Execute(ctx context.Context) (int, error)
}

type chunkUsecase struct {
	store   domain.CorpusStore
	chunker *domain.Chunker
	logger  *slog.Logger
}

func NewChunkUsecase(store domain.CorpusStore, chunker *domain.Chunker, logger *slog.Logger) ChunkUsecase {
	return &chunkUsecase{
		store:   store,
		chunker: chunker,
		logger:  logger,
	}
}

func (u *chunkUsecase) Execute(ctx context.Context) (int, error) {
	opinions, err := u.store.AllOpinions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load opinions: %w", err)
	}

	u.logger.Info("chunking_started",
		slog.Int("opinion_count", len(opinions)),
		slog.Int("target_tokens", u.chunker.Config().TargetTokens),
		slog.Int("max_tokens", u.chunker.Config().MaxTokens),
		slog.Int("overlap_tokens", u.chunker.Config().OverlapTokens),
	)

	total := 0
	var pending []domain.Chunk
	for _, op := range opinions {
		chunks := u.chunker.ChunkOpinion(op)
		for i := range chunks {
			chunks[i].ID = newChunkID(op)
		}
		pending = append(pending, chunks...)
		total += len(chunks)

		if len(pending) >= chunkInsertBatchSize {
			if err := u.store.UpsertChunks(ctx, pending); err != nil {
				return 0, fmt.Errorf("failed to store chunks: %w", err)
			}
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		if err := u.store.UpsertChunks(ctx, pending); err != nil {
			return 0, fmt.Errorf("failed to store chunks: %w", err)
		}
	}

	u.logger.Info("chunking_completed", slog.Int("chunk_count", total))
	return total, nil
}

// newChunkID builds "{caseID}-{opinionID}-{rand}" where rand is the first
// 8 hex chars of a fresh UUID. The random suffix keeps re-chunking runs
// from colliding with stale rows.
func newChunkID(op domain.Opinion) string {
	suffix := uuid.NewString()
	suffix = suffix[:8]
	return fmt.Sprintf("%s-%d-%s", op.CaseID, op.ID, suffix)
}
