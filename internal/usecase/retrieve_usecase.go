package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"caselaw-rag/internal/domain"
	"caselaw-rag/internal/usecase/retrieval"
)

// RetrieveInput carries a query plus retrieval constraints. Zero TopK
// falls back to the configured default.
type RetrieveInput struct {
	Query     string
	TopK      int
	Courts    []string
	StartDate string
	EndDate   string
}

// RetrieveUsecase runs similarity search, joins hits against case
// metadata, and applies court/date filtering. Results come back in score
// order, unbounded by TopK: callers cap with retrieval.Budget so the
// prompt and display caps can differ.
type RetrieveUsecase interface {
	Execute(ctx context.Context, input RetrieveInput) ([]domain.RetrievedCandidate, error)
}

type retrieveUsecase struct {
	searcher      domain.VectorSearcher
	store         domain.CorpusStore
	defaultTopK   int
	contextBudget int
	logger        *slog.Logger
}

func NewRetrieveUsecase(
	searcher domain.VectorSearcher,
	store domain.CorpusStore,
	defaultTopK, contextBudget int,
	logger *slog.Logger,
) RetrieveUsecase {
	return &retrieveUsecase{
		searcher:      searcher,
		store:         store,
		defaultTopK:   defaultTopK,
		contextBudget: contextBudget,
		logger:        logger,
	}
}

func (u *retrieveUsecase) Execute(ctx context.Context, input RetrieveInput) ([]domain.RetrievedCandidate, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = u.defaultTopK
	}

	// Over-fetch past both caps so filtering leaves enough candidates.
	fetchK := topK
	if budget := u.contextBudget * 2; budget > fetchK {
		fetchK = budget
	}

	hits, err := u.searcher.Search(ctx, input.Query, fetchK)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotBuilt) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	chunkIDs := make([]string, len(hits))
	for i, h := range hits {
		chunkIDs[i] = h.ChunkID
	}

	meta, err := u.store.CandidatesByChunkIDs(ctx, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk metadata: %w", err)
	}

	candidates := make([]domain.RetrievedCandidate, 0, len(hits))
	stale := 0
	for _, h := range hits {
		cand, ok := meta[h.ChunkID]
		if !ok {
			// Index entry no longer present in the corpus store.
			stale++
			continue
		}
		cand.Score = h.Score
		candidates = append(candidates, cand)
	}
	if stale > 0 {
		u.logger.Warn("stale_chunk_ids_dropped",
			slog.Int("stale_count", stale),
			slog.Int("hit_count", len(hits)),
		)
	}

	return retrieval.Filter(candidates, retrieval.FilterOptions{
		Courts:    input.Courts,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}), nil
}

var _ RetrieveUsecase = (*retrieveUsecase)(nil)
