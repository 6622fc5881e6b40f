package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"caselaw-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	hits  []domain.SearchHit
	err   error
	gotK  int
	gotQs []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	f.gotK = k
	f.gotQs = append(f.gotQs, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

type fakeMetaStore struct {
	meta map[string]domain.RetrievedCandidate
	err  error
}

func (f *fakeMetaStore) UpsertCase(ctx context.Context, c domain.Case) error { return nil }
func (f *fakeMetaStore) CaseExists(ctx context.Context, caseID string) (bool, error) {
	return false, nil
}
func (f *fakeMetaStore) InsertOpinions(ctx context.Context, caseID string, opinions []domain.Opinion) error {
	return nil
}
func (f *fakeMetaStore) AllOpinions(ctx context.Context) ([]domain.Opinion, error) { return nil, nil }
func (f *fakeMetaStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	return nil
}
func (f *fakeMetaStore) AllChunkRefs(ctx context.Context) ([]domain.ChunkRef, error) {
	return nil, nil
}
func (f *fakeMetaStore) ChunkCount(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeMetaStore) CandidatesByChunkIDs(ctx context.Context, chunkIDs []string) (map[string]domain.RetrievedCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.RetrievedCandidate)
	for _, id := range chunkIDs {
		if cand, ok := f.meta[id]; ok {
			out[id] = cand
		}
	}
	return out, nil
}
func (f *fakeMetaStore) ListCourts(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeMetaStore) DeleteCase(ctx context.Context, caseID string) error {
	return nil
}

type fakeLLM struct {
	resp      *domain.LLMResponse
	err       error
	gotPrompt string
	calls     int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	f.calls++
	f.gotPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeLLM) Version() string { return "fake-llm" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func answerFixture() (*fakeSearcher, *fakeMetaStore, *fakeLLM) {
	searcher := &fakeSearcher{
		hits: []domain.SearchHit{
			{ChunkID: "c1", Score: 0.9},
			{ChunkID: "c2", Score: 0.8},
			{ChunkID: "c3", Score: 0.7},
		},
	}
	store := &fakeMetaStore{
		meta: map[string]domain.RetrievedCandidate{
			"c1": {ChunkID: "c1", CaseID: "case-1", Court: "Supreme Court of Illinois", DecisionDate: "1998-03-02", Text: "holding one"},
			"c2": {ChunkID: "c2", CaseID: "case-2", Court: "Appellate Court of Illinois", DecisionDate: "2001-07-19", Text: "holding two"},
			"c3": {ChunkID: "c3", CaseID: "case-3", Court: "Supreme Court of Illinois", DecisionDate: "2004-11-30", Text: "holding three"},
		},
	}
	llm := &fakeLLM{resp: &domain.LLMResponse{Text: "The court held X [1].", Done: true}}
	return searcher, store, llm
}

func newTestAnswerUsecase(searcher *fakeSearcher, store *fakeMetaStore, llm *fakeLLM, topK, budget int) AnswerUsecase {
	retrieve := NewRetrieveUsecase(searcher, store, topK, budget, discardLogger())
	return NewAnswerUsecase(retrieve, NewLegalPromptBuilder(), llm, topK, budget, 512, discardLogger())
}

func TestAnswerUsecaseExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("question is required", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)
		_, err := u.Execute(ctx, AnswerInput{Question: "  "})
		require.Error(t, err)
		assert.Zero(t, llm.calls)
	})

	t.Run("returns answer with scored chunks", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)

		out, err := u.Execute(ctx, AnswerInput{Question: "what was held?"})
		require.NoError(t, err)

		assert.False(t, out.Fallback)
		assert.Equal(t, "The court held X [1].", out.Answer)
		require.Len(t, out.Chunks, 3)
		assert.Equal(t, "c1", out.Chunks[0].ChunkID)
		assert.InDelta(t, 0.9, float64(out.Chunks[0].Score), 1e-6)
		assert.Contains(t, llm.gotPrompt, "[1] holding one")
		assert.Contains(t, llm.gotPrompt, "[3] holding three")
	})

	t.Run("over-fetches past both caps", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)
		_, err := u.Execute(ctx, AnswerInput{Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, 16, searcher.gotK)

		u = newTestAnswerUsecase(searcher, store, llm, 40, 8)
		_, err = u.Execute(ctx, AnswerInput{Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, 40, searcher.gotK)
	})

	t.Run("court filter applies before both caps", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		u := newTestAnswerUsecase(searcher, store, llm, 1, 8)

		out, err := u.Execute(ctx, AnswerInput{
			Question: "q",
			Courts:   []string{"Supreme Court of Illinois"},
		})
		require.NoError(t, err)

		require.Len(t, out.Chunks, 1)
		assert.Equal(t, "c1", out.Chunks[0].ChunkID)
		assert.Contains(t, llm.gotPrompt, "holding one")
		assert.Contains(t, llm.gotPrompt, "holding three")
		assert.NotContains(t, llm.gotPrompt, "holding two")
	})

	t.Run("prompt budget and display cap are independent", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		u := newTestAnswerUsecase(searcher, store, llm, 3, 2)

		out, err := u.Execute(ctx, AnswerInput{Question: "q"})
		require.NoError(t, err)

		assert.Len(t, out.Chunks, 3)
		assert.Contains(t, llm.gotPrompt, "holding two")
		assert.NotContains(t, llm.gotPrompt, "holding three")
	})

	t.Run("stale chunk ids are dropped silently", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		delete(store.meta, "c2")
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)

		out, err := u.Execute(ctx, AnswerInput{Question: "q"})
		require.NoError(t, err)
		require.Len(t, out.Chunks, 2)
		assert.Equal(t, "c1", out.Chunks[0].ChunkID)
		assert.Equal(t, "c3", out.Chunks[1].ChunkID)
	})

	t.Run("no retrieved context still generates", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		searcher.hits = nil
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)

		out, err := u.Execute(ctx, AnswerInput{Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, 1, llm.calls)
		assert.Empty(t, out.Chunks)
		assert.False(t, out.Fallback)
	})

	t.Run("index not built surfaces as error", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		searcher.err = domain.ErrIndexNotBuilt
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)

		_, err := u.Execute(ctx, AnswerInput{Question: "q"})
		require.ErrorIs(t, err, domain.ErrIndexNotBuilt)
	})

	t.Run("generation failure becomes fallback, not error", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		llm.err = errors.New("connection refused")
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)

		out, err := u.Execute(ctx, AnswerInput{Question: "q"})
		require.NoError(t, err)

		assert.True(t, out.Fallback)
		assert.Contains(t, out.Reason, "connection refused")
		assert.Empty(t, out.Answer)
		assert.Len(t, out.Chunks, 3)
	})

	t.Run("blank model response becomes fallback", func(t *testing.T) {
		searcher, store, llm := answerFixture()
		llm.resp = &domain.LLMResponse{Text: "   ", Done: true}
		u := newTestAnswerUsecase(searcher, store, llm, 5, 8)

		out, err := u.Execute(ctx, AnswerInput{Question: "q"})
		require.NoError(t, err)
		assert.True(t, out.Fallback)
		assert.Equal(t, "empty model response", out.Reason)
	})
}
