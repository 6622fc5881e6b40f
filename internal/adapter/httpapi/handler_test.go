package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"caselaw-rag/internal/adapter/httpapi"
	"caselaw-rag/internal/domain"
	"caselaw-rag/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetrieveUsecase struct {
	candidates []domain.RetrievedCandidate
	err        error
	gotInput   usecase.RetrieveInput
}

func (s *stubRetrieveUsecase) Execute(ctx context.Context, input usecase.RetrieveInput) ([]domain.RetrievedCandidate, error) {
	s.gotInput = input
	return s.candidates, s.err
}

type stubAnswerUsecase struct {
	output   *usecase.AnswerOutput
	err      error
	gotInput usecase.AnswerInput
}

func (s *stubAnswerUsecase) Execute(ctx context.Context, input usecase.AnswerInput) (*usecase.AnswerOutput, error) {
	s.gotInput = input
	return s.output, s.err
}

type stubCourtStore struct {
	courts []string
}

func (s *stubCourtStore) UpsertCase(ctx context.Context, c domain.Case) error { return nil }
func (s *stubCourtStore) CaseExists(ctx context.Context, caseID string) (bool, error) {
	return false, nil
}
func (s *stubCourtStore) InsertOpinions(ctx context.Context, caseID string, opinions []domain.Opinion) error {
	return nil
}
func (s *stubCourtStore) AllOpinions(ctx context.Context) ([]domain.Opinion, error) { return nil, nil }
func (s *stubCourtStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	return nil
}
func (s *stubCourtStore) AllChunkRefs(ctx context.Context) ([]domain.ChunkRef, error) {
	return nil, nil
}
func (s *stubCourtStore) ChunkCount(ctx context.Context) (int, error) { return 0, nil }
func (s *stubCourtStore) CandidatesByChunkIDs(ctx context.Context, chunkIDs []string) (map[string]domain.RetrievedCandidate, error) {
	return nil, nil
}
func (s *stubCourtStore) ListCourts(ctx context.Context) ([]string, error) { return s.courts, nil }
func (s *stubCourtStore) DeleteCase(ctx context.Context, caseID string) error {
	return nil
}

func doRequest(h *httpapi.Handler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sampleCandidates() []domain.RetrievedCandidate {
	return []domain.RetrievedCandidate{
		{
			ChunkID:      "case1-1-abcd1234",
			CaseID:       "case1",
			Citation:     "5 U.S. 137",
			CaseName:     "Marbury v. Madison",
			Court:        "scotus",
			DecisionDate: "1803-02-24",
			OpinionKind:  domain.OpinionMajority,
			Position:     0,
			Text:         "It is emphatically the province of the judicial department.",
			Score:        0.91,
		},
		{
			ChunkID:      "case2-4-ef567890",
			CaseID:       "case2",
			Court:        "ca7",
			DecisionDate: "1990-01-05",
			OpinionKind:  domain.OpinionDissenting,
			Position:     2,
			Text:         "I respectfully dissent.",
			Score:        0.55,
		},
	}
}

func TestHandlerAsk(t *testing.T) {
	t.Run("returns answer with chunks", func(t *testing.T) {
		answer := &stubAnswerUsecase{output: &usecase.AnswerOutput{
			Answer: "The court held X [1].",
			Chunks: sampleCandidates(),
		}}
		h := httpapi.NewHandler(&stubRetrieveUsecase{}, answer, &stubCourtStore{}, 5)

		rec := doRequest(h, http.MethodPost, "/v1/ask", `{
			"question": "what did the court hold?",
			"top_k": 3,
			"courts": ["scotus"],
			"start_date": "1800-01-01"
		}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "The court held X [1].", resp["answer"])
		assert.Equal(t, false, resp["fallback"])

		chunks := resp["chunks"].([]any)
		require.Len(t, chunks, 2)
		first := chunks[0].(map[string]any)
		assert.Equal(t, "case1-1-abcd1234", first["chunk_id"])
		assert.Equal(t, "Marbury v. Madison", first["case_name"])
		assert.Equal(t, "majority", first["opinion_type"])

		assert.Equal(t, "what did the court hold?", answer.gotInput.Question)
		assert.Equal(t, 3, answer.gotInput.TopK)
		assert.Equal(t, []string{"scotus"}, answer.gotInput.Courts)
		assert.Equal(t, "1800-01-01", answer.gotInput.StartDate)
	})

	t.Run("fallback carries the reason", func(t *testing.T) {
		answer := &stubAnswerUsecase{output: &usecase.AnswerOutput{
			Chunks:   sampleCandidates(),
			Fallback: true,
			Reason:   "generation failed: connection refused",
		}}
		h := httpapi.NewHandler(&stubRetrieveUsecase{}, answer, &stubCourtStore{}, 5)

		rec := doRequest(h, http.MethodPost, "/v1/ask", `{"question": "q"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["fallback"])
		assert.Contains(t, resp["reason"], "connection refused")
	})

	t.Run("missing question is a 400", func(t *testing.T) {
		h := httpapi.NewHandler(&stubRetrieveUsecase{}, &stubAnswerUsecase{}, &stubCourtStore{}, 5)
		rec := doRequest(h, http.MethodPost, "/v1/ask", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unbuilt index is a 503", func(t *testing.T) {
		answer := &stubAnswerUsecase{err: domain.ErrIndexNotBuilt}
		h := httpapi.NewHandler(&stubRetrieveUsecase{}, answer, &stubCourtStore{}, 5)
		rec := doRequest(h, http.MethodPost, "/v1/ask", `{"question": "q"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandlerSearch(t *testing.T) {
	t.Run("caps results at top k", func(t *testing.T) {
		retrieve := &stubRetrieveUsecase{candidates: sampleCandidates()}
		h := httpapi.NewHandler(retrieve, &stubAnswerUsecase{}, &stubCourtStore{}, 5)

		rec := doRequest(h, http.MethodPost, "/v1/search", `{"query": "judicial review", "top_k": 1}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		chunks := resp["chunks"].([]any)
		require.Len(t, chunks, 1)
		assert.Equal(t, "judicial review", retrieve.gotInput.Query)
	})

	t.Run("missing query is a 400", func(t *testing.T) {
		h := httpapi.NewHandler(&stubRetrieveUsecase{}, &stubAnswerUsecase{}, &stubCourtStore{}, 5)
		rec := doRequest(h, http.MethodPost, "/v1/search", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlerCourts(t *testing.T) {
	t.Run("lists distinct courts", func(t *testing.T) {
		h := httpapi.NewHandler(&stubRetrieveUsecase{}, &stubAnswerUsecase{}, &stubCourtStore{courts: []string{"ca7", "scotus"}}, 5)
		rec := doRequest(h, http.MethodGet, "/v1/courts", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string][]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"ca7", "scotus"}, resp["courts"])
	})

	t.Run("empty corpus yields empty list, not null", func(t *testing.T) {
		h := httpapi.NewHandler(&stubRetrieveUsecase{}, &stubAnswerUsecase{}, &stubCourtStore{}, 5)
		rec := doRequest(h, http.MethodGet, "/v1/courts", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"courts": []}`, rec.Body.String())
	})
}
