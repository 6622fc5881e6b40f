// Package httpapi exposes the retrieval pipeline over HTTP.
package httpapi

import (
	"errors"
	"net/http"

	"caselaw-rag/internal/domain"
	"caselaw-rag/internal/usecase"
	"caselaw-rag/internal/usecase/retrieval"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	retrieveUsecase usecase.RetrieveUsecase
	answerUsecase   usecase.AnswerUsecase
	store           domain.CorpusStore
	defaultTopK     int
}

func NewHandler(
	retrieveUsecase usecase.RetrieveUsecase,
	answerUsecase usecase.AnswerUsecase,
	store domain.CorpusStore,
	defaultTopK int,
) *Handler {
	return &Handler{
		retrieveUsecase: retrieveUsecase,
		answerUsecase:   answerUsecase,
		store:           store,
		defaultTopK:     defaultTopK,
	}
}

// RegisterRoutes attaches the API surface to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/ask", h.Ask)
	e.POST("/v1/search", h.Search)
	e.GET("/v1/courts", h.Courts)
}

type askRequest struct {
	Question  string   `json:"question"`
	TopK      int      `json:"top_k"`
	Courts    []string `json:"courts"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

type searchRequest struct {
	Query     string   `json:"query"`
	TopK      int      `json:"top_k"`
	Courts    []string `json:"courts"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

type chunkResponse struct {
	ChunkID      string  `json:"chunk_id"`
	CaseID       string  `json:"case_id"`
	Citation     string  `json:"citation"`
	CaseName     string  `json:"case_name"`
	Court        string  `json:"court"`
	DecisionDate string  `json:"decision_date"`
	OpinionType  string  `json:"opinion_type"`
	Position     int     `json:"position"`
	Text         string  `json:"text"`
	Score        float32 `json:"score"`
}

type askResponse struct {
	Answer   string          `json:"answer"`
	Chunks   []chunkResponse `json:"chunks"`
	Fallback bool            `json:"fallback"`
	Reason   string          `json:"reason,omitempty"`
}

type searchResponse struct {
	Chunks []chunkResponse `json:"chunks"`
}

type courtsResponse struct {
	Courts []string `json:"courts"`
}

// Ask answers a legal question grounded in retrieved case excerpts.
// (POST /v1/ask)
func (h *Handler) Ask(ctx echo.Context) error {
	var req askRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Question == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	output, err := h.answerUsecase.Execute(ctx.Request().Context(), usecase.AnswerInput{
		Question:  req.Question,
		TopK:      req.TopK,
		Courts:    req.Courts,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, askResponse{
		Answer:   output.Answer,
		Chunks:   toChunkResponses(output.Chunks),
		Fallback: output.Fallback,
		Reason:   output.Reason,
	})
}

// Search retrieves matching case chunks without generation.
// (POST /v1/search)
func (h *Handler) Search(ctx echo.Context) error {
	var req searchRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	candidates, err := h.retrieveUsecase.Execute(ctx.Request().Context(), usecase.RetrieveInput{
		Query:     req.Query,
		TopK:      req.TopK,
		Courts:    req.Courts,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		return errorResponse(ctx, err)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.defaultTopK
	}

	return ctx.JSON(http.StatusOK, searchResponse{
		Chunks: toChunkResponses(retrieval.Budget(candidates, topK)),
	})
}

// Courts lists the distinct courts present in the corpus.
// (GET /v1/courts)
func (h *Handler) Courts(ctx echo.Context) error {
	courts, err := h.store.ListCourts(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if courts == nil {
		courts = []string{}
	}
	return ctx.JSON(http.StatusOK, courtsResponse{Courts: courts})
}

func errorResponse(ctx echo.Context, err error) error {
	if errors.Is(err, domain.ErrIndexNotBuilt) || errors.Is(err, domain.ErrEmptyCorpus) {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func toChunkResponses(candidates []domain.RetrievedCandidate) []chunkResponse {
	chunks := make([]chunkResponse, 0, len(candidates))
	for _, c := range candidates {
		chunks = append(chunks, chunkResponse{
			ChunkID:      c.ChunkID,
			CaseID:       c.CaseID,
			Citation:     c.Citation,
			CaseName:     c.CaseName,
			Court:        c.Court,
			DecisionDate: c.DecisionDate,
			OpinionType:  string(c.OpinionKind),
			Position:     c.Position,
			Text:         c.Text,
			Score:        c.Score,
		})
	}
	return chunks
}
