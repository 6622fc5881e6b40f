package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"caselaw-rag/internal/domain"
	"caselaw-rag/internal/usecase/retrieval"
)

// AnswerInput carries one legal question plus its retrieval constraints.
// Zero TopK falls back to the configured default.
type AnswerInput struct {
	Question  string
	TopK      int
	Courts    []string
	StartDate string
	EndDate   string
}

// AnswerOutput is the normalized result returned to API clients. When
// generation cannot produce an answer the output carries Fallback=true with
// a reason instead of an error; retrieval results are still returned.
type AnswerOutput struct {
	Answer   string
	Chunks   []domain.RetrievedCandidate
	Fallback bool
	Reason   string
}

// AnswerUsecase runs the full retrieve-filter-generate pipeline.
type AnswerUsecase interface {
	Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error)
}

type answerUsecase struct {
	retrieve      RetrieveUsecase
	promptBuilder PromptBuilder
	llmClient     domain.LLMClient
	defaultTopK   int
	contextBudget int
	maxTokens     int
	logger        *slog.Logger
}

func NewAnswerUsecase(
	retrieve RetrieveUsecase,
	promptBuilder PromptBuilder,
	llmClient domain.LLMClient,
	defaultTopK, contextBudget, maxTokens int,
	logger *slog.Logger,
) AnswerUsecase {
	return &answerUsecase{
		retrieve:      retrieve,
		promptBuilder: promptBuilder,
		llmClient:     llmClient,
		defaultTopK:   defaultTopK,
		contextBudget: contextBudget,
		maxTokens:     maxTokens,
		logger:        logger,
	}
}

func (u *answerUsecase) Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = u.defaultTopK
	}

	candidates, err := u.retrieve.Execute(ctx, RetrieveInput{
		Query:     input.Question,
		TopK:      topK,
		Courts:    input.Courts,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	})
	if err != nil {
		return nil, err
	}

	// The prompt gets up to contextBudget chunks; the response surfaces up
	// to topK. The two caps are independent.
	promptChunks := retrieval.Budget(candidates, u.contextBudget)
	displayChunks := retrieval.Budget(candidates, topK)

	contextTexts := make([]string, len(promptChunks))
	for i, c := range promptChunks {
		contextTexts[i] = c.Text
	}

	prompt, err := u.promptBuilder.Build(input.Question, contextTexts)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	llmResp, err := u.llmClient.Generate(ctx, prompt, u.maxTokens)
	if err != nil {
		u.logger.Warn("answer_generation_failed",
			slog.String("error", err.Error()),
			slog.Int("context_count", len(promptChunks)),
		)
		return fallbackOutput(displayChunks, fmt.Sprintf("generation failed: %v", err)), nil
	}
	if llmResp == nil || strings.TrimSpace(llmResp.Text) == "" {
		u.logger.Warn("answer_generation_empty",
			slog.Int("context_count", len(promptChunks)),
		)
		return fallbackOutput(displayChunks, "empty model response"), nil
	}

	return &AnswerOutput{
		Answer: strings.TrimSpace(llmResp.Text),
		Chunks: displayChunks,
	}, nil
}

func fallbackOutput(chunks []domain.RetrievedCandidate, reason string) *AnswerOutput {
	return &AnswerOutput{
		Chunks:   chunks,
		Fallback: true,
		Reason:   reason,
	}
}

var _ AnswerUsecase = (*answerUsecase)(nil)
