package usecase

import (
	"fmt"
	"strings"
)

// PromptBuilder renders the generation prompt from a question and the
// retrieved context chunks.
type PromptBuilder interface {
	Build(question string, contextChunks []string) (string, error)
}

// LegalPromptBuilder numbers each context chunk so the model can cite
// sources as [1], [2] in its answer.
type LegalPromptBuilder struct {
	additionalRules []string
}

// NewLegalPromptBuilder creates a prompt builder with optional extra rules
// appended to the standard set.
func NewLegalPromptBuilder(additionalRules ...string) PromptBuilder {
	return &LegalPromptBuilder{additionalRules: additionalRules}
}

func (b *LegalPromptBuilder) Build(question string, contextChunks []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question is required")
	}

	rules := []string{
		"Base your answer strictly on the provided context",
		"Cite cases by number (e.g., [1], [2]) when making claims",
		"If the context doesn't contain enough information, say so",
		"Be precise and legally accurate",
	}
	rules = append(rules, b.additionalRules...)

	var sb strings.Builder
	sb.WriteString("You are a legal research assistant. Answer questions using ONLY the provided case excerpts.\n\n")
	sb.WriteString("RULES:\n")
	for _, rule := range rules {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	sb.WriteString("\nCONTEXT FROM RETRIEVED CASES:\n")
	for i, chunk := range contextChunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, chunk))
	}
	sb.WriteString("\n\nQUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nANSWER:")

	return sb.String(), nil
}
