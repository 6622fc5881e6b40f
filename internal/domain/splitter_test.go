package domain_test

import (
	"testing"

	"caselaw-rag/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestSplitSegments(t *testing.T) {
	t.Run("Splits on period before uppercase", func(t *testing.T) {
		segs := domain.SplitSegments("The court erred. The judgment is reversed.")
		assert.Equal(t, []string{"The court erred.", "The judgment is reversed."}, segs)
	})

	t.Run("Splits on question and exclamation marks", func(t *testing.T) {
		segs := domain.SplitSegments("Was there consent? No. Objection sustained!")
		assert.Equal(t, []string{"Was there consent?", "No.", "Objection sustained!"}, segs)
	})

	t.Run("No split before lowercase", func(t *testing.T) {
		segs := domain.SplitSegments("See 42 U.S.C. sec. 1983 for details.")
		assert.Equal(t, []string{"See 42 U.S.C. sec. 1983 for details."}, segs)
	})

	t.Run("Abbreviations before uppercase still split", func(t *testing.T) {
		// Accepted imprecision of the heuristic: "v." followed by a
		// capitalized party name reads as a sentence boundary.
		segs := domain.SplitSegments("U.S. v. Smith controls here.")
		assert.Equal(t, []string{"U.S. v.", "Smith controls here."}, segs)
	})

	t.Run("Whitespace run is consumed", func(t *testing.T) {
		segs := domain.SplitSegments("First point.\n\n  Second point.")
		assert.Equal(t, []string{"First point.", "Second point."}, segs)
	})

	t.Run("Empty input", func(t *testing.T) {
		assert.Empty(t, domain.SplitSegments(""))
	})

	t.Run("Trailing punctuation without successor", func(t *testing.T) {
		segs := domain.SplitSegments("The end.")
		assert.Equal(t, []string{"The end."}, segs)
	})
}
