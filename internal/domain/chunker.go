package domain

import "strings"

// ChunkingConfig carries the token budgets for the chunker. OverlapTokens
// must stay below TargetTokens; a larger overlap re-emits nearly identical
// consecutive chunks. The chunker does not enforce this.
type ChunkingConfig struct {
	TargetTokens  int
	MaxTokens     int
	OverlapTokens int
}

// Chunker splits cleaned opinion text into overlapping, sentence-respecting
// token windows. It is a pure function of its inputs.
type Chunker struct {
	cfg ChunkingConfig
}

// NewChunker creates a chunker with the given token budgets.
func NewChunker(cfg ChunkingConfig) *Chunker {
	return &Chunker{cfg: cfg}
}

// Config returns the chunker's token budgets.
func (c *Chunker) Config() ChunkingConfig {
	return c.cfg
}

// Tokenize splits text on whitespace. A token is roughly a word; no
// normalization or sub-word splitting is applied.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// ChunkText splits text into chunks of roughly TargetTokens tokens,
// flushing early when the next sentence segment would push the buffer past
// MaxTokens. Each chunk after the first starts with the trailing
// OverlapTokens tokens of its predecessor. A single segment longer than
// MaxTokens is emitted whole rather than split mid-sentence.
func (c *Chunker) ChunkText(text string) []string {
	segments := SplitSegments(text)

	var chunks []string
	var buf []string

	for _, seg := range segments {
		tokens := Tokenize(seg)

		if len(buf) > 0 && len(buf)+len(tokens) > c.cfg.MaxTokens {
			// Flush before the segment that would overflow.
			chunks = append(chunks, strings.Join(buf, " "))
			buf = append(c.overlapTail(buf), tokens...)
		} else {
			buf = append(buf, tokens...)
		}

		if len(buf) >= c.cfg.TargetTokens {
			// Target reached: flush including the segment that got us here.
			chunks = append(chunks, strings.Join(buf, " "))
			buf = c.overlapTail(buf)
		}
	}

	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, " "))
	}

	out := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if ch != "" {
			out = append(out, ch)
		}
	}
	return out
}

// ChunkOpinion runs ChunkText over an opinion and wraps the results with
// position and token count. Chunk IDs are assigned by the caller.
func (c *Chunker) ChunkOpinion(op Opinion) []Chunk {
	texts := c.ChunkText(op.Text)
	chunks := make([]Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, Chunk{
			CaseID:      op.CaseID,
			OpinionKind: op.Kind,
			Position:    i,
			Text:        text,
			TokenCount:  len(Tokenize(text)),
		})
	}
	return chunks
}

// overlapTail copies the last OverlapTokens tokens of buf into a fresh
// slice, seeding the next chunk. The copy matters: the flushed buffer must
// not alias the next one.
func (c *Chunker) overlapTail(buf []string) []string {
	n := c.cfg.OverlapTokens
	if n <= 0 {
		return nil
	}
	if n > len(buf) {
		n = len(buf)
	}
	tail := make([]string, n, len(buf))
	copy(tail, buf[len(buf)-n:])
	return tail
}
