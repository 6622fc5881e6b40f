package domain

// OpinionKind classifies an opinion within a case.
type OpinionKind string

const (
	OpinionMajority   OpinionKind = "majority"
	OpinionDissenting OpinionKind = "dissenting"
	OpinionConcurring OpinionKind = "concurring"
	OpinionUnknown    OpinionKind = "unknown"
)

// ParseOpinionKind maps a raw opinion type string to a known kind.
func ParseOpinionKind(s string) OpinionKind {
	switch OpinionKind(s) {
	case OpinionMajority, OpinionDissenting, OpinionConcurring:
		return OpinionKind(s)
	default:
		return OpinionUnknown
	}
}

// Case is a judicial case record. The identifier is externally assigned
// (CourtListener cluster id or file stem) and stable across re-ingestion.
type Case struct {
	ID           string
	Name         string
	Citation     string
	Court        string
	Jurisdiction string
	DecisionDate string // ISO YYYY-MM-DD or empty
}

// Opinion is one opinion text belonging to a case. Text is cleaned
// (HTML stripped, whitespace collapsed) before it reaches the domain.
type Opinion struct {
	ID     int64
	CaseID string
	Kind   OpinionKind
	Text   string
}

// Chunk is the atomic retrieval unit: an overlapping token window of one
// opinion. Position is the zero-based sequence index within the opinion;
// the first OverlapTokens tokens of chunk N repeat the trailing tokens of
// chunk N-1.
type Chunk struct {
	ID          string
	CaseID      string
	OpinionKind OpinionKind
	Position    int
	Text        string
	TokenCount  int
}

// ChunkRef is the minimal (id, text) pair the index build consumes.
type ChunkRef struct {
	ID   string
	Text string
}

// RetrievedCandidate joins a similarity hit with its case metadata.
// It is query-scoped and never persisted.
type RetrievedCandidate struct {
	ChunkID      string
	CaseID       string
	Citation     string
	CaseName     string
	Court        string
	DecisionDate string
	OpinionKind  OpinionKind
	Position     int
	Text         string
	Score        float32
}
