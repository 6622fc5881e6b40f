// Package retrieval holds the post-search stages that arrange raw
// similarity hits into the context handed to the generator.
package retrieval

import "caselaw-rag/internal/domain"

// FilterOptions narrows retrieved candidates by court and decision date.
// Zero values mean no constraint on that axis.
type FilterOptions struct {
	Courts    []string
	StartDate string // inclusive, YYYY-MM-DD
	EndDate   string // inclusive, YYYY-MM-DD
}

// Filter drops candidates that fail the court or date constraints,
// preserving the input order. Court names match by exact equality.
// Candidates without a decision date pass any date constraint.
func Filter(candidates []domain.RetrievedCandidate, opts FilterOptions) []domain.RetrievedCandidate {
	var courtSet map[string]struct{}
	if len(opts.Courts) > 0 {
		courtSet = make(map[string]struct{}, len(opts.Courts))
		for _, c := range opts.Courts {
			courtSet[c] = struct{}{}
		}
	}

	filtered := make([]domain.RetrievedCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if courtSet != nil {
			if _, ok := courtSet[cand.Court]; !ok {
				continue
			}
		}
		if !withinDateRange(cand.DecisionDate, opts.StartDate, opts.EndDate) {
			continue
		}
		filtered = append(filtered, cand)
	}
	return filtered
}

// withinDateRange compares ISO dates lexicographically, which orders the
// same as chronological for YYYY-MM-DD strings.
func withinDateRange(decisionDate, startDate, endDate string) bool {
	if decisionDate == "" {
		return true
	}
	if startDate != "" && decisionDate < startDate {
		return false
	}
	if endDate != "" && decisionDate > endDate {
		return false
	}
	return true
}

// Budget caps candidates to the first n, keeping order. A non-positive n
// returns an empty slice.
func Budget(candidates []domain.RetrievedCandidate, n int) []domain.RetrievedCandidate {
	if n <= 0 {
		return nil
	}
	if len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
