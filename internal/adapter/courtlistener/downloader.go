package courtlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"caselaw-rag/internal/domain"
)

// DefaultCourts is the federal court set fetched when none is given:
// the Supreme Court plus the eleven numbered circuits.
var DefaultCourts = []string{
	"scotus",
	"ca1", "ca2", "ca3", "ca4", "ca5",
	"ca6", "ca7", "ca8", "ca9", "ca10", "ca11",
}

const minFetchedOpinionChars = 500

// rawCaseFile mirrors the JSON layout the ingest pipeline reads.
type rawCaseFile struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	NameAbbrev   string     `json:"name_abbreviation"`
	Citations    []citation `json:"citations"`
	Court        named      `json:"court"`
	Jurisdiction named      `json:"jurisdiction"`
	DecisionDate string     `json:"decision_date"`
	Casebody     casebody   `json:"casebody"`
}

type citation struct {
	Cite string `json:"cite"`
}

type named struct {
	Name string `json:"name"`
}

type casebody struct {
	Opinions []caseOpinion `json:"opinions"`
}

type caseOpinion struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Downloader pulls opinions court by court and writes one normalized JSON
// file per case. Re-runs skip case ids already on disk.
type Downloader struct {
	client *Client
	logger *slog.Logger
}

func NewDownloader(client *Client, logger *slog.Logger) *Downloader {
	return &Downloader{client: client, logger: logger}
}

// Download fetches up to nCases opinions across the given courts into
// outDir. It returns the number of new files written.
func (d *Downloader) Download(ctx context.Context, courts []string, nCases int, outDir string) (int, error) {
	if len(courts) == 0 {
		courts = DefaultCourts
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	seen, err := existingCaseIDs(outDir)
	if err != nil {
		return 0, err
	}

	d.logger.Info("courtlistener_download_started",
		slog.Int("target_cases", nCases),
		slog.Int("existing_cases", len(seen)),
		slog.Int("court_count", len(courts)),
	)

	perCourt := nCases / len(courts)
	if perCourt < 1 {
		perCourt = 1
	}

	saved := 0
	for _, court := range courts {
		if saved >= nCases {
			break
		}

		opinions, err := d.client.OpinionsByCourt(ctx, court, perCourt)
		if err != nil {
			// One court failing should not sink the whole run.
			d.logger.Warn("courtlistener_court_failed",
				slog.String("court", court),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, op := range opinions {
			if saved >= nCases {
				break
			}
			if err := ctx.Err(); err != nil {
				return saved, err
			}

			caseID := fmt.Sprintf("cl-%d", op.ID)
			if op.ID == 0 || seen[caseID] {
				continue
			}

			record, err := d.normalize(ctx, caseID, court, op)
			if err != nil {
				d.logger.Warn("courtlistener_case_skipped",
					slog.String("case_id", caseID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if record == nil {
				continue
			}

			if err := writeCaseFile(outDir, caseID, record); err != nil {
				return saved, err
			}
			seen[caseID] = true
			saved++
		}
	}

	d.logger.Info("courtlistener_download_completed", slog.Int("saved", saved))
	return saved, nil
}

// normalize resolves cluster and docket metadata and shapes one raw case
// record. A nil record with nil error means the opinion was too short.
func (d *Downloader) normalize(ctx context.Context, caseID, court string, op Opinion) (*rawCaseFile, error) {
	text := op.HTMLWithCitations
	if text == "" {
		text = op.PlainText
	}
	text = domain.CleanText(text)
	if len(text) < minFetchedOpinionChars {
		return nil, nil
	}
	if op.Cluster == "" {
		return nil, fmt.Errorf("opinion has no cluster")
	}

	cluster, err := d.client.ClusterDetails(ctx, op.Cluster)
	if err != nil {
		return nil, err
	}

	courtName := court
	if cluster.Docket != "" {
		if docket, err := d.client.DocketDetails(ctx, cluster.Docket); err == nil && docket.CourtID != "" {
			courtName = docket.CourtID
		}
	}

	var cite string
	if len(cluster.Citations) > 0 {
		cite = cluster.Citations[0].Cite
	}

	nameAbbrev := cluster.CaseNameShort
	if nameAbbrev == "" {
		nameAbbrev = truncate(cluster.CaseName, 100)
	}

	return &rawCaseFile{
		ID:           caseID,
		Name:         cluster.CaseName,
		NameAbbrev:   nameAbbrev,
		Citations:    []citation{{Cite: cite}},
		Court:        named{Name: courtName},
		Jurisdiction: named{Name: "United States"},
		DecisionDate: cluster.DateFiled,
		Casebody: casebody{
			Opinions: []caseOpinion{{Type: normalizeOpinionType(op.Type), Text: text}},
		},
	}, nil
}

// normalizeOpinionType maps CourtListener's coded types ("040dissent") to
// the kinds the corpus uses.
func normalizeOpinionType(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "dissent"):
		return string(domain.OpinionDissenting)
	case strings.Contains(lower, "concur"):
		return string(domain.OpinionConcurring)
	default:
		return string(domain.OpinionMajority)
	}
}

func existingCaseIDs(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output dir: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		seen[strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))] = true
	}
	return seen, nil
}

func writeCaseFile(dir, caseID string, record *rawCaseFile) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal case %s: %w", caseID, err)
	}
	path := filepath.Join(dir, caseID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write case file: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
