package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"caselaw-rag/internal/domain"

	"golang.org/x/sync/errgroup"
)

// nameField accepts either a bare string or an object with a "name" key,
// both of which appear in raw case JSON.
type nameField string

func (n *nameField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = nameField(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*n = nameField(obj.Name)
	return nil
}

type rawOpinion struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type rawCase struct {
	ID               json.Number `json:"id"`
	Name             string      `json:"name"`
	NameAbbreviation string      `json:"name_abbreviation"`
	Citation         string      `json:"citation"`
	Citations        []struct {
		Cite string `json:"cite"`
	} `json:"citations"`
	Court        nameField `json:"court"`
	Jurisdiction nameField `json:"jurisdiction"`
	DecisionDate string    `json:"decision_date"`
	Casebody     struct {
		Opinions []rawOpinion `json:"opinions"`
	} `json:"casebody"`
}

func (r *rawCase) caseID(path string) string {
	if r.ID.String() != "" {
		return r.ID.String()
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (r *rawCase) caseName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.NameAbbreviation
}

func (r *rawCase) primaryCitation() string {
	if len(r.Citations) > 0 {
		return r.Citations[0].Cite
	}
	return r.Citation
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	FilesSeen    int
	CasesStored  int
	CasesSkipped int
	Opinions     int
}

// IngestUsecase loads raw JSON case files into the corpus store. Ingestion
// is idempotent: cases already stored are skipped.
type IngestUsecase interface {
	Execute(ctx context.Context, rawDir string) (*IngestResult, error)
}

type ingestUsecase struct {
	store            domain.CorpusStore
	txManager        domain.TransactionManager
	minOpinionLength int
	parallelism      int
	logger           *slog.Logger
}

func NewIngestUsecase(store domain.CorpusStore, txManager domain.TransactionManager, minOpinionLength, parallelism int, logger *slog.Logger) IngestUsecase {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &ingestUsecase{
		store:            store,
		txManager:        txManager,
		minOpinionLength: minOpinionLength,
		parallelism:      parallelism,
		logger:           logger,
	}
}

type parsedCase struct {
	meta     domain.Case
	opinions []domain.Opinion
}

func (u *ingestUsecase) Execute(ctx context.Context, rawDir string) (*IngestResult, error) {
	var files []string
	err := filepath.WalkDir(rawDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan raw case dir: %w", err)
	}

	u.logger.Info("ingest_started",
		slog.Int("file_count", len(files)),
		slog.String("dir", rawDir),
	)

	// Parsing and cleaning run concurrently; writes stay on this goroutine
	// so store access is sequential.
	parsed := make([]*parsedCase, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.parallelism)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pc, err := u.parseFile(path)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			parsed[i] = pc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &IngestResult{FilesSeen: len(files)}
	for _, pc := range parsed {
		if len(pc.opinions) == 0 {
			result.CasesSkipped++
			continue
		}
		exists, err := u.store.CaseExists(ctx, pc.meta.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check case %s: %w", pc.meta.ID, err)
		}
		if exists {
			result.CasesSkipped++
			continue
		}
		// A case and its opinions land together or not at all.
		err = u.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if err := u.store.UpsertCase(txCtx, pc.meta); err != nil {
				return fmt.Errorf("failed to store case %s: %w", pc.meta.ID, err)
			}
			if err := u.store.InsertOpinions(txCtx, pc.meta.ID, pc.opinions); err != nil {
				return fmt.Errorf("failed to store opinions for case %s: %w", pc.meta.ID, err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		result.CasesStored++
		result.Opinions += len(pc.opinions)
	}

	u.logger.Info("ingest_completed",
		slog.Int("cases_stored", result.CasesStored),
		slog.Int("cases_skipped", result.CasesSkipped),
		slog.Int("opinion_count", result.Opinions),
	)

	return result, nil
}

func (u *ingestUsecase) parseFile(path string) (*parsedCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw rawCase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var opinions []domain.Opinion
	for _, op := range raw.Casebody.Opinions {
		text := domain.CleanText(op.Text)
		if len(text) < u.minOpinionLength {
			continue
		}
		opinions = append(opinions, domain.Opinion{
			Kind: domain.ParseOpinionKind(op.Type),
			Text: text,
		})
	}

	return &parsedCase{
		meta: domain.Case{
			ID:           raw.caseID(path),
			Name:         raw.caseName(),
			Citation:     raw.primaryCitation(),
			Court:        string(raw.Court),
			Jurisdiction: string(raw.Jurisdiction),
			DecisionDate: raw.DecisionDate,
		},
		opinions: opinions,
	}, nil
}
