package repository

import (
	"context"
	"fmt"

	"caselaw-rag/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type corpusRepository struct {
	pool *pgxpool.Pool
}

// NewCorpusRepository creates the Postgres-backed corpus store.
func NewCorpusRepository(pool *pgxpool.Pool) domain.CorpusStore {
	return &corpusRepository{pool: pool}
}

type dbExecutor interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (r *corpusRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

func (r *corpusRepository) UpsertCase(ctx context.Context, c domain.Case) error {
	query := `
		INSERT INTO cases (case_id, name, citation, court, jurisdiction, decision_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_id) DO UPDATE SET
			name = EXCLUDED.name,
			citation = EXCLUDED.citation,
			court = EXCLUDED.court,
			jurisdiction = EXCLUDED.jurisdiction,
			decision_date = EXCLUDED.decision_date
	`
	_, err := r.getExecutor(ctx).Exec(ctx, query,
		c.ID, c.Name, c.Citation, c.Court, c.Jurisdiction, c.DecisionDate)
	if err != nil {
		return fmt.Errorf("failed to upsert case: %w", err)
	}
	return nil
}

func (r *corpusRepository) CaseExists(ctx context.Context, caseID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM cases WHERE case_id = $1)`
	if err := r.getExecutor(ctx).QueryRow(ctx, query, caseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check case existence: %w", err)
	}
	return exists, nil
}

func (r *corpusRepository) InsertOpinions(ctx context.Context, caseID string, opinions []domain.Opinion) error {
	if len(opinions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, op := range opinions {
		batch.Queue(
			`INSERT INTO opinions (case_id, opinion_type, text) VALUES ($1, $2, $3)`,
			caseID, string(op.Kind), op.Text,
		)
	}
	results := r.getExecutor(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for range opinions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert opinion: %w", err)
		}
	}
	return nil
}

func (r *corpusRepository) AllOpinions(ctx context.Context) ([]domain.Opinion, error) {
	query := `
		SELECT opinion_id, case_id, opinion_type, text
		FROM opinions
		ORDER BY opinion_id ASC
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query opinions: %w", err)
	}
	defer rows.Close()

	var opinions []domain.Opinion
	for rows.Next() {
		var op domain.Opinion
		var kind string
		if err := rows.Scan(&op.ID, &op.CaseID, &kind, &op.Text); err != nil {
			return nil, fmt.Errorf("failed to scan opinion: %w", err)
		}
		op.Kind = domain.OpinionKind(kind)
		opinions = append(opinions, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return opinions, nil
}

func (r *corpusRepository) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
			INSERT INTO chunks (chunk_id, case_id, opinion_type, position, text, token_count)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (chunk_id) DO UPDATE SET
				case_id = EXCLUDED.case_id,
				opinion_type = EXCLUDED.opinion_type,
				position = EXCLUDED.position,
				text = EXCLUDED.text,
				token_count = EXCLUDED.token_count
		`, c.ID, c.CaseID, string(c.OpinionKind), c.Position, c.Text, c.TokenCount)
	}
	results := r.getExecutor(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert chunk: %w", err)
		}
	}
	return nil
}

func (r *corpusRepository) AllChunkRefs(ctx context.Context) ([]domain.ChunkRef, error) {
	query := `SELECT chunk_id, text FROM chunks ORDER BY chunk_id ASC`
	rows, err := r.getExecutor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk refs: %w", err)
	}
	defer rows.Close()

	var refs []domain.ChunkRef
	for rows.Next() {
		var ref domain.ChunkRef
		if err := rows.Scan(&ref.ID, &ref.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return refs, nil
}

func (r *corpusRepository) ChunkCount(ctx context.Context) (int, error) {
	var count int
	if err := r.getExecutor(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

func (r *corpusRepository) CandidatesByChunkIDs(ctx context.Context, chunkIDs []string) (map[string]domain.RetrievedCandidate, error) {
	if len(chunkIDs) == 0 {
		return map[string]domain.RetrievedCandidate{}, nil
	}

	query := `
		SELECT chunks.chunk_id, chunks.case_id, cases.citation, cases.name,
		       cases.court, cases.decision_date, chunks.opinion_type,
		       chunks.position, chunks.text
		FROM chunks
		JOIN cases ON chunks.case_id = cases.case_id
		WHERE chunks.chunk_id = ANY($1)
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := make(map[string]domain.RetrievedCandidate, len(chunkIDs))
	for rows.Next() {
		var cand domain.RetrievedCandidate
		var kind string
		if err := rows.Scan(&cand.ChunkID, &cand.CaseID, &cand.Citation, &cand.CaseName,
			&cand.Court, &cand.DecisionDate, &kind, &cand.Position, &cand.Text); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		cand.OpinionKind = domain.OpinionKind(kind)
		candidates[cand.ChunkID] = cand
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return candidates, nil
}

func (r *corpusRepository) ListCourts(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT court FROM cases WHERE court <> '' ORDER BY court ASC`
	rows, err := r.getExecutor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts: %w", err)
	}
	defer rows.Close()

	var courts []string
	for rows.Next() {
		var court string
		if err := rows.Scan(&court); err != nil {
			return nil, fmt.Errorf("failed to scan court: %w", err)
		}
		courts = append(courts, court)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return courts, nil
}

func (r *corpusRepository) DeleteCase(ctx context.Context, caseID string) error {
	// Opinions and chunks go with it via ON DELETE CASCADE.
	_, err := r.getExecutor(ctx).Exec(ctx, `DELETE FROM cases WHERE case_id = $1`, caseID)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return nil
}

var _ domain.CorpusStore = (*corpusRepository)(nil)
