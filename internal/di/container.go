// Package di wires the application graph from config and the database pool.
package di

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"caselaw-rag/internal/adapter/courtlistener"
	"caselaw-rag/internal/adapter/ollama"
	"caselaw-rag/internal/adapter/repository"
	"caselaw-rag/internal/adapter/vectorindex"
	"caselaw-rag/internal/domain"
	"caselaw-rag/internal/infra/config"
	"caselaw-rag/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Store     domain.CorpusStore
	TxManager domain.TransactionManager

	Embedder  domain.VectorEncoder
	Generator domain.LLMClient

	IndexBuilder *vectorindex.Builder
	Searcher     *vectorindex.Searcher

	Downloader *courtlistener.Downloader

	IngestUsecase   usecase.IngestUsecase
	ChunkUsecase    usecase.ChunkUsecase
	RetrieveUsecase usecase.RetrieveUsecase
	AnswerUsecase   usecase.AnswerUsecase
}

// NewApplicationComponents wires all dependencies.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	store := repository.NewCorpusRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	embedder := ollama.NewEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, cfg.EmbedTimeoutSeconds, log)
	generator := ollama.NewGenerator(cfg.OllamaURL, cfg.GenerationModel, cfg.GenerateTimeoutSeconds, log)

	indexBuilder := vectorindex.NewBuilder(store, embedder, cfg.VectorDir, cfg.EmbedBatchSize, log)
	searcher, err := vectorindex.NewSearcher(embedder, cfg.VectorDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create searcher: %w", err)
	}

	clClient := courtlistener.NewClient(cfg.CourtListenerURL, cfg.CourtListenerToken, log)
	downloader := courtlistener.NewDownloader(clClient, log)

	chunker := domain.NewChunker(domain.ChunkingConfig{
		TargetTokens:  cfg.ChunkTargetTokens,
		MaxTokens:     cfg.ChunkMaxTokens,
		OverlapTokens: cfg.ChunkOverlap,
	})

	ingestUsecase := usecase.NewIngestUsecase(store, txManager, cfg.MinOpinionLength, 4, log)
	chunkUsecase := usecase.NewChunkUsecase(store, chunker, log)
	retrieveUsecase := usecase.NewRetrieveUsecase(searcher, store, cfg.DefaultTopK, cfg.MaxContextChunks, log)
	answerUsecase := usecase.NewAnswerUsecase(
		retrieveUsecase,
		usecase.NewLegalPromptBuilder(),
		generator,
		cfg.DefaultTopK,
		cfg.MaxContextChunks,
		cfg.MaxGenerationTokens,
		log,
	)

	return &ApplicationComponents{
		Store:           store,
		TxManager:       txManager,
		Embedder:        embedder,
		Generator:       generator,
		IndexBuilder:    indexBuilder,
		Searcher:        searcher,
		Downloader:      downloader,
		IngestUsecase:   ingestUsecase,
		ChunkUsecase:    chunkUsecase,
		RetrieveUsecase: retrieveUsecase,
		AnswerUsecase:   answerUsecase,
	}, nil
}
