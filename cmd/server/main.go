package main

import (
	"context"
	"log/slog"
	"os"

	"caselaw-rag/internal/adapter/httpapi"
	"caselaw-rag/internal/di"
	"caselaw-rag/internal/infra"
	"caselaw-rag/internal/infra/config"
	"caselaw-rag/internal/infra/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New()
	slog.SetDefault(log)

	ctx := context.Background()

	pool, err := infra.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	components, err := di.NewApplicationComponents(cfg, pool, log)
	if err != nil {
		log.Error("failed to build components", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler := httpapi.NewHandler(
		components.RetrieveUsecase,
		components.AnswerUsecase,
		components.Store,
		cfg.DefaultTopK,
	)

	if err := httpapi.Serve(handler, pool, cfg.Port, log); err != nil {
		log.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
