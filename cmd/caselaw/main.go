// caselaw is the operator CLI for the case-law retrieval pipeline:
// fetch raw cases, ingest them, chunk opinions, build the vector index,
// and query the result.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"caselaw-rag/internal/adapter/httpapi"
	"caselaw-rag/internal/adapter/repository"
	"caselaw-rag/internal/di"
	"caselaw-rag/internal/infra"
	"caselaw-rag/internal/infra/config"
	"caselaw-rag/internal/infra/logger"
	"caselaw-rag/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg        *config.Config
	log        *slog.Logger
	pool       *pgxpool.Pool
	components *di.ApplicationComponents
}

// newApp connects to the database and wires the component graph.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	log := logger.New()
	slog.SetDefault(log)

	pool, err := infra.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	components, err := di.NewApplicationComponents(cfg, pool, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, pool: pool, components: components}, nil
}

func (a *app) close() {
	a.pool.Close()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "caselaw",
		Short:         "Legal case retrieval pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newFetchCmd(),
		newIngestCmd(),
		newChunkCmd(),
		newBuildCmd(),
		newQueryCmd(),
		newAskCmd(),
		newServeCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the corpus database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := repository.Migrate(cmd.Context(), a.pool); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}

func newFetchCmd() *cobra.Command {
	var nCases int
	var courts []string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download cases from CourtListener into the raw case dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.CourtListenerToken == "" {
				return fmt.Errorf("COURTLISTENER_TOKEN is required for fetch")
			}

			saved, err := a.components.Downloader.Download(cmd.Context(), courts, nCases, a.cfg.RawCaseDir)
			if err != nil {
				return err
			}
			fmt.Printf("downloaded %d cases to %s\n", saved, a.cfg.RawCaseDir)
			return nil
		},
	}
	cmd.Flags().IntVar(&nCases, "n-cases", 300, "number of cases to download")
	cmd.Flags().StringSliceVar(&courts, "courts", nil, "court ids to fetch (default: scotus + circuits)")
	return cmd
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Load raw JSON case files into the corpus store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.components.IngestUsecase.Execute(cmd.Context(), a.cfg.RawCaseDir)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d cases (%d opinions), skipped %d\n",
				result.CasesStored, result.Opinions, result.CasesSkipped)
			return nil
		},
	}
}

func newChunkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chunk",
		Short: "Split stored opinions into retrieval chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			total, err := a.components.ChunkUsecase.Execute(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("created %d chunks\n", total)
			return nil
		},
	}
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Embed all chunks and write the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			count, err := a.components.IndexBuilder.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d chunks into %s\n", count, a.cfg.VectorDir)
			return nil
		},
	}
}

func retrievalFlags(cmd *cobra.Command, topK *int, courts *[]string, startDate, endDate *string) {
	cmd.Flags().IntVar(topK, "top-k", 0, "number of chunks to return (default from config)")
	cmd.Flags().StringSliceVar(courts, "courts", nil, "restrict to these courts")
	cmd.Flags().StringVar(startDate, "start-date", "", "minimum decision date (YYYY-MM-DD)")
	cmd.Flags().StringVar(endDate, "end-date", "", "maximum decision date (YYYY-MM-DD)")
}

func newQueryCmd() *cobra.Command {
	var topK int
	var courts []string
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Retrieve matching chunks without generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			candidates, err := a.components.RetrieveUsecase.Execute(cmd.Context(), usecase.RetrieveInput{
				Query:     strings.Join(args, " "),
				TopK:      topK,
				Courts:    courts,
				StartDate: startDate,
				EndDate:   endDate,
			})
			if err != nil {
				return err
			}

			k := topK
			if k <= 0 {
				k = a.cfg.DefaultTopK
			}
			if len(candidates) > k {
				candidates = candidates[:k]
			}

			for i, c := range candidates {
				fmt.Printf("[%d] %.4f %s, %s (%s, %s)\n",
					i+1, c.Score, c.CaseName, c.Citation, c.Court, c.DecisionDate)
				fmt.Printf("    %s\n", excerpt(c.Text, 200))
			}
			return nil
		},
	}
	retrievalFlags(cmd, &topK, &courts, &startDate, &endDate)
	return cmd
}

func newAskCmd() *cobra.Command {
	var topK int
	var courts []string
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a legal question grounded in retrieved cases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			output, err := a.components.AnswerUsecase.Execute(cmd.Context(), usecase.AnswerInput{
				Question:  strings.Join(args, " "),
				TopK:      topK,
				Courts:    courts,
				StartDate: startDate,
				EndDate:   endDate,
			})
			if err != nil {
				return err
			}

			if output.Fallback {
				fmt.Printf("no answer: %s\n", output.Reason)
			} else {
				fmt.Println(output.Answer)
			}

			if len(output.Chunks) > 0 {
				fmt.Println("\nSources:")
				for i, c := range output.Chunks {
					fmt.Printf("[%d] %s, %s (%s, %s)\n",
						i+1, c.CaseName, c.Citation, c.Court, c.DecisionDate)
				}
			}
			return nil
		},
	}
	retrievalFlags(cmd, &topK, &courts, &startDate, &endDate)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			handler := httpapi.NewHandler(
				a.components.RetrieveUsecase,
				a.components.AnswerUsecase,
				a.components.Store,
				a.cfg.DefaultTopK,
			)
			return httpapi.Serve(handler, a.pool, a.cfg.Port, a.log)
		},
	}
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
