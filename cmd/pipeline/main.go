package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"finrep/pkg/core/config"
	"finrep/pkg/core/extract"
	"finrep/pkg/core/pipeline"
	"finrep/pkg/core/store"
)

var (
	configPath string
	outPath    string
	minDate    string
	useStore   bool
)

func main() {
	// Load environment variables
	godotenv.Load()

	root := &cobra.Command{
		Use:   "pipeline",
		Short: "Reconcile financial statement filings and derive credit metrics",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/pipeline.yaml", "run configuration file (.yaml or .hjson)")
	root.PersistentFlags().StringVarP(&outPath, "out", "o", "", "override the JSON artifact path")
	root.PersistentFlags().StringVar(&minDate, "min-date", "", "override the minimum filing date (YYYY-MM-DD)")
	root.PersistentFlags().BoolVar(&useStore, "store", false, "persist reports to Postgres instead of a JSON file")

	root.AddCommand(
		&cobra.Command{
			Use:   "micro",
			Short: "Process single-file micro statements",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPipeline(cmd.Context(), func(ctx context.Context, o *pipeline.Orchestrator) (*pipeline.RunSummary, error) {
					return o.RunMicro(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "paired",
			Short: "Process two-form filings (balance sheet + income statement)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPipeline(cmd.Context(), func(ctx context.Context, o *pipeline.Orchestrator) (*pipeline.RunSummary, error) {
					return o.RunPaired(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "upload <artifact.json>",
			Short: "Upsert a previously written JSON artifact to Postgres",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return uploadArtifact(cmd.Context(), args[0])
			},
		},
	)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runPipeline(ctx context.Context, run func(context.Context, *pipeline.Orchestrator) (*pipeline.RunSummary, error)) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if minDate != "" {
		cfg.MinDate = minDate
	}
	if outPath != "" {
		cfg.Output = outPath
	}

	sink, cleanup, err := buildSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := pipeline.NewOrchestrator(cfg, extract.NewXMLExtractor(), sink)
	summary, err := run(ctx, orch)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		fmt.Printf("[PIPELINE] Completed with %d failed targets\n", summary.Failed)
	}
	return nil
}

func buildSink(ctx context.Context, cfg *config.Config) (pipeline.ReportSink, func(), error) {
	if useStore {
		if err := store.InitDB(ctx); err != nil {
			return nil, nil, err
		}
		return store.NewReportRepo(store.GetPool()), store.Close, nil
	}
	out := cfg.Output
	if out == "" {
		out = "reports.json"
	}
	return &pipeline.FileSink{Path: out}, func() {}, nil
}

func uploadArtifact(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading artifact %s: %w", path, err)
	}
	var reports []pipeline.EntityReport
	if err := json.Unmarshal(raw, &reports); err != nil {
		return fmt.Errorf("decoding artifact %s: %w", path, err)
	}

	if err := store.InitDB(ctx); err != nil {
		return err
	}
	defer store.Close()
	return store.NewReportRepo(store.GetPool()).Save(ctx, reports)
}
