package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gosurv/adapters/excel"
	"gosurv/app"
	"gosurv/internal"
	"gosurv/internal/config"
	"gosurv/internal/report"
	"gosurv/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gosurv",
		Short: "Recurrent-event survival analysis over gap times",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		cohort     string
		weighting  string
		output     string
		reportPath string
		subjectCol string
		timeCol    string
		eventCol   string
	)

	cmd := &cobra.Command{
		Use:   "analyze [data-file]",
		Short: "Estimate a survival curve from an observation table",
		Long: `Read observations from an Excel or CSV file, derive per-subject gap times,
and estimate a Kaplan-Meier survival curve with log-log confidence bounds.

Example: gosurv analyze purchases.csv --cohort purchases --weighting gamma_frailty --report out.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			mapping := excel.DefaultColumnMapping()
			mapping.Subject = subjectCol
			mapping.Time = timeCol
			mapping.Event = eventCol

			reader := excel.NewObservationReader(args[0], mapping)
			observations, err := reader.Read()
			if err != nil {
				return err
			}

			return runAnalysis(cmd.Context(), cfg, app.CohortRequest{
				Name:         cohort,
				Observations: observations,
			}, weighting, output, reportPath)
		},
	}

	cmd.Flags().StringVar(&cohort, "cohort", "default", "Cohort name for the output artifact")
	cmd.Flags().StringVar(&weighting, "weighting", app.WeightingNone, "Recurrence adjustment: none or gamma_frailty")
	cmd.Flags().StringVar(&output, "output", "table", "Output format: table or json")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a markdown (.md) or HTML (.html) report to this path")
	cmd.Flags().StringVar(&subjectCol, "subject-col", "subject", "Subject ID column name")
	cmd.Flags().StringVar(&timeCol, "time-col", "time", "Time column name")
	cmd.Flags().StringVar(&eventCol, "event-col", "event", "Event indicator column name")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		customers int
		seed      int64
		weighting string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the analysis on synthetic purchase-history data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			genCfg := testkit.DefaultPurchaseConfig()
			genCfg.CustomerCount = customers
			genCfg.Seed = seed
			observations := testkit.NewPurchaseGenerator(genCfg).Generate()

			return runAnalysis(cmd.Context(), cfg, app.CohortRequest{
				Name:         "synthetic_purchases",
				Observations: observations,
			}, weighting, output, "")
		},
	}

	cmd.Flags().IntVar(&customers, "customers", 200, "Number of synthetic customers")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic data")
	cmd.Flags().StringVar(&weighting, "weighting", app.WeightingGammaFrailty, "Recurrence adjustment: none or gamma_frailty")
	cmd.Flags().StringVar(&output, "output", "table", "Output format: table or json")

	return cmd
}

func runAnalysis(ctx context.Context, cfg *config.Config, req app.CohortRequest, weighting, output, reportPath string) error {
	logger := internal.NewDefaultLogger()
	service := app.NewAnalysisService(cfg.Analysis, weighting, logger)

	result, err := service.Analyze(ctx, req)
	if err != nil {
		return err
	}

	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	default:
		printTable(result)
	}

	if reportPath != "" {
		return writeReport(result, reportPath)
	}
	return nil
}

func printTable(result *app.CohortResult) {
	s := result.Summary
	fmt.Printf("cohort=%s subjects=%d records=%d events=%d censored=%d median_gap=%.3f\n\n",
		s.Cohort, s.Subjects, s.Records, s.Events, s.Censored, s.MedianGap)

	fmt.Printf("%10s %8s %8s %10s %10s %10s %10s\n", "time", "n.risk", "n.event", "survival", "std.err", "lower", "upper")
	for _, p := range result.Curve.Points {
		fmt.Printf("%10.3f %8.2f %8.2f %10.4f %10.4f %10.4f %10.4f\n",
			p.Time, p.NRisk, p.NEvent, p.Survival, p.StdErr, p.Lower, p.Upper)
	}

	if median, ok := result.Curve.MedianTime(); ok {
		fmt.Printf("\nmedian gap time: %.3f\n", median)
	}
}

func writeReport(result *app.CohortResult, path string) error {
	gen := report.NewGenerator("Gap-Time Survival Analysis")

	var content []byte
	if strings.HasSuffix(strings.ToLower(path), ".html") {
		content = gen.HTML(result.Summary, result.Curve)
	} else {
		content = []byte(gen.Markdown(result.Summary, result.Curve))
	}
	return os.WriteFile(path, content, 0o644)
}
