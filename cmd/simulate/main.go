// Package main runs a single demand-driver simulation from flags or a YAML
// scenario file and prints its summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"token-demand-lab/internal/app"
	"token-demand-lab/internal/config"
	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/reporting"
	"token-demand-lab/internal/simulation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Scenario selection
	modelName := flag.String("model", "", "Model id or display name (required unless --scenario-file)")
	scenarioFile := flag.String("scenario-file", "", "YAML scenario file (model, label, parameters)")
	outlook := flag.String("scenario", "", "Outlook preset: optimistic, realistic, pessimistic, degraded")
	label := flag.String("label", "", "Run label")

	// Parameter overrides
	horizon := flag.Int("horizon", 0, "Horizon in periods (0 keeps the default)")
	seed := flag.Int64("seed", 0, "Fee-holiday surge seed (0 keeps the default)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage")
	persist := flag.Bool("persist", false, "Persist the run to storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	csvPath := flag.String("csv", "", "Write the per-period series as CSV to this path")
	xlsxPath := flag.String("xlsx", "", "Write the per-period series as XLSX to this path")

	flag.Parse()

	cfg.PostgresDSN = *postgresDSN
	cfg.ClickHouseDSN = *clickhouseDSN
	cfg.UseMemory = *useMemory

	logger := app.Logger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	req, err := buildRequest(cfg, *scenarioFile, *modelName, *label)
	if err != nil {
		logger.Fatal(err)
	}
	if *horizon > 0 {
		req.Params.Common.Horizon = *horizon
	}
	if *seed != 0 && req.Params.FeeHoliday != nil {
		req.Params.FeeHoliday.Seed = *seed
	}
	if *outlook != "" {
		s, err := domain.ScenarioByID(*outlook)
		if err != nil {
			logger.Fatalf("Invalid scenario: %v", err)
		}
		req.Params = s.Apply(req.Params)
		if req.Label == "" {
			req.Label = s.ScenarioID
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stores *app.Stores
	if *persist {
		var cleanup func()
		stores, cleanup, err = app.OpenStores(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to create stores: %v", err)
		}
		defer cleanup()
	}

	logger.WithFields(logrus.Fields{
		"model":   req.Model,
		"label":   req.Label,
		"horizon": req.Params.Common.Horizon,
	}).Info("Running simulation")

	out, err := app.NewRunner(stores, logger).Execute(ctx, req)
	if err != nil {
		logger.Fatalf("Simulation failed: %v", err)
	}

	if *csvPath != "" {
		if err := os.WriteFile(*csvPath, []byte(reporting.RenderSeriesCSV(out.Result.Records)), 0o644); err != nil {
			logger.Fatalf("Failed to write CSV: %v", err)
		}
	}
	if *xlsxPath != "" {
		if err := writeSeriesWorkbook(*xlsxPath, out.Result); err != nil {
			logger.Fatalf("Failed to write XLSX: %v", err)
		}
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return
	}
	printSummary(out)
}

// buildRequest resolves the model and base parameters from a scenario file
// or the --model flag.
func buildRequest(cfg *config.Config, scenarioFile, modelName, label string) (simulation.RunRequest, error) {
	if scenarioFile != "" {
		s, err := config.LoadScenario(scenarioFile)
		if err != nil {
			return simulation.RunRequest{}, err
		}
		if label == "" {
			label = s.Label
		}
		return simulation.RunRequest{Label: label, Model: s.Model, Params: s.Parameters}, nil
	}

	if modelName == "" {
		return simulation.RunRequest{}, fmt.Errorf("--model or --scenario-file is required")
	}
	tag, err := domain.ParseModelTag(modelName)
	if err != nil {
		return simulation.RunRequest{}, err
	}
	params, err := app.Defaults(cfg, tag)
	if err != nil {
		return simulation.RunRequest{}, err
	}
	return simulation.RunRequest{Label: label, Model: tag, Params: params}, nil
}

func writeSeriesWorkbook(path string, result *domain.SimulationResult) error {
	exporter := reporting.NewExcelExporter(reporting.DefaultExcelOptions())
	defer exporter.Close()

	if err := exporter.AddSeries("Series", result.Records); err != nil {
		return err
	}
	return exporter.SaveAs(path)
}

// printSummary outputs a human-readable run summary.
func printSummary(out *simulation.RunOutput) {
	run := out.Run
	s := run.Summary

	fmt.Println()
	fmt.Println("=== Simulation Result ===")
	fmt.Printf("Run ID:             %s\n", run.RunID)
	fmt.Printf("Model:              %s\n", run.Model.DisplayName())
	if run.Label != "" {
		fmt.Printf("Label:              %s\n", run.Label)
	}
	fmt.Printf("Horizon:            %d\n", s.Horizon)
	if out.AlreadyStored {
		fmt.Println("Stored:             already present")
	}
	fmt.Println()

	fmt.Println("Demand:")
	fmt.Printf("  Total:            %s\n", reporting.FormatDollarMillions(s.TotalDemand))
	fmt.Printf("  Peak:             %s\n", reporting.FormatDollarMillions(s.PeakDemand))
	fmt.Printf("  Mean:             %s\n", reporting.FormatDollarMillions(s.MeanDemand))
	fmt.Printf("  P10/P50/P90:      %s / %s / %s\n",
		reporting.FormatDollarMillions(s.DemandP10),
		reporting.FormatDollarMillions(s.DemandP50),
		reporting.FormatDollarMillions(s.DemandP90))
	fmt.Println()

	if run.Model.IsBurn() {
		fmt.Println("Supply:")
		fmt.Printf("  Final:            %s tokens\n", reporting.FormatThousands(s.FinalSupply))
	} else {
		fmt.Println("Volume:")
		fmt.Printf("  Final:            %s\n", reporting.FormatThousands(s.FinalVolume))
		fmt.Printf("  Total:            %s\n", reporting.FormatThousands(s.TotalVolume))
	}

	if surge := out.Result.Surge; surge != nil {
		fmt.Printf("  Surge days:       %v\n", surge.SurgeDays)
	}
	if out.Result.NewVolume != nil {
		fmt.Printf("  Discounted vol:   %s\n", reporting.FormatThousands(*out.Result.NewVolume))
	}
}
