// Package main runs a parameter sweep and writes its report bundle.
// Executes: plan → concurrent simulation → batch aggregation → reporting
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"token-demand-lab/internal/app"
	"token-demand-lab/internal/config"
	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/pipeline"
	"token-demand-lab/internal/reporting"
	"token-demand-lab/internal/sweep"
)

// rangeSetters maps --param names to the field they sweep.
var rangeSetters = map[string]func(*domain.SimulationParameters, float64){
	"horizon":             func(p *domain.SimulationParameters, v float64) { p.Common.Horizon = int(v) },
	"discount_factor":     func(p *domain.SimulationParameters, v float64) { p.Common.DiscountFactor = v },
	"tge_price":           func(p *domain.SimulationParameters, v float64) { p.Common.TGEPrice = v },
	"initial_revenue":     func(p *domain.SimulationParameters, v float64) { p.Revenue.InitialRevenue = v },
	"revenue_growth_rate": func(p *domain.SimulationParameters, v float64) { p.Revenue.RevenueGrowthRate = v },
	"buyback_rate": func(p *domain.SimulationParameters, v float64) {
		if p.Buyback != nil {
			p.Buyback.BuybackRate = v
		}
	},
	"decay_rate": func(p *domain.SimulationParameters, v float64) {
		if p.Exponential != nil {
			p.Exponential.DecayRate = v
		}
	},
	"log_burn_coefficient": func(p *domain.SimulationParameters, v float64) {
		if p.Logarithmic != nil {
			p.Logarithmic.LogBurnCoefficient = v
		}
	},
	"elasticity": func(p *domain.SimulationParameters, v float64) {
		if p.FeeDiscount != nil {
			p.FeeDiscount.Elasticity = v
		}
		if p.FeeHoliday != nil {
			p.FeeHoliday.MarketElasticity = v
		}
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Plan selection (first match wins: --plan, --param, --model, all models)
	planFile := flag.String("plan", "", "YAML sweep plan file")
	planName := flag.String("name", "sweep", "Plan name")
	modelName := flag.String("model", "", "Model for scenario or range sweeps")
	scenarios := flag.String("scenarios", "", "Comma-separated outlook presets (default: all)")
	param := flag.String("param", "", "Parameter to sweep with --values")
	values := flag.String("values", "", "Comma-separated values for --param")

	// Execution
	concurrency := flag.Int("concurrency", cfg.SweepConcurrency, "Parallel variations")
	verbose := flag.Bool("verbose", false, "Verbose output")

	// Storage
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage")

	// Output
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	withSeries := flag.Bool("series", false, "Also write one series CSV per run")

	flag.Parse()

	cfg.SweepConcurrency = *concurrency
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickHouseDSN = *clickhouseDSN
	cfg.UseMemory = *useMemory

	logger := app.Logger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	plan, err := buildPlan(cfg, *planFile, *planName, *modelName, *scenarios, *param, *values)
	if err != nil {
		logger.Fatalf("Invalid plan: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	fmt.Println("=== Parameter Sweep ===")
	orch := sweep.New(sweep.Options{
		Runner:      app.NewRunner(stores, logger),
		Concurrency: cfg.SweepConcurrency,
		Logger:      logger,
		Verbose:     *verbose,
	})
	result, err := orch.Run(ctx, plan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sweep error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sweep completed:\n")
	fmt.Printf("  Batch: %s\n", result.BatchID)
	fmt.Printf("  Variations: %d\n", len(result.Results))
	fmt.Printf("  Succeeded: %d\n", result.Succeeded)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
	if result.Aggregate == nil {
		fmt.Fprintln(os.Stderr, "No successful runs, skipping report")
		os.Exit(1)
	}

	fmt.Println("\n=== Reporting ===")
	p := pipeline.NewReportPipeline(stores.Runs, stores.Series, *outputDir).
		WithSeries(*withSeries).
		WithReplayCommand(strings.Join(os.Args, " "))
	_, written, err := p.Run(ctx, reporting.Filter{BatchID: result.BatchID})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mean total demand: %s (best: %s)\n",
		reporting.FormatDollarMillions(result.Aggregate.TotalDemandMean), result.Aggregate.BestLabel)
	fmt.Println("Generated files:")
	for _, path := range written {
		fmt.Printf("  - %s\n", path)
	}
}

// buildPlan resolves the sweep plan from flags.
func buildPlan(cfg *config.Config, planFile, name, modelName, scenarios, param, values string) (sweep.Plan, error) {
	if planFile != "" {
		return config.LoadPlan(planFile)
	}

	defaults := func(tag domain.ModelTag) (domain.SimulationParameters, error) {
		return app.Defaults(cfg, tag)
	}
	if modelName == "" {
		if param != "" || scenarios != "" {
			return sweep.Plan{}, fmt.Errorf("--param and --scenarios require --model")
		}
		return sweep.ModelPlanWith(name, defaults)
	}

	tag, err := domain.ParseModelTag(modelName)
	if err != nil {
		return sweep.Plan{}, err
	}
	base, err := defaults(tag)
	if err != nil {
		return sweep.Plan{}, err
	}

	if param != "" {
		set, ok := rangeSetters[param]
		if !ok {
			return sweep.Plan{}, fmt.Errorf("unknown --param %q", param)
		}
		vals, err := parseValues(values)
		if err != nil {
			return sweep.Plan{}, err
		}
		return sweep.RangePlan(name, tag, base, param, vals, set), nil
	}

	presets := domain.AllScenarios()
	if scenarios != "" {
		presets = presets[:0:0]
		for _, id := range strings.Split(scenarios, ",") {
			s, err := domain.ScenarioByID(strings.TrimSpace(id))
			if err != nil {
				return sweep.Plan{}, err
			}
			presets = append(presets, s)
		}
	}
	return sweep.ScenarioPlan(name, tag, base, presets), nil
}

func parseValues(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("--values is required with --param")
	}
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", part, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}
