// Package pipeline writes report bundles to disk:
// report generation → Markdown → CSV → XLSX (→ per-run series CSVs)
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/observability"
	"token-demand-lab/internal/reporting"
	"token-demand-lab/internal/storage"
)

// GeneratorVersion is stamped into every report.
const GeneratorVersion = "1.0.0"

// Output file names.
const (
	ReportFile   = "REPORT.md"
	SummaryFile  = "runs_summary.csv"
	WorkbookFile = "report.xlsx"
	SeriesDir    = "series"
)

// ReportPipeline renders a report over stored runs into an output directory.
type ReportPipeline struct {
	reportGen     *reporting.Generator
	seriesStore   storage.SeriesStore
	outputDir     string
	includeSeries bool
	replayCommand string
}

// NewReportPipeline creates a new pipeline. seriesStore may be nil, which
// disables series completeness checks and series export.
func NewReportPipeline(runStore storage.RunStore, seriesStore storage.SeriesStore, outputDir string) *ReportPipeline {
	return &ReportPipeline{
		reportGen:   reporting.NewGenerator(runStore, seriesStore),
		seriesStore: seriesStore,
		outputDir:   outputDir,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithSeries enables one series CSV per run under SeriesDir.
func (p *ReportPipeline) WithSeries(enabled bool) *ReportPipeline {
	p.includeSeries = enabled
	return p
}

// WithReplayCommand records the command that reproduces the report.
func (p *ReportPipeline) WithReplayCommand(cmd string) *ReportPipeline {
	p.replayCommand = cmd
	return p
}

// Run generates the report for filter and writes:
// - REPORT.md
// - runs_summary.csv
// - report.xlsx
// - series/<run_id>.csv (when enabled)
//
// Returns the report and the written paths.
func (p *ReportPipeline) Run(ctx context.Context, filter reporting.Filter) (*reporting.Report, []string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, nil, err
	}

	// 1. Generate report
	report, err := p.reportGen.Generate(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("generate report: %w", err)
	}

	// 2. Reproducibility metadata
	report.Reproducibility = reporting.ReproducibilityMetadata{
		GeneratorVersion: GeneratorVersion,
		DataVersion:      computeDataVersion(report.Runs),
		ReplayCommand:    p.replayCommand,
	}

	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(p.outputDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	// 3. Write REPORT.md
	if err := write(ReportFile, []byte(reporting.RenderMarkdown(report))); err != nil {
		return nil, nil, err
	}

	// 4. Write runs_summary.csv
	if err := write(SummaryFile, []byte(reporting.RenderSummaryCSV(report.Runs))); err != nil {
		return nil, nil, err
	}

	// 5. Write report.xlsx
	path := filepath.Join(p.outputDir, WorkbookFile)
	if err := writeWorkbook(path, report); err != nil {
		return nil, nil, fmt.Errorf("write workbook: %w", err)
	}
	written = append(written, path)

	// 6. Write per-run series
	if p.includeSeries && p.seriesStore != nil {
		paths, err := p.writeSeries(ctx, report.Runs)
		if err != nil {
			return nil, nil, err
		}
		written = append(written, paths...)
	}

	observability.RecordReportGenerated()
	return report, written, nil
}

func (p *ReportPipeline) writeSeries(ctx context.Context, runs []reporting.RunRow) ([]string, error) {
	dir := filepath.Join(p.outputDir, SeriesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(runs))
	for _, run := range runs {
		points, err := p.seriesStore.GetByRunID(ctx, run.RunID)
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", run.RunID, err)
		}
		records := make([]domain.Record, len(points))
		for i, pt := range points {
			records[i] = pt.Record()
		}
		path := filepath.Join(dir, run.RunID+".csv")
		if err := os.WriteFile(path, []byte(reporting.RenderSeriesCSV(records)), 0644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeWorkbook(path string, report *reporting.Report) error {
	exporter := reporting.NewExcelExporter(reporting.DefaultExcelOptions())
	defer exporter.Close()

	if err := exporter.AddReport(report); err != nil {
		return err
	}
	return exporter.SaveAs(path)
}

// computeDataVersion hashes run ids and total demand so two reports over
// the same runs share a version.
func computeDataVersion(runs []reporting.RunRow) string {
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = fmt.Sprintf("%s|%.6f", r.RunID, r.TotalDemand)
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte("RUNS\n"))
	h.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(h.Sum(nil))[:12] // short hash
}
