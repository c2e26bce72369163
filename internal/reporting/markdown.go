package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Demand Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Runs: %d | Models: %d\n\n", r.RunCount, r.ModelCount))
	if f := describeFilter(r.Filter); f != "" {
		sb.WriteString(fmt.Sprintf("Filter: %s\n\n", f))
	}

	// Data Quality
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("## Data Quality\n\n")
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Run Metrics
	sb.WriteString("## Run Metrics\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| Model | Batch | Label | Horizon | Final Supply | Total Demand | Peak | Mean | P10 | P50 | P90 | Final Volume |\n")
		sb.WriteString("|-------|-------|-------|---------|--------------|--------------|------|------|-----|-----|-----|--------------|\n")
		for _, m := range r.Runs {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s | %s | %.2f | %.2f | %.2f | %.2f | %.2f | %s |\n",
				m.Model.DisplayName(), shortID(m.BatchID), m.Label, m.Horizon,
				FormatThousands(m.FinalSupply), FormatDollarMillions(m.TotalDemand),
				m.PeakDemand, m.MeanDemand, m.DemandP10, m.DemandP50, m.DemandP90,
				FormatThousands(m.FinalVolume)))
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	// Model Comparison
	sb.WriteString("## Model Comparison\n\n")
	if len(r.ModelComparison) > 0 {
		sb.WriteString("| Model | Runs | Mean Total Demand | Max Total Demand | Best Run |\n")
		sb.WriteString("|-------|------|-------------------|------------------|----------|\n")
		for _, c := range r.ModelComparison {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
				c.Model.DisplayName(), c.Runs,
				FormatDollarMillions(c.MeanTotalDemand), FormatDollarMillions(c.MaxTotalDemand),
				bestRef(c.BestLabel, c.BestRunID)))
		}
	} else {
		sb.WriteString("No model comparison available.\n")
	}
	sb.WriteString("\n")

	// Scenario Sensitivity
	sb.WriteString("## Scenario Sensitivity\n\n")
	if len(r.ScenarioSensitivity) > 0 {
		sb.WriteString("| Batch | Model | Optimistic | Realistic | Pessimistic | Degraded | Degradation% |\n")
		sb.WriteString("|-------|-------|------------|-----------|-------------|----------|-------------|\n")
		for _, s := range r.ScenarioSensitivity {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %.2f |\n",
				shortID(s.BatchID), s.Model.DisplayName(),
				FormatDollarMillions(s.Optimistic), FormatDollarMillions(s.Realistic),
				FormatDollarMillions(s.Pessimistic), FormatDollarMillions(s.Degraded),
				s.DegradationPct))
		}
	} else {
		sb.WriteString("No scenario sensitivity data available.\n")
	}
	sb.WriteString("\n")

	// Batches
	sb.WriteString("## Batches\n\n")
	if len(r.Batches) > 0 {
		sb.WriteString("| Batch | Runs | Mean | P10 | P50 | P90 | Stddev | Best | Worst |\n")
		sb.WriteString("|-------|------|------|-----|-----|-----|--------|------|-------|\n")
		for _, b := range r.Batches {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
				shortID(b.BatchID), b.Runs,
				FormatDollarMillions(b.TotalDemandMean), FormatDollarMillions(b.TotalDemandP10),
				FormatDollarMillions(b.TotalDemandP50), FormatDollarMillions(b.TotalDemandP90),
				FormatDollarMillions(b.TotalDemandStddev),
				bestRef(b.BestLabel, b.BestRunID), bestRef(b.WorstLabel, b.WorstRunID)))
		}
	} else {
		sb.WriteString("No sweep batches available.\n")
	}
	sb.WriteString("\n")

	// Reproducibility
	if rep := r.Reproducibility; rep.DataVersion != "" {
		sb.WriteString("## Reproducibility\n\n")
		sb.WriteString(fmt.Sprintf("- Generator version: %s\n", rep.GeneratorVersion))
		sb.WriteString(fmt.Sprintf("- Data version: %s\n", rep.DataVersion))
		if rep.ReplayCommand != "" {
			sb.WriteString(fmt.Sprintf("- Replay: `%s`\n", rep.ReplayCommand))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func describeFilter(f Filter) string {
	var parts []string
	if f.BatchID != "" {
		parts = append(parts, "batch="+f.BatchID)
	}
	if f.Model != "" {
		parts = append(parts, "model="+f.Model.String())
	}
	if f.Start != 0 || f.End != 0 {
		parts = append(parts, fmt.Sprintf("created=[%d,%d)", f.Start, f.End))
	}
	return strings.Join(parts, ", ")
}

// shortID truncates hashes and uuids for table display.
func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func bestRef(label, runID string) string {
	if label != "" {
		return label
	}
	return shortID(runID)
}
