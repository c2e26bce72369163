package reporting

import (
	"fmt"
	"strings"

	"token-demand-lab/internal/domain"
)

// RenderSummaryCSV renders run metrics as CSV string.
func RenderSummaryCSV(rows []RunRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,batch_id,label,model,horizon,final_supply,total_demand,peak_demand,mean_demand,")
	sb.WriteString("demand_p10,demand_p50,demand_p90,final_volume,total_volume,created_at\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d\n",
			r.RunID,
			r.BatchID,
			csvField(r.Label),
			r.Model,
			r.Horizon,
			r.FinalSupply,
			r.TotalDemand,
			r.PeakDemand,
			r.MeanDemand,
			r.DemandP10,
			r.DemandP50,
			r.DemandP90,
			r.FinalVolume,
			r.TotalVolume,
			r.CreatedAt,
		))
	}

	return sb.String()
}

// RenderSeriesCSV renders simulation records in tabular form.
func RenderSeriesCSV(records []domain.Record) string {
	var sb strings.Builder

	sb.WriteString("period,supply,volume,demand_value\n")
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.6f,%.6f\n",
			rec.Period, rec.Supply, rec.Volume, rec.DemandValue))
	}

	return sb.String()
}

// csvField quotes labels containing separators.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
