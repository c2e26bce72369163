package reporting

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"token-demand-lab/internal/domain"
)

func TestFormatDollarMillions(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{0, "$0.00M"},
		{1_500_000, "$1.50M"},
		{2_345_678, "$2.35M"},
		{1_234_567_890, "$1,234.57M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDollarMillions(tt.in))
	}
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "1,000,000", FormatThousands(1_000_000))
	assert.Equal(t, "999", FormatThousands(999.4))
}

func TestRenderSeriesCSV(t *testing.T) {
	csv := RenderSeriesCSV([]domain.Record{
		{Period: 1, Supply: 1000, Volume: 0, DemandValue: 0},
		{Period: 2, Supply: 900, Volume: 12.5, DemandValue: 200},
	})

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "period,supply,volume,demand_value", lines[0])
	assert.Equal(t, "2,900.000000,12.500000,200.000000", lines[2])
}

func TestRenderSummaryCSV_QuotesLabels(t *testing.T) {
	csv := RenderSummaryCSV([]RunRow{{RunID: "r1", Label: "beta=0.2,g=0.03", Model: domain.ModelBuybackBurn}})
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], `r1,,"beta=0.2,g=0.03",buyback_burn,`))
	assert.Equal(t, 15, strings.Count(lines[0], ",")+1)
}

func TestExcelExporter_RoundTrip(t *testing.T) {
	report := &Report{
		GeneratedAt: fixedClock(),
		Runs: []RunRow{
			{RunID: "r1", BatchID: "b1", Label: "realistic", Model: domain.ModelExponentialDecay, Horizon: 60, TotalDemand: 1_000_000},
		},
		ModelComparison: []ModelComparisonRow{
			{Model: domain.ModelExponentialDecay, Runs: 1, MeanTotalDemand: 1_000_000, BestLabel: "realistic", BestRunID: "r1"},
		},
	}

	exporter := NewExcelExporter(DefaultExcelOptions())
	defer exporter.Close()

	require.NoError(t, exporter.AddReport(report))
	require.NoError(t, exporter.AddSeries("Series", []domain.Record{
		{Period: 1, Supply: 1000},
		{Period: 2, Supply: 990},
	}))

	var buf bytes.Buffer
	require.NoError(t, exporter.Write(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Runs", "Models", "Batches", "Series"}, f.GetSheetList())

	header, err := f.GetCellValue("Runs", "A1")
	require.NoError(t, err)
	assert.Equal(t, "run_id", header)

	label, err := f.GetCellValue("Runs", "C2")
	require.NoError(t, err)
	assert.Equal(t, "realistic", label)

	model, err := f.GetCellValue("Models", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Exponential Decay", model)

	rows, err := f.GetRows("Series")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, []string{"period", "supply", "volume", "demand_value"}, rows[0])
}
