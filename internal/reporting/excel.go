package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"token-demand-lab/internal/domain"
)

// ExcelExporter writes reports and series into an XLSX workbook,
// one sheet per table.
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
	sheets  int
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	FreezeHeader bool
	AutoFilter   bool
	NumberFormat string
	HeaderStyle  *ExcelStyleConfig
}

// ExcelStyleConfig defines style for header cells
type ExcelStyleConfig struct {
	FontBold  bool
	FontSize  int
	FontColor string
	FillColor string
	Border    bool
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		FreezeHeader: true,
		AutoFilter:   true,
		NumberFormat: "#,##0.00",
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4472C4",
			FontColor: "FFFFFF",
			Border:    true,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	return &ExcelExporter{
		file:    excelize.NewFile(),
		options: options,
	}
}

var summaryColumns = []string{
	"run_id", "batch_id", "label", "model", "horizon", "final_supply", "total_demand",
	"peak_demand", "mean_demand", "demand_p10", "demand_p50", "demand_p90",
	"final_volume", "total_volume", "created_at",
}

// AddReport writes the Runs, Models and Batches sheets.
func (e *ExcelExporter) AddReport(r *Report) error {
	runRows := make([][]interface{}, len(r.Runs))
	for i, m := range r.Runs {
		runRows[i] = []interface{}{
			m.RunID, m.BatchID, m.Label, m.Model.String(), m.Horizon, m.FinalSupply, m.TotalDemand,
			m.PeakDemand, m.MeanDemand, m.DemandP10, m.DemandP50, m.DemandP90,
			m.FinalVolume, m.TotalVolume, m.CreatedAt,
		}
	}
	if err := e.AddSheet("Runs", summaryColumns, runRows); err != nil {
		return err
	}

	modelRows := make([][]interface{}, len(r.ModelComparison))
	for i, c := range r.ModelComparison {
		modelRows[i] = []interface{}{
			c.Model.DisplayName(), c.Runs, c.MeanTotalDemand, c.MaxTotalDemand, c.BestLabel, c.BestRunID,
		}
	}
	if err := e.AddSheet("Models", []string{
		"model", "runs", "mean_total_demand", "max_total_demand", "best_label", "best_run_id",
	}, modelRows); err != nil {
		return err
	}

	batchRows := make([][]interface{}, len(r.Batches))
	for i, b := range r.Batches {
		batchRows[i] = []interface{}{
			b.BatchID, b.Runs, b.TotalDemandMean, b.TotalDemandMin, b.TotalDemandMax,
			b.TotalDemandP10, b.TotalDemandP50, b.TotalDemandP90, b.TotalDemandStddev,
			b.BestLabel, b.WorstLabel,
		}
	}
	return e.AddSheet("Batches", []string{
		"batch_id", "runs", "mean", "min", "max", "p10", "p50", "p90", "stddev", "best", "worst",
	}, batchRows)
}

// AddSeries writes simulation records to a sheet named name.
func (e *ExcelExporter) AddSeries(name string, records []domain.Record) error {
	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		rows[i] = []interface{}{rec.Period, rec.Supply, rec.Volume, rec.DemandValue}
	}
	return e.AddSheet(name, []string{"period", "supply", "volume", "demand_value"}, rows)
}

// AddSheet adds a sheet with a styled header row followed by rows.
// The first sheet replaces the workbook's default sheet.
func (e *ExcelExporter) AddSheet(name string, columns []string, rows [][]interface{}) error {
	if e.sheets == 0 {
		if err := e.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	} else if _, err := e.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	e.sheets++

	if err := e.writeHeader(name, columns); err != nil {
		return err
	}
	return e.writeRows(name, columns, rows)
}

// writeHeader writes the header row with styling
func (e *ExcelExporter) writeHeader(sheet string, columns []string) error {
	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		style, err := e.createStyle(e.options.HeaderStyle)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := e.file.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to set header: %w", err)
		}
		if headerStyleID > 0 {
			if err := e.file.SetCellStyle(sheet, cell, cell, headerStyleID); err != nil {
				return err
			}
		}
	}

	// Freeze header row
	if e.options.FreezeHeader {
		if err := e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	return nil
}

// writeRows writes data rows below the header
func (e *ExcelExporter) writeRows(sheet string, columns []string, rows [][]interface{}) error {
	numberStyleID := 0
	if e.options.NumberFormat != "" {
		style, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &e.options.NumberFormat})
		if err != nil {
			return fmt.Errorf("failed to create number style: %w", err)
		}
		numberStyleID = style
	}

	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := e.file.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if _, isFloat := val.(float64); isFloat && numberStyleID > 0 {
				if err := e.file.SetCellStyle(sheet, cell, cell, numberStyleID); err != nil {
					return err
				}
			}
		}
	}

	// Apply auto filter
	if e.options.AutoFilter && len(rows) > 0 {
		lastCell, err := excelize.CoordinatesToCellName(len(columns), len(rows)+1)
		if err != nil {
			return err
		}
		if err := e.file.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	return e.file.SetColWidth(sheet, "A", lastCol, 14)
}

// createStyle creates an Excel style from config
func (e *ExcelExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}

	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	return e.file.NewStyle(style)
}

// Write writes the workbook to a writer
func (e *ExcelExporter) Write(w io.Writer) error {
	return e.file.Write(w)
}

// SaveAs saves the workbook to a path
func (e *ExcelExporter) SaveAs(path string) error {
	return e.file.SaveAs(path)
}

// Close closes the workbook
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}
