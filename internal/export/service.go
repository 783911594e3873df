package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/report-generator/internal/entity"
)

// ContentType is the media type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileName is the download name of the data workbook for a customer.
func FileName(customerName string) string {
	return customerName + "_Report.xlsx"
}

// Service writes extracted report data as a spreadsheet.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// sheetWriter appends rows to one sheet.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) write(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	if len(values) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

// ReportXLSX returns the report as a workbook with one sheet per section.
func (s *Service) ReportXLSX(ctx context.Context, data entity.ReportData, customerName string) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheets := []struct {
		name  string
		fill  func(w *sheetWriter)
		width map[string]float64
	}{
		{"Summary", func(w *sheetWriter) { summaryRows(w, data.Summary) }, map[string]float64{"A": 24}},
		{"Pages", func(w *sheetWriter) { pageRows(w, data.PageRanking) }, map[string]float64{"B": 60, "C": 14}},
		{"Videos", func(w *sheetWriter) { videoRows(w, data.VideoRanking) }, map[string]float64{"B": 48, "C": 14}},
		{"Engagement", func(w *sheetWriter) { engagementRows(w, data.Engagement) }, map[string]float64{"A": 28, "B": 18, "C": 18}},
		{"Conversion", func(w *sheetWriter) { conversionRows(w, data.Conversion) }, map[string]float64{"A": 20, "B": 16, "C": 16, "D": 12}},
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, err
		}
		w := &sheetWriter{f: f, sheet: sh.name}
		sh.fill(w)
		if w.err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", sh.name, w.err)
		}
		for col, width := range sh.width {
			_ = f.SetColWidth(sh.name, col, col, width)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"customer", customerName,
		"summary_rows", len(data.Summary.Metrics),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func summaryRows(w *sheetWriter, sec entity.SummarySection) {
	header := []any{"項目"}
	for _, h := range sec.Headers {
		header = append(header, h)
	}
	w.write(header...)
	for _, m := range sec.Metrics {
		row := []any{m.Label}
		for _, v := range m.Values {
			row = append(row, cellValue(v))
		}
		w.write(row...)
	}
	if sec.Insight != "" {
		w.write()
		w.write("Insight", sec.Insight)
	}
}

// cellValue keeps numeric summary values numeric in the sheet.
func cellValue(v entity.MetricValue) any {
	if v.Numeric {
		if f, err := strconv.ParseFloat(v.Text, 64); err == nil {
			return f
		}
	}
	return v.Text
}

func pageRows(w *sheetWriter, sec entity.PageRankingSection) {
	w.write("Rank", "URL", "Views")
	for _, r := range sec.Ranking {
		w.write(r.Rank.Int64(), r.URL, r.Views.Int64())
	}
	if sec.Insight != "" {
		w.write()
		w.write("Insight", sec.Insight)
	}
}

func videoRows(w *sheetWriter, sec entity.VideoRankingSection) {
	w.write("Rank", "Title", "Views")
	for _, r := range sec.Ranking {
		w.write(r.Rank.Int64(), r.Title, r.Views.Int64())
	}
	if sec.Insight != "" {
		w.write()
		w.write("Insight", sec.Insight)
	}
}

func engagementRows(w *sheetWriter, sec entity.EngagementSection) {
	w.write("Metric", "Viewer", "Non-viewer", "Multiplier")
	for _, r := range sec.TableRows {
		w.write(r.MetricName, r.ViewerValue, r.NonViewerValue, r.Multiplier)
	}
	w.write()
	w.write("avg_session_duration_multiplier", sec.Metrics.AvgSessionDuration)
	w.write("pv_per_user_multiplier", sec.Metrics.PVPerUser)
	w.write("return_rate_multiplier", sec.Metrics.ReturnRate)
	w.write("session_pv_multiplier", sec.Metrics.SessionPV)
	if sec.Insight != "" {
		w.write("Insight", sec.Insight)
	}
}

func conversionRows(w *sheetWriter, sec entity.ConversionSection) {
	td := sec.TableData
	w.write("Segment", "Total users", "Converted users", "CVR")
	w.write("Viewer", td.TotalUsersViewer.Int64(), td.CVUsersViewer.Int64(), sec.ViewerCVR)
	w.write("Non-viewer", td.TotalUsersNonViewer.Int64(), td.CVUsersNonViewer.Int64(), sec.NonViewerCVR)
	w.write()
	w.write("Multiplier", sec.Multiplier)
	if sec.Insight != "" {
		w.write("Insight", sec.Insight)
	}
}
