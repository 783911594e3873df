package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joseph-ayodele/report-generator/internal/entity"
	"github.com/joseph-ayodele/report-generator/internal/metrics"
	"github.com/joseph-ayodele/report-generator/internal/pptx"
)

const (
	colorBlack = "000000"
	colorWhite = "FFFFFF"
	colorRed   = "FF0055"
	colorSlate = "475569"
	colorLabel = "F1F5F9"

	fontFace = "Meiryo"
	author   = "Marketing AI Tool"

	defaultSummaryTitle = "視聴データサマリ"
)

var printer = message.NewPrinter(language.Japanese)

// FileName is the download name of the deck for a customer.
func FileName(customerName string) string {
	return customerName + "_Report.pptx"
}

// Renderer maps report data onto the fixed slide template.
type Renderer struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithClock fixes the cover date, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{logger: logger, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Deck builds the six-slide presentation model.
func (r *Renderer) Deck(data entity.ReportData, customerName string) *pptx.Presentation {
	return Deck(data, customerName, r.now())
}

// Render builds and serializes the deck.
func (r *Renderer) Render(ctx context.Context, data entity.ReportData, customerName string) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := r.Deck(data, customerName).Bytes()
	if err != nil {
		metrics.RenderTotal.WithLabelValues("error").Inc()
		r.logger.Error("render.deck.failed", "customer", customerName, "error", err)
		return nil, fmt.Errorf("render deck: %w", err)
	}
	metrics.RenderTotal.WithLabelValues("ok").Inc()
	r.logger.Info("render.deck.ok",
		"customer", customerName,
		"bytes", len(b),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// Deck is the pure mapping from report data to slides. Sections are
// reproduced verbatim: no sorting, filtering or recomputation.
func Deck(data entity.ReportData, customerName string, now time.Time) *pptx.Presentation {
	p := pptx.New()
	p.Author = author
	p.Company = customerName
	p.Title = customerName + " Marketing Report"
	p.Created = now

	addCover(p, customerName, now)
	addSummary(p, data.Summary)
	addPageRanking(p, data.PageRanking)
	addVideoRanking(p, data.VideoRanking)
	addEngagement(p, data.Engagement)
	addConversion(p, data.Conversion)
	return p
}

func style(size float64, color string, bold bool) pptx.TextStyle {
	return pptx.TextStyle{FontFace: fontFace, Size: size, Color: color, Bold: bold, Align: pptx.AlignLeft}
}

func addCover(p *pptx.Presentation, customerName string, now time.Time) {
	s := p.AddSlide()
	s.Background = colorBlack

	logo := style(24, colorWhite, true)
	logo.FontFace = "Arial"
	s.AddText("Firework", 0.5, 0.5, 3, 0.6, logo)
	s.AddText(customerName+" 御中", 1, 2.0, 8, 1, style(32, colorWhite, true))
	s.AddText("定例ミーティングレポート", 1, 3.0, 8, 0.8, style(24, colorWhite, false))
	s.AddText(CoverDate(now), 1, 4.6, 3, 0.5, style(18, colorWhite, false))
}

// CoverDate formats a date the way ja-JP short dates read (2026/10/19).
func CoverDate(t time.Time) string {
	return t.Format("2006/1/2")
}

// contentSlide adds the header bar with the title and, if present, the insight line.
func contentSlide(p *pptx.Presentation, title, insight string) *pptx.Slide {
	s := p.AddSlide()
	s.Background = colorWhite
	s.AddRect(0, 0, p.Layout.Width, 0.8, colorBlack)
	s.AddText(title, 0.5, 0.1, 9, 0.6, style(20, colorWhite, true))
	if strings.TrimSpace(insight) != "" {
		s.AddText("● "+insight, 0.5, 1.0, 9, 0.8, style(14, colorBlack, false))
	}
	return s
}

func headerCells(labels ...string) []pptx.Cell {
	row := make([]pptx.Cell, len(labels))
	for i, l := range labels {
		row[i] = pptx.Cell{Text: l, Fill: colorBlack, Color: colorWhite, Bold: true}
	}
	return row
}

func tableStyle(size float64) pptx.TextStyle {
	return pptx.TextStyle{FontFace: fontFace, Size: size, Color: colorBlack, Align: pptx.AlignCenter, VAlign: pptx.VAlignMiddle}
}

func addSummary(p *pptx.Presentation, sec entity.SummarySection) {
	title := sec.Title
	if strings.TrimSpace(title) == "" {
		title = defaultSummaryTitle
	}
	s := contentSlide(p, title, sec.Insight)

	rows := [][]pptx.Cell{headerCells(append([]string{"項目"}, sec.Headers...)...)}
	for _, m := range sec.Metrics {
		row := []pptx.Cell{{Text: m.Label, Fill: colorLabel, Bold: true}}
		for _, v := range m.Values {
			row = append(row, pptx.Cell{Text: v.String()})
		}
		rows = append(rows, row)
	}
	s.AddTable(&pptx.Table{
		X: 0.5, Y: 2.0, W: 9, RowH: 0.6,
		Rows:        rows,
		Style:       tableStyle(12),
		BorderColor: "E2E8F0",
	})
}

func rankingTable(rows [][]pptx.Cell) *pptx.Table {
	return &pptx.Table{
		X: 0.5, Y: 2.0, W: 9, RowH: 0.5,
		ColW:        []float64{0.8, 6.2, 2},
		Rows:        rows,
		Style:       pptx.TextStyle{FontFace: fontFace, Size: 11, Color: colorBlack, Align: pptx.AlignLeft, VAlign: pptx.VAlignMiddle},
		BorderColor: "CBD5E1",
	}
}

func addPageRanking(p *pptx.Presentation, sec entity.PageRankingSection) {
	s := contentSlide(p, "ページ別 視聴回数", sec.Insight)
	rows := [][]pptx.Cell{headerCells("Rank", "ページURL", "視聴数")}
	for _, it := range sec.Ranking {
		rows = append(rows, []pptx.Cell{
			{Text: fmt.Sprint(it.Rank.Int64())},
			{Text: it.URL},
			{Text: FormatCount(it.Views)},
		})
	}
	s.AddTable(rankingTable(rows))
}

func addVideoRanking(p *pptx.Presentation, sec entity.VideoRankingSection) {
	s := contentSlide(p, "動画別 視聴回数", sec.Insight)
	rows := [][]pptx.Cell{headerCells("Rank", "動画タイトル", "視聴数")}
	for _, it := range sec.Ranking {
		rows = append(rows, []pptx.Cell{
			{Text: fmt.Sprint(it.Rank.Int64())},
			{Text: it.Title},
			{Text: FormatCount(it.Views)},
		})
	}
	s.AddTable(rankingTable(rows))
}

func addEngagement(p *pptx.Presentation, sec entity.EngagementSection) {
	s := contentSlide(p, "エンゲージメント数値比較", sec.Insight)

	s.AddText("平均セッション時間", 1, 2.0, 2, 0.5, style(14, colorSlate, false))
	s.AddText(Times(sec.Metrics.AvgSessionDuration), 3, 1.8, 2.5, 0.7, style(32, colorRed, true))
	s.AddText("ユーザーあたりPV", 1, 2.6, 2, 0.5, style(14, colorSlate, false))
	s.AddText(Times(sec.Metrics.PVPerUser), 3, 2.4, 2.5, 0.7, style(32, colorRed, true))

	rows := [][]pptx.Cell{headerCells("指標", "動画視聴者", "動画未視聴者", "倍率")}
	for _, r := range sec.TableRows {
		rows = append(rows, []pptx.Cell{
			{Text: r.MetricName},
			{Text: r.ViewerValue},
			{Text: r.NonViewerValue},
			{Text: Times(r.Multiplier), Color: colorRed, Bold: true},
		})
	}
	s.AddTable(&pptx.Table{
		X: 0.5, Y: 3.5, W: 9, RowH: 0.4,
		Rows:        rows,
		Style:       tableStyle(12),
		BorderColor: "CBD5E1",
	})
}

func addConversion(p *pptx.Presentation, sec entity.ConversionSection) {
	s := contentSlide(p, "コンバージョン数値比較", sec.Insight)

	s.AddText("予約完了率 (CVR)", 1, 2.0, 3, 0.5, style(18, colorBlack, true))
	s.AddText(Times(sec.Multiplier), 4, 1.8, 3, 0.9, style(48, colorRed, true))

	td := sec.TableData
	blank := pptx.Cell{Fill: colorWhite}
	rows := [][]pptx.Cell{
		headerCells("ユーザーセグメント", "総ユーザー数", "予約ユーザー", "CVR"),
		{{Text: "動画視聴者"}, {Text: FormatCount(td.TotalUsersViewer)}, {Text: FormatCount(td.CVUsersViewer)}, {Text: sec.ViewerCVR}},
		{{Text: "動画未視聴者"}, {Text: FormatCount(td.TotalUsersNonViewer)}, {Text: FormatCount(td.CVUsersNonViewer)}, {Text: sec.NonViewerCVR}},
		{blank, blank, blank, {Text: Times(sec.Multiplier), Color: colorRed, Bold: true, BorderColor: colorRed, BorderPt: 2}},
	}
	s.AddTable(&pptx.Table{
		X: 0.5, Y: 3.5, W: 9, RowH: 0.45,
		Rows:        rows,
		Style:       tableStyle(14),
		BorderColor: "CBD5E1",
	})
}

var multiplierSuffixes = []string{"倍", "×", "x", "X"}

// Times renders a multiplier as "<value>倍", replacing any multiplier suffix
// the value already carries. Percentages are a rate, not a multiple, and are
// returned unchanged.
func Times(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		return v
	}
	for _, sfx := range multiplierSuffixes {
		if strings.HasSuffix(v, sfx) {
			v = strings.TrimSpace(strings.TrimSuffix(v, sfx))
			break
		}
	}
	return v + "倍"
}

// FormatCount formats a count with thousands separators.
func FormatCount(c entity.Count) string {
	return printer.Sprintf("%d", c.Int64())
}
