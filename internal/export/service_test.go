package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/report-generator/internal/entity"
)

func sample() entity.ReportData {
	return entity.ReportData{
		Summary: entity.SummarySection{
			Insight: "伸びています",
			Headers: []string{"8月", "9月"},
			Metrics: []entity.SummaryMetric{
				{Label: "視聴回数", Values: []entity.MetricValue{entity.NumberValue(135000), entity.NumberValue(180500)}},
				{Label: "CTR", Values: []entity.MetricValue{entity.TextValue("1.4%"), entity.TextValue("1.9%")}},
			},
		},
		PageRanking: entity.PageRankingSection{Ranking: []entity.PageRanking{{Rank: 1, URL: "https://example.jp/", Views: 52000}}},
		VideoRanking: entity.VideoRankingSection{Ranking: []entity.VideoRanking{{Rank: 1, Title: "社員インタビュー", Views: 40100}}},
		Engagement: entity.EngagementSection{
			Metrics:   entity.EngagementMultipliers{AvgSessionDuration: "2.9", PVPerUser: "2.1", ReturnRate: "1.8", SessionPV: "1.5"},
			TableRows: []entity.EngagementRow{{MetricName: "平均セッション時間", ViewerValue: "3:12", NonViewerValue: "1:06", Multiplier: "2.9"}},
		},
		Conversion: entity.ConversionSection{
			ViewerCVR: "4.55%", NonViewerCVR: "0.5%", Multiplier: "9.1",
			TableData: entity.ConversionTally{TotalUsersViewer: 2000, TotalUsersNonViewer: 18000, CVUsersViewer: 91, CVUsersNonViewer: 90},
		},
	}
}

func TestReportXLSX(t *testing.T) {
	b, err := NewService(nil).ReportXLSX(context.Background(), sample(), "Acme")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "Pages", "Videos", "Engagement", "Conversion"}, f.GetSheetList())

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"項目", "8月", "9月"}, rows[0])
	assert.Equal(t, []string{"視聴回数", "135000", "180500"}, rows[1])
	assert.Equal(t, []string{"CTR", "1.4%", "1.9%"}, rows[2])
	assert.Equal(t, []string{"Insight", "伸びています"}, rows[4])

	v, err := f.GetCellValue("Pages", "C2")
	require.NoError(t, err)
	assert.Equal(t, "52000", v)

	v, err = f.GetCellValue("Videos", "B2")
	require.NoError(t, err)
	assert.Equal(t, "社員インタビュー", v)

	conv, err := f.GetRows("Conversion")
	require.NoError(t, err)
	assert.Equal(t, []string{"Viewer", "2000", "91", "4.55%"}, conv[1])
	assert.Equal(t, []string{"Multiplier", "9.1"}, conv[4])
}

func TestReportXLSX_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(nil).ReportXLSX(ctx, sample(), "Acme")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Acme_Report.xlsx", FileName("Acme"))
}
