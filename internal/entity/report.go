package entity

// ReportData is the structured result of one extraction call. Each section is
// keyed by the slide it feeds; all five are required.
type ReportData struct {
	Summary      SummarySection      `json:"slide_4_summary"`
	PageRanking  PageRankingSection  `json:"slide_5_page_ranking"`
	VideoRanking VideoRankingSection `json:"slide_7_video_ranking"`
	Engagement   EngagementSection   `json:"slide_10_engagement"`
	Conversion   ConversionSection   `json:"slide_11_conversion"`
}

// SummarySection is the monthly summary table.
type SummarySection struct {
	Title   string          `json:"title"`
	Insight string          `json:"insight"`
	Headers []string        `json:"headers"`
	Metrics []SummaryMetric `json:"metrics"`
}

// SummaryMetric is one row of the summary table; Values align with Headers by position.
type SummaryMetric struct {
	Label  string        `json:"label"`
	Values []MetricValue `json:"values"`
}

// Ragged returns the labels of rows whose value count differs from the header count.
func (s SummarySection) Ragged() []string {
	var out []string
	for _, m := range s.Metrics {
		if len(m.Values) != len(s.Headers) {
			out = append(out, m.Label)
		}
	}
	return out
}

// PageRankingSection lists pages by views, in the order the model returned them.
type PageRankingSection struct {
	Insight string        `json:"insight"`
	Ranking []PageRanking `json:"ranking"`
}

type PageRanking struct {
	Rank  Count  `json:"rank"`
	URL   string `json:"url"`
	Views Count  `json:"views"`
}

// VideoRankingSection lists videos by views, in the order the model returned them.
type VideoRankingSection struct {
	Insight string         `json:"insight"`
	Ranking []VideoRanking `json:"ranking"`
}

type VideoRanking struct {
	Rank  Count  `json:"rank"`
	Title string `json:"title"`
	Views Count  `json:"views"`
}

// EngagementSection compares video viewers with non-viewers.
type EngagementSection struct {
	Insight   string                `json:"insight"`
	Metrics   EngagementMultipliers `json:"metrics"`
	TableRows []EngagementRow       `json:"table_rows"`
}

// EngagementMultipliers holds the four headline ratios as display strings.
type EngagementMultipliers struct {
	AvgSessionDuration string `json:"avg_session_duration_multiplier"`
	PVPerUser          string `json:"pv_per_user_multiplier"`
	ReturnRate         string `json:"return_rate_multiplier"`
	SessionPV          string `json:"session_pv_multiplier"`
}

// EngagementRow values are free-form since source units vary.
type EngagementRow struct {
	MetricName     string `json:"metric_name"`
	ViewerValue    string `json:"viewer_value"`
	NonViewerValue string `json:"non_viewer_value"`
	Multiplier     string `json:"multiplier"`
}

// ConversionSection compares conversion rates between the two segments.
type ConversionSection struct {
	Insight      string          `json:"insight"`
	ViewerCVR    string          `json:"viewer_cvr"`
	NonViewerCVR string          `json:"non_viewer_cvr"`
	Multiplier   string          `json:"multiplier"`
	TableData    ConversionTally `json:"table_data"`
}

type ConversionTally struct {
	TotalUsersViewer    Count `json:"total_users_viewer"`
	TotalUsersNonViewer Count `json:"total_users_non_viewer"`
	CVUsersViewer       Count `json:"cv_users_viewer"`
	CVUsersNonViewer    Count `json:"cv_users_non_viewer"`
}
