package llm

import (
	"fmt"

	"github.com/joseph-ayodele/report-generator/internal/normalize"
)

// SystemInstruction is sent with every extraction call.
const SystemInstruction = `
You are a senior marketing data analyst.
Your goal is to generate a structured JSON report for a client presentation based on the provided Dashboard Screenshots and CSV/JSON/Excel Data files.

**Input Data Sources:**
1. **Images/PDFs**: Screenshots of Google Analytics 4, Firework management screens, and previous reports. Visual charts and tables.
2. **CSV/JSON/Excel/Text**: Raw data files containing precise user counts, segments (e.g., "25% Viewers", "Non-viewers"), and conversion events.

**Task:**
Analyze all inputs and extract/calculate the data required for the JSON schema.
Prioritize structured data (CSV/JSON/Excel) for exact numbers, especially for the Engagement and Conversion comparisons. Use images for trends, rankings, and visual insights.

**Sections to Populate:**
1. **slide_4_summary**: A monthly summary table. Typically includes "Uploads", "Views", "Avg Watch Time", "Clicks", "CTR". Every metric row has exactly one value per header.
2. **slide_5_page_ranking**: Top 5 Page URLs by views.
3. **slide_7_video_ranking**: Top Videos by title and views.
4. **slide_10_engagement**: Compare "Video Viewers" vs "Non-Viewers".
   - Metrics: Avg Session Duration, PV per User, Return Rate (Sessions/User), PV per Session.
   - Multiplier = viewer metric / non-viewer metric (e.g., Viewers are 2.9x Non-Viewers).
   - Use the CSV/JSON data if available to calculate accurate multipliers.
5. **slide_11_conversion**: Compare "CVR" (Conversion Rate) between Viewers and Non-Viewers.
   - CVR = (Conversion Users / Total Users) * 100.
   - Multiplier = viewer CVR / non-viewer CVR.

**Number Format:**
Multiplier and CVR fields are plain decimal numbers with at most one unit suffix ("%" for CVR). Do not add words.

**Insight Generation:**
For each section, provide a professional Japanese "Insight" (考察) summarizing the key finding (e.g., "Viewers have 9.1x higher CVR", "Short videos on the recruitment page are driving clicks").
`

// BuildUserPrompt is the per-call instruction appended after the file fragments.
func BuildUserPrompt(customerName string) string {
	return fmt.Sprintf(`
Analyze the provided images, PDFs, CSV, Excel, and JSON data for customer: %q.
Generate the JSON report adhering to the schema.
Ensure all insights are in Japanese.
For Slide 10 and 11, strictly calculate multipliers based on the structured data (CSV/Excel/JSON) if provided.
`, customerName)
}

// BuildParts converts fragments to request parts, in order, followed by the
// per-call instruction.
func BuildParts(fragments []normalize.Fragment, customerName string) []Part {
	parts := make([]Part, 0, len(fragments)+1)
	for _, f := range fragments {
		if f.Inline {
			parts = append(parts, Part{MediaType: f.MediaType, Data: f.Data})
			continue
		}
		parts = append(parts, Part{Text: f.Text})
	}
	return append(parts, Part{Text: BuildUserPrompt(customerName)})
}
