package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/report-generator/internal/llm"
)

func TestToSchema_ReportSchema(t *testing.T) {
	s := ToSchema(llm.BuildReportJSONSchema())
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Len(t, s.Required, 5)
	assert.Equal(t, s.Required, s.PropertyOrdering)

	summary := s.Properties["slide_4_summary"]
	require.NotNil(t, summary)
	values := summary.Properties["metrics"].Items.Properties["values"]
	require.NotNil(t, values.Items)
	require.Len(t, values.Items.AnyOf, 2)
	assert.Equal(t, genai.TypeNumber, values.Items.AnyOf[0].Type)
	assert.Equal(t, genai.TypeString, values.Items.AnyOf[1].Type)

	rank := s.Properties["slide_5_page_ranking"].Properties["ranking"].Items.Properties["rank"]
	assert.Equal(t, genai.TypeInteger, rank.Type)
	require.NotNil(t, rank.Minimum)
	assert.Equal(t, 1.0, *rank.Minimum)

	tally := s.Properties["slide_11_conversion"].Properties["table_data"]
	assert.ElementsMatch(t, []string{
		"total_users_viewer", "total_users_non_viewer", "cv_users_viewer", "cv_users_non_viewer",
	}, tally.Required)
}

func TestToSchema_Nil(t *testing.T) {
	assert.Nil(t, ToSchema(nil))
}
