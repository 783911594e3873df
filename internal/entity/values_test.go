package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricValue_Unmarshal(t *testing.T) {
	var vals []MetricValue
	require.NoError(t, json.Unmarshal([]byte(`[12, 135000.0, "1.9%", 0.25]`), &vals))
	require.Len(t, vals, 4)

	assert.Equal(t, "12", vals[0].String())
	assert.True(t, vals[0].Numeric)
	assert.Equal(t, "135000", vals[1].String())
	assert.Equal(t, "1.9%", vals[2].String())
	assert.False(t, vals[2].Numeric)
	assert.Equal(t, "0.25", vals[3].String())

	var bad MetricValue
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))
}

func TestMetricValue_KeepsAllDigits(t *testing.T) {
	var vals []MetricValue
	require.NoError(t, json.Unmarshal([]byte(`[12345678901234567891, 0.1000, 1.5e3]`), &vals))
	require.Len(t, vals, 3)
	assert.Equal(t, "12345678901234567891", vals[0].String())
	assert.Equal(t, "0.1", vals[1].String())
	assert.Equal(t, "1500", vals[2].String())

	b, err := json.Marshal(vals[0])
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567891", string(b))
}

func TestMetricValue_MarshalKeepsKind(t *testing.T) {
	b, err := json.Marshal([]MetricValue{NumberValue(3), TextValue("3")})
	require.NoError(t, err)
	assert.JSONEq(t, `[3, "3"]`, string(b))
}

func TestCount_Unmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"52000", 52000, true},
		{"1200.0", 1200, true},
		{"1.5", 0, false},
		{`"10"`, 0, false},
		{"1e20", 0, false},
		{"9223372036854775807", 9223372036854775807, true},
		{"9223372036854775808", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var c Count
			err := json.Unmarshal([]byte(tc.in), &c)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Int64())
		})
	}
}

func TestSummaryRagged(t *testing.T) {
	s := SummarySection{
		Headers: []string{"7月", "8月"},
		Metrics: []SummaryMetric{
			{Label: "視聴回数", Values: []MetricValue{NumberValue(1), NumberValue(2)}},
			{Label: "CTR", Values: []MetricValue{TextValue("1%")}},
		},
	}
	assert.Equal(t, []string{"CTR"}, s.Ragged())
}
