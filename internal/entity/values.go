package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// MetricValue is a summary cell: the model may send a number or a string.
// Numbers keep every digit of the JSON token; only trailing fraction zeros
// are dropped.
type MetricValue struct {
	Text    string
	Numeric bool
}

// NumberValue builds a numeric MetricValue.
func NumberValue(f float64) MetricValue {
	return MetricValue{Text: strconv.FormatFloat(f, 'f', -1, 64), Numeric: true}
}

// TextValue builds a string MetricValue.
func TextValue(s string) MetricValue {
	return MetricValue{Text: s}
}

func (v MetricValue) String() string { return v.Text }

func (v *MetricValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	d, err := numberToken(b)
	if err != nil {
		return fmt.Errorf("metric value must be a number or string: %w", err)
	}
	*v = MetricValue{Text: d.String(), Numeric: true}
	return nil
}

var errNotNumber = errors.New("not a JSON number")

// numberToken parses a bare JSON number without going through float64.
func numberToken(b []byte) (decimal.Decimal, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == '"' {
		return decimal.Decimal{}, errNotNumber
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}

func (v MetricValue) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		if _, err := decimal.NewFromString(v.Text); err == nil {
			return []byte(v.Text), nil
		}
	}
	return json.Marshal(v.Text)
}

// Count is a non-fractional tally (ranks, views, users). Integral floats such
// as 1200.0 are accepted since the model emits JSON numbers.
type Count int64

var (
	maxCount = decimal.NewFromInt(math.MaxInt64)
	minCount = decimal.NewFromInt(math.MinInt64)
)

func (c *Count) UnmarshalJSON(b []byte) error {
	d, err := numberToken(b)
	if err != nil {
		return fmt.Errorf("count must be a number: %w", err)
	}
	if !d.IsInteger() {
		return fmt.Errorf("count must be an integer, got %s", d)
	}
	if d.GreaterThan(maxCount) || d.LessThan(minCount) {
		return fmt.Errorf("count %s is out of range", d)
	}
	*c = Count(d.IntPart())
	return nil
}

func (c Count) Int64() int64 { return int64(c) }
