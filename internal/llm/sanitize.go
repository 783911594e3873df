package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"

	"github.com/joseph-ayodele/report-generator/internal/entity"
)

// ErrMalformedNumber is returned for multiplier or rate strings that are not
// a plain non-negative decimal with an optional unit suffix.
var ErrMalformedNumber = errors.New("malformed numeric display value")

var displaySuffixes = []string{"倍", "%", "×", "x", "X"}

// DisplayNumber is a validated multiplier or rate string.
type DisplayNumber struct {
	Value  decimal.Decimal
	Suffix string
}

// ParseDisplayNumber accepts values like "2.9", "9.1倍", "12.5%" or "3x".
// Full-width digits are folded first. Signs, words and empty values are rejected.
func ParseDisplayNumber(s string) (DisplayNumber, error) {
	norm := NormalizeDisplayNumber(s)
	if norm == "" {
		return DisplayNumber{}, fmt.Errorf("%w: empty", ErrMalformedNumber)
	}
	num, suffix := norm, ""
	for _, sfx := range displaySuffixes {
		if strings.HasSuffix(norm, sfx) {
			num, suffix = strings.TrimSpace(strings.TrimSuffix(norm, sfx)), sfx
			break
		}
	}
	if num == "" || !isPlainDecimal(num) {
		return DisplayNumber{}, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return DisplayNumber{}, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	return DisplayNumber{Value: d, Suffix: suffix}, nil
}

// NormalizeDisplayNumber trims spaces and folds full-width characters.
func NormalizeDisplayNumber(s string) string {
	return strings.TrimSpace(width.Narrow.String(strings.TrimSpace(s)))
}

// isPlainDecimal allows digits with at most one dot and at least one digit.
// decimal.NewFromString alone would also take exponents and signs.
func isPlainDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// SanitizeDisplayNumbers normalizes every multiplier and rate field in place
// and returns all malformed ones joined into a single error.
func SanitizeDisplayNumbers(d *entity.ReportData) error {
	var errs []error
	check := func(path string, v *string) {
		*v = NormalizeDisplayNumber(*v)
		if _, err := ParseDisplayNumber(*v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	m := &d.Engagement.Metrics
	check("slide_10_engagement.metrics.avg_session_duration_multiplier", &m.AvgSessionDuration)
	check("slide_10_engagement.metrics.pv_per_user_multiplier", &m.PVPerUser)
	check("slide_10_engagement.metrics.return_rate_multiplier", &m.ReturnRate)
	check("slide_10_engagement.metrics.session_pv_multiplier", &m.SessionPV)
	for i := range d.Engagement.TableRows {
		check(fmt.Sprintf("slide_10_engagement.table_rows[%d].multiplier", i), &d.Engagement.TableRows[i].Multiplier)
	}

	c := &d.Conversion
	check("slide_11_conversion.viewer_cvr", &c.ViewerCVR)
	check("slide_11_conversion.non_viewer_cvr", &c.NonViewerCVR)
	check("slide_11_conversion.multiplier", &c.Multiplier)

	return errors.Join(errs...)
}
