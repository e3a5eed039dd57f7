package tabular

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. Slashed dates are day-first, as exported by the
// back office.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
}

// ParseAmount parses a monetary cell. The second return is false for blank cells.
// Both "1,234.56" and "1.234,56" are accepted: when both separators appear, the
// last one is the decimal point. A lone comma followed by exactly three digits is
// a thousands separator, otherwise it is the decimal point.
func ParseAmount(s string) (decimal.Decimal, bool, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if clean == "" {
		return decimal.Zero, false, nil
	}

	dot := strings.LastIndex(clean, ".")
	comma := strings.LastIndex(clean, ",")

	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case dot >= 0 && comma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		if strings.Count(clean, ",") > 1 || len(clean)-comma-1 == 3 {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.Replace(clean, ",", ".", 1)
		}
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false, err
	}

	return d, true, nil
}

// AmountOrZero coerces a cell to a number; blank or non-numeric values become zero.
func AmountOrZero(s string) decimal.Decimal {
	d, ok, err := ParseAmount(s)
	if err != nil || !ok {
		return decimal.Zero
	}

	return d
}

// ParseDate parses a date cell. Unparseable and blank values report false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// FormatDate renders dates without a time component as YYYY-MM-DD.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}

	return t.Format(time.DateTime)
}

// MaxDate returns the later of two optional dates; nil values are ignored.
func MaxDate(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

// Blank reports whether a cell is empty after trimming.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
