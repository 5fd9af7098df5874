// Package normalize converts the portal's French-formatted amounts and dates into
// decimal amounts and calendar dates.
package normalize

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // reference timezone must resolve on hosts without zoneinfo

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ReferenceTimezone is the portal's home timezone.
const ReferenceTimezone = "Europe/Paris"

const (
	layoutLongYear  = "02/01/2006"
	layoutShortYear = "02/01/06"
	isoLayout       = "2006-01-02"
)

// Location is the loaded reference timezone.
var Location = mustLoadLocation(ReferenceTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("normalize: loading %s: %v", name, err))
	}
	return loc
}

// ParseAmount parses text such as "-1.234,56" or "38,67" into a value rounded
// to two decimal places. Dots and spaces are thousands separators and the comma
// is the decimal separator.
func ParseAmount(text string) (decimal.Decimal, error) {
	runes := []rune(text)
	var b strings.Builder
	digits := 0
	seenComma := false
	for i, r := range runes {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == ',':
			seenComma = true
			b.WriteRune('.')
		case r == '-' || r == '+':
			b.WriteRune(r)
		case r == '.':
			if seenComma || i == 0 || runes[i-1] < '0' || runes[i-1] > '9' || !isThousandsGroup(runes[i+1:]) {
				return decimal.Zero, fmt.Errorf("ParseAmount: %w: misplaced '.' in %q", apperrors.ErrFormat, text)
			}
		case r == ' ', r == '\u00a0', r == '\u202f', r == '\t':
			// thousands separators
		case r == '\u20ac':
		default:
			return decimal.Zero, fmt.Errorf("ParseAmount: %w: unexpected %q in %q", apperrors.ErrFormat, r, text)
		}
	}
	if digits == 0 {
		return decimal.Zero, fmt.Errorf("ParseAmount: %w: no digit in %q", apperrors.ErrFormat, text)
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %w: %q: %v", apperrors.ErrFormat, text, err)
	}
	return d.Round(2), nil
}

// isThousandsGroup reports whether rest starts with exactly three digits.
func isThousandsGroup(rest []rune) bool {
	if len(rest) < 3 {
		return false
	}
	for _, r := range rest[:3] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(rest) == 3 || rest[3] < '0' || rest[3] > '9'
}

// ParseDate parses DD/MM/YYYY (or the DD/MM/YY form used in statement exports)
// as midnight in the reference timezone.
func ParseDate(text string) (time.Time, error) {
	s := strings.TrimSpace(text)

	var layout string
	switch len(s) {
	case len(layoutLongYear):
		layout = layoutLongYear
	case len(layoutShortYear):
		layout = layoutShortYear
	default:
		return time.Time{}, fmt.Errorf("ParseDate: %w: %q is not DD/MM/YYYY", apperrors.ErrFormat, text)
	}

	t, err := time.ParseInLocation(layout, s, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w: %q: %v", apperrors.ErrFormat, text, err)
	}
	return t, nil
}

// FormatDate renders t as DD/MM/YYYY in the reference timezone.
func FormatDate(t time.Time) string {
	return t.In(Location).Format(layoutLongYear)
}

// ISODate renders t as YYYY-MM-DD in the reference timezone.
func ISODate(t time.Time) string {
	return t.In(Location).Format(isoLayout)
}

// DayKey is the calendar day of t in UTC. A midnight in the reference timezone
// therefore falls on the previous UTC day; stored vendor ids depend on this.
func DayKey(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
