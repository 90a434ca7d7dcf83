package date

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lookback represents a market-data lookback window, expressed in the
// provider's compact form: "1mo", "6mo", "1y", "5y", "ytd" or "max".
type Lookback struct {
	years  int
	months int
	ytd    bool
	max    bool
}

// Predefined lookback windows matching the provider's supported ranges.
var (
	Month1      = Lookback{months: 1}
	Month3      = Lookback{months: 3}
	Month6      = Lookback{months: 6}
	Year1       = Lookback{years: 1}
	Year2       = Lookback{years: 2}
	Year5       = Lookback{years: 5}
	Year10      = Lookback{years: 10}
	YearToDate  = Lookback{ytd: true}
	MaxLookback = Lookback{max: true}
)

// ParseLookback parses a lookback token such as "5y", "6mo", "ytd" or "max".
func ParseLookback(s string) (Lookback, error) {
	tok := strings.ToLower(strings.TrimSpace(s))
	switch tok {
	case "ytd":
		return YearToDate, nil
	case "max":
		return MaxLookback, nil
	}
	if n, ok := strings.CutSuffix(tok, "mo"); ok {
		m, err := strconv.Atoi(n)
		if err != nil || m <= 0 {
			return Lookback{}, fmt.Errorf("invalid lookback %q", s)
		}
		return Lookback{months: m}, nil
	}
	if n, ok := strings.CutSuffix(tok, "y"); ok {
		y, err := strconv.Atoi(n)
		if err != nil || y <= 0 {
			return Lookback{}, fmt.Errorf("invalid lookback %q", s)
		}
		return Lookback{years: y}, nil
	}
	return Lookback{}, fmt.Errorf("invalid lookback %q (want e.g. \"5y\", \"6mo\", \"ytd\" or \"max\")", s)
}

// String returns the canonical token for the lookback.
func (l Lookback) String() string {
	switch {
	case l.max:
		return "max"
	case l.ytd:
		return "ytd"
	case l.months > 0:
		return fmt.Sprintf("%dmo", l.months)
	default:
		return fmt.Sprintf("%dy", l.years)
	}
}

// Range returns the date range covered by the lookback, ending on 'to'.
// A "max" lookback starts at the epoch date 1900-01-01.
func (l Lookback) Range(to Date) Range {
	switch {
	case l.max:
		return Range{From: New(1900, time.January, 1), To: to}
	case l.ytd:
		return Range{From: New(to.Year(), time.January, 1), To: to}
	case l.months > 0:
		return Range{From: New(to.y, to.m-time.Month(l.months), to.d), To: to}
	default:
		return Range{From: New(to.y-l.years, to.m, to.d), To: to}
	}
}

// Years returns the approximate length of the lookback in years, for display.
func (l Lookback) Years(today Date) float64 { return l.Range(today).Years() }

// MarshalJSON encodes the lookback as its canonical token.
func (l Lookback) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(l.String())), nil
}

// UnmarshalJSON decodes a lookback from its token form.
func (l *Lookback) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	v, err := ParseLookback(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalYAML encodes the lookback as its canonical token.
func (l Lookback) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// UnmarshalYAML decodes a lookback from its token form.
func (l *Lookback) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseLookback(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}
