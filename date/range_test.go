package date

import (
	"testing"
	"time"
)

func TestRangeContains(t *testing.T) {
	r := Range{From: New(2024, time.January, 2), To: New(2024, time.January, 31)}
	testCases := []struct {
		name string
		in   Date
		want bool
	}{
		{name: "inside", in: New(2024, time.January, 15), want: true},
		{name: "lower boundary", in: New(2024, time.January, 2), want: true},
		{name: "upper boundary", in: New(2024, time.January, 31), want: true},
		{name: "before", in: New(2024, time.January, 1), want: false},
		{name: "after", in: New(2024, time.February, 1), want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Contains(tc.in); got != tc.want {
				t.Errorf("Contains(%s) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestRangeYears(t *testing.T) {
	testCases := []struct {
		name string
		in   Range
		want float64
	}{
		{name: "five years", in: Range{From: New(2019, time.March, 15), To: New(2024, time.March, 14)}, want: 5.0},
		{name: "one year", in: Range{From: New(2023, time.January, 1), To: New(2024, time.January, 1)}, want: 1.0},
		{name: "same day", in: Range{From: New(2024, time.January, 1), To: New(2024, time.January, 1)}, want: 0.0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Years()
			if got < tc.want-0.01 || got > tc.want+0.01 {
				t.Errorf("Years() = %v, want about %v", got, tc.want)
			}
		})
	}
}

func TestLookbackYears(t *testing.T) {
	today := New(2025, time.September, 15)
	got := Year5.Years(today)
	if got < 4.99 || got > 5.01 {
		t.Errorf("Years(%s) = %v, want about 5", today, got)
	}
}
