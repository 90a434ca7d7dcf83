package frontier

import (
	"fmt"
	"strings"

	"github.com/gmelchiori/frontier/date"
	"github.com/gmelchiori/frontier/yahoo"
	"gonum.org/v1/gonum/mat"
)

// minObservations is the smallest usable history: tickers below it are skipped.
const minObservations = 5

// Skipped records a ticker excluded from a study and why.
type Skipped struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// Table is an aligned daily price table: one row per date on which every
// surviving ticker has a quote, one column per ticker.
type Table struct {
	Tickers []string
	Dates   []date.Date
	Prices  *mat.Dense
}

// NewTable aligns per-ticker series into a price table. Series with fewer
// than minObservations quotes are skipped rather than failing the run; nil
// series (failed downloads) must be reported by the caller as skipped too.
// At least two tickers must survive alignment.
func NewTable(series []*yahoo.Series) (*Table, []Skipped, error) {
	var skipped []Skipped
	var kept []*yahoo.Series
	for _, s := range series {
		if s.Len() < minObservations {
			skipped = append(skipped, Skipped{Ticker: s.Ticker, Reason: "insufficient data"})
			continue
		}
		kept = append(kept, s)
	}

	if len(kept) >= 2 {
		// Inner join on dates: keep only days quoted by every ticker.
		count := make(map[date.Date]int)
		for _, s := range kept {
			for _, q := range s.Quotes {
				count[q.Date]++
			}
		}
		var dates []date.Date
		for _, q := range kept[0].Quotes {
			if count[q.Date] == len(kept) {
				dates = append(dates, q.Date)
			}
		}

		if len(dates) >= minObservations {
			t := &Table{Dates: dates, Prices: mat.NewDense(len(dates), len(kept), nil)}
			index := make(map[date.Date]int, len(dates))
			for i, on := range dates {
				index[on] = i
			}
			for j, s := range kept {
				t.Tickers = append(t.Tickers, s.Ticker)
				for _, q := range s.Quotes {
					if i, ok := index[q.Date]; ok {
						t.Prices.Set(i, j, q.Close.InexactFloat64())
					}
				}
			}
			return t, skipped, nil
		}

		for _, s := range kept {
			skipped = append(skipped, Skipped{Ticker: s.Ticker, Reason: "no overlapping dates"})
		}
		kept = nil
	}

	detail := ""
	if len(skipped) > 0 {
		var parts []string
		for _, sk := range skipped {
			parts = append(parts, fmt.Sprintf("%s (%s)", sk.Ticker, sk.Reason))
		}
		detail = " Skipped: " + strings.Join(parts, ", ") + "."
	}
	return nil, skipped, fmt.Errorf("not enough valid tickers with data, need at least 2 assets.%s", detail)
}

// Column returns the price history of the j-th ticker.
func (t *Table) Column(j int) []float64 {
	rows, _ := t.Prices.Dims()
	col := make([]float64, rows)
	mat.Col(col, j, t.Prices)
	return col
}
