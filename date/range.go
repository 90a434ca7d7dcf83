package date

// Range represents a range of dates.
type Range struct{ From, To Date }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// Years returns the approximate length of the range in years, for display.
func (r Range) Years() float64 {
	return float64(r.To.time().Sub(r.From.time())/Day) / 365.25
}
