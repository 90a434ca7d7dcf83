package frontier

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a monetary value in major units, used to display quotes with the
// right currency symbol and fraction.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M builds a Money from a decimal amount and an ISO currency code.
func M(value decimal.Decimal, currency string) Money {
	return Money{value: value, cur: currency}
}

// currency looks the code up through the constructor so it is never nil.
func (m Money) currency() money.Currency {
	return *money.New(0, m.cur).Currency()
}

// String formats the value with the currency's own symbol and fraction.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string { return m.cur }
func (m Money) IsZero() bool     { return m.value.IsZero() }

// Price returns the latest quote as displayable money.
func (q LatestQuote) Price() Money { return M(q.Close, q.Currency) }
