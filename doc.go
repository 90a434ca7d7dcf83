// Package frontier implements Markowitz mean-variance portfolio studies: it
// turns a set of tickers, a lookback window and a risk-free rate into
// annualized return and covariance estimates, the minimum-variance and
// maximum-Sharpe portfolios, the efficient frontier, and a cloud of random
// portfolios, and persists the whole run as a named "study" that can be
// listed and reloaded later.
package frontier
