package domain

import "github.com/shopspring/decimal"

// CurrencySummary aggregates lend/borrow totals for one currency.
type CurrencySummary struct {
	Currency            string          `json:"currency"`
	TotalLent           decimal.Decimal `json:"totalLent"`
	TotalBorrowed       decimal.Decimal `json:"totalBorrowed"`
	OutstandingLent     decimal.Decimal `json:"outstandingLent"`
	OutstandingBorrowed decimal.Decimal `json:"outstandingBorrowed"`
}

// LendBorrowSummary is the analytics view over a user's records. No
// cross-currency conversion is performed; per-currency rows carry the
// breakdown and the overdue count spans all currencies.
type LendBorrowSummary struct {
	OverdueCount int               `json:"overdueCount"`
	ActiveCount  int               `json:"activeCount"`
	SettledCount int               `json:"settledCount"`
	ByCurrency   []CurrencySummary `json:"byCurrency"`
}
