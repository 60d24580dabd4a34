package types

import "github.com/shopspring/decimal"

// SearchResult is a booking projected for display, with its relevance score
type SearchResult struct {
	ID int64 `json:"id"`
	// TransactionDate is formatted with DateLayout
	TransactionDate string          `json:"transactionDate"`
	Amount          decimal.Decimal `json:"amount"`
	MoneyAccountID  string          `json:"moneyAccountId"`
	BookingText     string          `json:"bookingText"`
	Score           float32         `json:"score"`
}

// SearchResponse holds one page of search results
type SearchResponse struct {
	// Total counts every matching booking, not just the returned page
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Results []SearchResult `json:"results"`
}
