package domain

import "github.com/shopspring/decimal"

// DashboardStats is the aggregate snapshot shown on the dashboard. It is a
// read-only projection over the ledger, recomputed per request.
type DashboardStats struct {
	ActiveLoans          int64           `json:"activeLoans"`
	DelinquentLoans      int64           `json:"delinquentLoans"`
	OutstandingPrincipal decimal.Decimal `json:"outstandingPrincipal"`
	OverdueAmount        decimal.Decimal `json:"overdueAmount"`
	CollectedThisMonth   decimal.Decimal `json:"collectedThisMonth"`
}
