package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SportDelta is the per-sport breakdown entry of a reconciliation result.
// Only sports whose roster size changed relative to the baseline are recorded.
type SportDelta struct {
	FormId          string
	Sport           string
	BaselinePlayers int
	CurrentPlayers  int
	Difference      int
}

// ReconciliationResult compares what a user paid for against their current
// roster state across all of their forms. It is derived, never persisted:
// re-running reconciliation on unchanged state yields an identical result.
type ReconciliationResult struct {
	UserId         string
	UserName       string
	UserEmail      string
	UniversityName string
	PaymentId      string
	TransactionId  string
	TotalBaseline  int
	TotalCurrent   int
	TotalDelta     int
	AmountDue      decimal.Decimal
	Sports         []SportDelta
}

// Due reports whether the user owes for added players. Zero or negative
// deltas are informational only; this pipeline never bills negatively.
func (r *ReconciliationResult) Due() bool {
	return r.TotalDelta > 0
}

// SportsModified renders the per-sport breakdown as a human-readable list,
// e.g. "Football (+2), Cricket (-1)".
func (r *ReconciliationResult) SportsModified() string {
	parts := make([]string, 0, len(r.Sports))
	for _, s := range r.Sports {
		parts = append(parts, fmt.Sprintf("%s (%+d)", s.Sport, s.Difference))
	}
	return strings.Join(parts, ", ")
}

// LedgerHeader is the header row of the due-payments spreadsheet tab.
var LedgerHeader = []string{
	"Date",
	"Time",
	"User Name",
	"Email",
	"University",
	"Original Transaction ID",
	"Sports Modified",
	"Original Players",
	"Current Players",
	"Additional Players",
	"Amount Due",
	"Status",
}

// LedgerRow is one outstanding-balance row of the due-payments ledger.
type LedgerRow struct {
	Date           string
	Time           string
	UserName       string
	UserEmail      string
	UniversityName string
	TransactionId  string
	SportsModified string
	OriginalCount  int
	CurrentCount   int
	Difference     int
	AmountDue      decimal.Decimal
	Status         string
}

// Values flattens the row into spreadsheet cells, in LedgerHeader order.
func (r *LedgerRow) Values() []interface{} {
	return []interface{}{
		r.Date,
		r.Time,
		r.UserName,
		r.UserEmail,
		r.UniversityName,
		r.TransactionId,
		r.SportsModified,
		fmt.Sprintf("%d", r.OriginalCount),
		fmt.Sprintf("%d", r.CurrentCount),
		fmt.Sprintf("%d", r.Difference),
		r.AmountDue.String(),
		r.Status,
	}
}
