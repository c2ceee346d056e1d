package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/store"

	"go.uber.org/zap"
)

// LedgerStatusPending marks a ledger row awaiting manual settlement. This
// system only tracks that a balance exists, not its payment.
const LedgerStatusPending = "Pending"

// DueReconciliations runs reconciliation over every verified payment and
// returns the results with a positive delta. Users with forms but no
// verified payment are intentionally never evaluated: they owe nothing
// relative to a payment. Payments whose owner is missing are skipped the
// same way orphaned records are skipped during admin review.
func (e *Engine) DueReconciliations(ctx context.Context) ([]models.ReconciliationResult, error) {
	payments, err := e.storage.GetVerifiedPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list verified payments: %w", err)
	}

	var due []models.ReconciliationResult
	for i := range payments {
		result, err := e.Reconcile(ctx, &payments[i])
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				zap.L().Warn("Skipping payment without resolvable owner",
					zap.String("payment_id", payments[i].Id),
					zap.String("owner_id", payments[i].OwnerId))
				continue
			}
			return nil, err
		}
		if result.Due() {
			due = append(due, *result)
		}
	}

	return due, nil
}

// AllDuePayments materializes the current due-payments ledger: one row per
// user who owes for added players, formatted for display and for the
// full-replace spreadsheet sync.
func (e *Engine) AllDuePayments(ctx context.Context) ([]models.LedgerRow, error) {
	results, err := e.DueReconciliations(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(e.loc)
	rows := make([]models.LedgerRow, 0, len(results))
	for i := range results {
		rows = append(rows, e.ledgerRow(&results[i], now))
	}

	zap.L().Info("Computed due-payments ledger", zap.Int("rows", len(rows)))
	return rows, nil
}

func (e *Engine) ledgerRow(r *models.ReconciliationResult, now time.Time) models.LedgerRow {
	return models.LedgerRow{
		Date:           now.Format("02/01/2006"),
		Time:           now.Format("03:04 PM"),
		UserName:       orNA(r.UserName),
		UserEmail:      orNA(r.UserEmail),
		UniversityName: orNA(r.UniversityName),
		TransactionId:  orNA(r.TransactionId),
		SportsModified: r.SportsModified(),
		OriginalCount:  r.TotalBaseline,
		CurrentCount:   r.TotalCurrent,
		Difference:     r.TotalDelta,
		AmountDue:      r.AmountDue,
		Status:         LedgerStatusPending,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
