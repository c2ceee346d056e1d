package reconcile

import (
	"context"
	"fmt"
	"time"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine compares the player counts a user paid for against their current
// roster state and computes the outstanding amount. It is a pure
// read-then-compute: nothing is persisted, so re-running it on unchanged
// state yields an identical result.
type Engine struct {
	storage store.Storage
	rate    decimal.Decimal
	loc     *time.Location
}

func NewEngine(storage store.Storage, cfg models.RegistrationConfig) (*Engine, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if !cfg.PerPlayerRate.IsPositive() {
		return nil, fmt.Errorf("per-player rate must be positive, got %s", cfg.PerPlayerRate)
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid ledger timezone %q: %w", cfg.Timezone, err)
		}
	}

	return &Engine{storage: storage, rate: cfg.PerPlayerRate, loc: loc}, nil
}

// CurrentCounts returns the live player count per sport for a user, derived
// from the roster lists of all their forms. A form without a field bag
// counts as zero players.
func (e *Engine) CurrentCounts(ctx context.Context, userId string) (map[string]int, error) {
	forms, err := e.storage.GetForms(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to read forms for user %s: %w", userId, err)
	}

	counts := make(map[string]int, len(forms))
	for i := range forms {
		counts[forms[i].Title] = forms[i].PlayerCount()
	}
	return counts, nil
}

// Reconcile computes the reconciliation result for the owner of a verified
// payment. Storage failures propagate; a missing owner is reported as
// store.ErrUserNotFound so bulk callers can skip orphaned payments.
func (e *Engine) Reconcile(ctx context.Context, payment *models.Payment) (*models.ReconciliationResult, error) {
	if payment.OwnerId == "" {
		return nil, fmt.Errorf("%w: payment %s has no owner", store.ErrUserNotFound, payment.Id)
	}

	user, err := e.storage.GetUserById(ctx, payment.OwnerId)
	if err != nil {
		return nil, err
	}

	forms, err := e.storage.GetForms(ctx, payment.OwnerId)
	if err != nil {
		return nil, fmt.Errorf("unable to read forms for user %s: %w", payment.OwnerId, err)
	}

	snapshot := decodeSnapshot(payment.Snapshot)

	result := &models.ReconciliationResult{
		UserId:         user.Id,
		UserName:       user.Name,
		UserEmail:      user.Email,
		UniversityName: user.UniversityName,
		PaymentId:      payment.Id,
		TransactionId:  payment.TransactionId,
		AmountDue:      decimal.Zero,
	}

	for i := range forms {
		form := &forms[i]
		current := form.PlayerCount()
		baseline := baselineFor(snapshot, form.Title, current)
		difference := current - baseline

		if difference != 0 {
			result.Sports = append(result.Sports, models.SportDelta{
				FormId:          form.Id,
				Sport:           form.Title,
				BaselinePlayers: baseline,
				CurrentPlayers:  current,
				Difference:      difference,
			})
		}

		result.TotalBaseline += baseline
		result.TotalCurrent += current
	}

	result.TotalDelta = result.TotalCurrent - result.TotalBaseline
	if result.TotalDelta > 0 {
		result.AmountDue = e.rate.Mul(decimal.NewFromInt(int64(result.TotalDelta)))
	}

	zap.L().Debug("Reconciled user",
		zap.String("user_id", user.Id),
		zap.Int("baseline", result.TotalBaseline),
		zap.Int("current", result.TotalCurrent),
		zap.Int("delta", result.TotalDelta),
		zap.String("amount_due", result.AmountDue.String()))

	return result, nil
}

// ReconcileUser runs reconciliation for a single user, resolving their most
// recent verified payment first. Users without a verified payment are out of
// scope for this pipeline and surface as store.ErrPaymentNotFound.
func (e *Engine) ReconcileUser(ctx context.Context, userId string) (*models.ReconciliationResult, error) {
	payment, err := e.storage.GetVerifiedPaymentByOwner(ctx, userId)
	if err != nil {
		return nil, err
	}
	return e.Reconcile(ctx, payment)
}
