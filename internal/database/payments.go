package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanPayment(scanner interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	var payment models.Payment
	var snapshot sql.NullString
	err := scanner.Scan(&payment.Id, &payment.OwnerId, &payment.Status,
		&payment.TransactionId, &snapshot, &payment.CreatedAt)
	if err != nil {
		return nil, err
	}
	if snapshot.Valid && snapshot.String != "" {
		payment.Snapshot = json.RawMessage(snapshot.String)
	}
	return &payment, nil
}

func (s *Service) GetVerifiedPayments(ctx context.Context) ([]models.Payment, error) {
	zap.L().Debug("Querying verified payments")

	rows, err := s.db.QueryContext(ctx, queryGetVerifiedPayments)
	if err != nil {
		zap.L().Error("Failed to query verified payments", zap.Error(err))
		return nil, fmt.Errorf("unable to query verified payments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			zap.L().Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan payment row: %w", err)
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	return payments, nil
}

func (s *Service) GetVerifiedPaymentByOwner(ctx context.Context, ownerId string) (*models.Payment, error) {
	payment, err := scanPayment(s.db.QueryRowContext(ctx, queryGetVerifiedPaymentByOwner, ownerId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: owner %s", store.ErrPaymentNotFound, ownerId)
		}
		zap.L().Error("Failed to query payment by owner", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, fmt.Errorf("unable to query payment by owner: %w", err)
	}
	return payment, nil
}

// VerifyPayment records a verified payment with its baseline snapshot. The
// snapshot is written once here and read-only afterwards.
func (s *Service) VerifyPayment(ctx context.Context, params store.VerifyPaymentParams) (*models.Payment, error) {
	paymentId := uuid.New().String()

	var snapshot interface{}
	if len(params.Snapshot) > 0 {
		snapshot = string(params.Snapshot)
	}

	_, err := s.db.ExecContext(ctx, queryInsertPayment, paymentId, params.OwnerId,
		models.PaymentStatusVerified, params.TransactionId, snapshot)
	if err != nil {
		zap.L().Error("Failed to insert payment", zap.String("owner_id", params.OwnerId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert payment: %w", err)
	}

	zap.L().Info("Payment verified",
		zap.String("payment_id", paymentId),
		zap.String("owner_id", params.OwnerId),
		zap.String("transaction_id", params.TransactionId))

	return scanPayment(s.db.QueryRowContext(ctx, queryGetVerifiedPaymentByOwner, params.OwnerId))
}
