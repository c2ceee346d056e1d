package sheets

import (
	"context"
	"fmt"
	"time"

	"registration-sync-go/internal/models"

	"go.uber.org/zap"
)

// SyncDuePayments mirrors the complete due-payments set to the spreadsheet
// with a full-replace strategy: clear every data row, then rewrite the
// current snapshot. Stale rows cannot survive a sync, and a later sync
// always supersedes an earlier one regardless of arrival order.
func (s *Service) SyncDuePayments(ctx context.Context, rows []models.LedgerRow) error {
	if err := s.EnsureSheet(ctx, s.duePaymentsTab, models.LedgerHeader); err != nil {
		return err
	}

	if err := s.ClearRows(ctx, s.duePaymentsTab); err != nil {
		return err
	}

	values := make([][]interface{}, 0, len(rows))
	for i := range rows {
		values = append(values, rows[i].Values())
	}
	if err := s.WriteRows(ctx, s.duePaymentsTab, values); err != nil {
		return err
	}

	zap.L().Info("Synced due payments to spreadsheet",
		zap.String("sheet", s.duePaymentsTab),
		zap.Int("rows", len(rows)))
	return nil
}

// UserRecordHeader is the header row of the Users tab used by incremental
// record sync.
var UserRecordHeader = []string{
	"Email",
	"Name",
	"Phone",
	"University",
	"Registration Done",
	"Payment Done",
	"Deleted",
}

// SyncUserRecord upserts one user's row into the Users tab, keyed by email,
// without touching unrelated rows.
func (s *Service) SyncUserRecord(ctx context.Context, user *models.User) error {
	const tab = "Users"

	if err := s.EnsureSheet(ctx, tab, UserRecordHeader); err != nil {
		return err
	}

	row := []interface{}{
		user.Email,
		user.Name,
		user.Phone,
		user.UniversityName,
		boolCell(user.RegistrationDone),
		boolCell(user.PaymentDone),
		boolCell(user.Deleted),
	}
	if err := s.UpsertRow(ctx, tab, user.Email, row); err != nil {
		return err
	}

	zap.L().Info("Synced user record to spreadsheet",
		zap.String("sheet", tab),
		zap.String("email", user.Email))
	return nil
}

// FormRecordHeader is the header row of the per-sport roster tabs.
var FormRecordHeader = []string{
	"Form ID",
	"Owner ID",
	"Sport",
	"Status",
	"Players",
	"Updated At",
}

// SyncFormRecord upserts one roster form's row into the given tab, keyed by
// form id.
func (s *Service) SyncFormRecord(ctx context.Context, form *models.Form, tab string) error {
	if err := s.EnsureSheet(ctx, tab, FormRecordHeader); err != nil {
		return err
	}

	row := []interface{}{
		form.Id,
		form.OwnerId,
		form.Title,
		form.Status,
		fmt.Sprintf("%d", form.PlayerCount()),
		form.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.UpsertRow(ctx, tab, form.Id, row); err != nil {
		return err
	}

	zap.L().Info("Synced form record to spreadsheet",
		zap.String("sheet", tab),
		zap.String("form_id", form.Id),
		zap.String("sport", form.Title))
	return nil
}

func boolCell(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
