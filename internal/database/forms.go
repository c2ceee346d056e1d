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

func scanForm(scanner interface{ Scan(...interface{}) error }) (*models.Form, error) {
	var form models.Form
	var fieldsJSON string
	err := scanner.Scan(&form.Id, &form.OwnerId, &form.Title, &form.Status, &fieldsJSON,
		&form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &form.Fields); err != nil {
			return nil, fmt.Errorf("malformed fields for form %s: %w", form.Id, err)
		}
	}
	return &form, nil
}

func (s *Service) GetForms(ctx context.Context, ownerId string) ([]models.Form, error) {
	zap.L().Debug("Querying forms by owner", zap.String("owner_id", ownerId))

	rows, err := s.db.QueryContext(ctx, queryGetFormsByOwner, ownerId)
	if err != nil {
		zap.L().Error("Failed to query forms", zap.String("owner_id", ownerId), zap.Error(err))
		return nil, fmt.Errorf("unable to query forms: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var forms []models.Form
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			zap.L().Error("Failed to scan form row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan form row: %w", err)
		}
		forms = append(forms, *form)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating form rows: %w", err)
	}

	return forms, nil
}

// UpsertForm writes a roster form, matching an existing form by owner and
// sport title so each user keeps at most one form per sport.
func (s *Service) UpsertForm(ctx context.Context, params store.UpsertFormParams) (*models.Form, error) {
	if params.Status == "" {
		params.Status = models.FormStatusDraft
	}

	fieldsJSON, err := json.Marshal(params.Fields)
	if err != nil {
		return nil, fmt.Errorf("unable to encode form fields: %w", err)
	}

	existing, err := scanForm(s.db.QueryRowContext(ctx, queryGetFormByOwnerTitle, params.OwnerId, params.Title))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		zap.L().Error("Failed to look up form", zap.String("owner_id", params.OwnerId),
			zap.String("title", params.Title), zap.Error(err))
		return nil, fmt.Errorf("unable to look up form: %w", err)
	}

	if existing != nil {
		if _, err := s.db.ExecContext(ctx, queryUpdateForm, params.Status, string(fieldsJSON), existing.Id); err != nil {
			zap.L().Error("Failed to update form", zap.String("form_id", existing.Id), zap.Error(err))
			return nil, fmt.Errorf("unable to update form: %w", err)
		}
		zap.L().Info("Form updated",
			zap.String("form_id", existing.Id),
			zap.String("owner_id", params.OwnerId),
			zap.String("sport", params.Title),
			zap.Int("players", len(params.Fields.PlayerFields)))
		return scanForm(s.db.QueryRowContext(ctx, queryGetFormByOwnerTitle, params.OwnerId, params.Title))
	}

	formId := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryInsertForm, formId, params.OwnerId, params.Title, params.Status, string(fieldsJSON)); err != nil {
		zap.L().Error("Failed to insert form", zap.String("owner_id", params.OwnerId),
			zap.String("title", params.Title), zap.Error(err))
		return nil, fmt.Errorf("unable to insert form: %w", err)
	}

	zap.L().Info("Form created",
		zap.String("form_id", formId),
		zap.String("owner_id", params.OwnerId),
		zap.String("sport", params.Title),
		zap.Int("players", len(params.Fields.PlayerFields)))
	return scanForm(s.db.QueryRowContext(ctx, queryGetFormByOwnerTitle, params.OwnerId, params.Title))
}
