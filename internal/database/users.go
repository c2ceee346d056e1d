package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanUser(scanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var user models.User
	var deletedAt sql.NullTime
	err := scanner.Scan(&user.Id, &user.Name, &user.Email, &user.Phone, &user.UniversityName,
		&user.RegistrationDone, &user.PaymentDone, &user.Deleted, &deletedAt,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		user.DeletedAt = &deletedAt.Time
	}
	return &user, nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying active users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.String("user_id", userId))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	zap.L().Debug("Querying user by email", zap.String("email", email))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
		}
		zap.L().Error("Failed to query user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by email: %w", err)
	}
	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, name, email, phone, universityName string) (*models.User, error) {
	userId := uuid.New().String()
	zap.L().Info("Creating user", zap.String("id", userId), zap.String("name", name), zap.String("email", email))

	result, err := s.db.ExecContext(ctx, queryInsertUser, userId, name, email, phone, universityName)
	if err != nil {
		zap.L().Error("Failed to insert user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateUser, email)
	}

	return s.GetUserById(ctx, userId)
}

func (s *Service) UpdateUser(ctx context.Context, userId string, params store.UpdateUserParams) (*models.User, error) {
	var sets []string
	var args []interface{}

	appendSet := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if params.Name != nil {
		appendSet("name", *params.Name)
	}
	if params.Email != nil {
		appendSet("email", *params.Email)
	}
	if params.Phone != nil {
		appendSet("phone", *params.Phone)
	}
	if params.UniversityName != nil {
		appendSet("university_name", *params.UniversityName)
	}
	if params.RegistrationDone != nil {
		appendSet("registration_done", *params.RegistrationDone)
	}
	if params.PaymentDone != nil {
		appendSet("payment_done", *params.PaymentDone)
	}

	if len(sets) == 0 {
		return s.GetUserById(ctx, userId)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, userId)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to update user", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}

	zap.L().Info("User updated", zap.String("user_id", userId), zap.Int("fields", len(sets)-1))
	return s.GetUserById(ctx, userId)
}

func (s *Service) SetUserDeleted(ctx context.Context, userId string, deleted bool) (*models.User, error) {
	var deletedAt interface{}
	if deleted {
		deletedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, querySetUserDeleted, deleted, deletedAt, userId)
	if err != nil {
		zap.L().Error("Failed to set user deleted flag", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}

	zap.L().Info("User soft-delete state changed", zap.String("user_id", userId), zap.Bool("deleted", deleted))
	return s.GetUserById(ctx, userId)
}

func (s *Service) CompleteRegistration(ctx context.Context, email string) (*models.User, error) {
	result, err := s.db.ExecContext(ctx, queryCompleteRegistration, email)
	if err != nil {
		zap.L().Error("Failed to complete registration", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to complete registration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
	}

	zap.L().Info("Registration completed", zap.String("email", email))
	return s.GetUserByEmail(ctx, email)
}
