package store

import (
	"context"
	"encoding/json"
	"errors"

	"registration-sync-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrDuplicateUser   = errors.New("user with this email already exists")
)

// UpdateUserParams carries the whitelisted fields of an admin user update.
// Nil pointers leave the stored value untouched.
type UpdateUserParams struct {
	Name             *string
	Email            *string
	Phone            *string
	UniversityName   *string
	RegistrationDone *bool
	PaymentDone      *bool
}

// UpsertFormParams captures a per-sport roster form write. A form is matched
// by owner and sport title: one form per sport per user.
type UpsertFormParams struct {
	OwnerId string
	Title   string
	Status  string
	Fields  models.FormFields
}

// VerifyPaymentParams captures a payment verification. Snapshot is the
// baseline frozen at verification time and is never mutated afterwards.
type VerifyPaymentParams struct {
	OwnerId       string
	TransactionId string
	Snapshot      json.RawMessage
}

// Storage defines the contract the reconciliation core and the admin API
// require from a backend. Reconciliation itself only reads; the mutation
// methods exist for the triggering endpoints.
type Storage interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, name, email, phone, universityName string) (*models.User, error)
	UpdateUser(ctx context.Context, userId string, params UpdateUserParams) (*models.User, error)
	SetUserDeleted(ctx context.Context, userId string, deleted bool) (*models.User, error)
	CompleteRegistration(ctx context.Context, email string) (*models.User, error)

	// --- Forms ---
	GetForms(ctx context.Context, ownerId string) ([]models.Form, error)
	UpsertForm(ctx context.Context, params UpsertFormParams) (*models.Form, error)

	// --- Payments ---
	GetVerifiedPayments(ctx context.Context) ([]models.Payment, error)
	GetVerifiedPaymentByOwner(ctx context.Context, ownerId string) (*models.Payment, error)
	VerifyPayment(ctx context.Context, params VerifyPaymentParams) (*models.Payment, error)

	// --- Lifecycle ---
	Close()
}
