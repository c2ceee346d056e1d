package database

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/store"
)

func setupTestDB(t *testing.T) (*Service, func()) {
	t.Helper()

	// Single connection so every query sees the same in-memory database.
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return service, service.Close
}

func TestCreateAndGetUser(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice Johnson", "alice@example.com", "+911234500001", "Delhi University")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Id == "" {
		t.Error("Expected generated user ID")
	}
	if user.Deleted {
		t.Error("New user must not be deleted")
	}

	byId, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if byId.Email != "alice@example.com" || byId.UniversityName != "Delhi University" {
		t.Errorf("Unexpected user: %+v", byId)
	}

	byEmail, err := service.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.Id != user.Id {
		t.Errorf("Expected same user, got %s vs %s", byEmail.Id, user.Id)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", ""); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err := service.CreateUser(ctx, "Alice Again", "alice@example.com", "", "")
	if !errors.Is(err, store.ErrDuplicateUser) {
		t.Errorf("Expected ErrDuplicateUser, got %v", err)
	}
}

func TestGetUserById_NotFound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.GetUserById(context.Background(), "does-not-exist")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUser_PartialFields(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice", "alice@example.com", "+911234500001", "Delhi University")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	newEmail := "alice.new@example.com"
	done := true
	updated, err := service.UpdateUser(ctx, user.Id, store.UpdateUserParams{
		Email:       &newEmail,
		PaymentDone: &done,
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	if updated.Email != newEmail {
		t.Errorf("Expected updated email, got %s", updated.Email)
	}
	if !updated.PaymentDone {
		t.Error("Expected payment done flag set")
	}
	// Untouched fields keep their values.
	if updated.Name != "Alice" || updated.Phone != "+911234500001" {
		t.Errorf("Untouched fields changed: %+v", updated)
	}
}

func TestUpdateUser_NoFieldsIsNoop(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	same, err := service.UpdateUser(ctx, user.Id, store.UpdateUserParams{})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if same.Email != user.Email || same.Name != user.Name {
		t.Errorf("Noop update changed user: %+v", same)
	}
}

func TestSetUserDeleted_HidesFromListing(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	deleted, err := service.SetUserDeleted(ctx, user.Id, true)
	if err != nil {
		t.Fatalf("SetUserDeleted failed: %v", err)
	}
	if !deleted.Deleted || deleted.DeletedAt == nil {
		t.Errorf("Expected deleted flag and timestamp, got %+v", deleted)
	}

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Deleted user must not be listed, got %d users", len(users))
	}

	// Direct lookup still resolves, so propagation can act on the record.
	if _, err := service.GetUserById(ctx, user.Id); err != nil {
		t.Errorf("GetUserById must resolve deleted users: %v", err)
	}

	restored, err := service.SetUserDeleted(ctx, user.Id, false)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Deleted || restored.DeletedAt != nil {
		t.Errorf("Expected restored user, got %+v", restored)
	}

	users, err = service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Restored user must be listed again, got %d users", len(users))
	}
}

func TestCompleteRegistration(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", ""); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user, err := service.CompleteRegistration(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("CompleteRegistration failed: %v", err)
	}
	if !user.RegistrationDone {
		t.Error("Expected registration done flag set")
	}

	_, err = service.CompleteRegistration(ctx, "nobody@example.com")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpsertForm_InsertThenUpdate(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	form, err := service.UpsertForm(ctx, store.UpsertFormParams{
		OwnerId: user.Id,
		Title:   "Football",
		Status:  models.FormStatusSubmitted,
		Fields: models.FormFields{PlayerFields: []models.PlayerField{
			{Name: "P1", Email: "p1@example.com", Phone: "+911"},
			{Name: "P2", Email: "p2@example.com", Phone: "+912"},
		}},
	})
	if err != nil {
		t.Fatalf("Insert upsert failed: %v", err)
	}
	if form.PlayerCount() != 2 {
		t.Errorf("Expected 2 players, got %d", form.PlayerCount())
	}

	// Same owner and title: the existing form is replaced, not duplicated.
	grown, err := service.UpsertForm(ctx, store.UpsertFormParams{
		OwnerId: user.Id,
		Title:   "Football",
		Status:  models.FormStatusSubmitted,
		Fields:  models.FormFields{PlayerFields: make([]models.PlayerField, 5)},
	})
	if err != nil {
		t.Fatalf("Update upsert failed: %v", err)
	}
	if grown.Id != form.Id {
		t.Errorf("Upsert must keep the form ID, got %s vs %s", grown.Id, form.Id)
	}
	if grown.PlayerCount() != 5 {
		t.Errorf("Expected 5 players after update, got %d", grown.PlayerCount())
	}

	forms, err := service.GetForms(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetForms failed: %v", err)
	}
	if len(forms) != 1 {
		t.Errorf("Expected exactly one form, got %d", len(forms))
	}
}

func TestUpsertForm_DefaultsToDraft(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	form, err := service.UpsertForm(ctx, store.UpsertFormParams{OwnerId: user.Id, Title: "Chess"})
	if err != nil {
		t.Fatalf("UpsertForm failed: %v", err)
	}
	if form.Status != models.FormStatusDraft {
		t.Errorf("Expected draft status, got %s", form.Status)
	}
	if form.PlayerCount() != 0 {
		t.Errorf("Empty form must count zero players, got %d", form.PlayerCount())
	}
}

func TestVerifyPayment_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	snapshot, _ := json.Marshal(models.BaselineSnapshot{
		SubmittedForms: map[string]models.BaselineForm{"Football": {Players: 11}},
	})

	payment, err := service.VerifyPayment(ctx, store.VerifyPaymentParams{
		OwnerId:       user.Id,
		TransactionId: "TXN-001",
		Snapshot:      snapshot,
	})
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}
	if payment.Status != models.PaymentStatusVerified {
		t.Errorf("Expected verified status, got %s", payment.Status)
	}

	var decoded models.BaselineSnapshot
	if err := json.Unmarshal(payment.Snapshot, &decoded); err != nil {
		t.Fatalf("Snapshot did not round-trip: %v", err)
	}
	if decoded.SubmittedForms["Football"].Players != 11 {
		t.Errorf("Unexpected snapshot contents: %+v", decoded)
	}

	listed, err := service.GetVerifiedPayments(ctx)
	if err != nil {
		t.Fatalf("GetVerifiedPayments failed: %v", err)
	}
	if len(listed) != 1 || listed[0].TransactionId != "TXN-001" {
		t.Errorf("Unexpected verified payments: %+v", listed)
	}
}

func TestGetVerifiedPaymentByOwner_ReturnsLatest(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "Alice", "alice@example.com", "", "")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := service.VerifyPayment(ctx, store.VerifyPaymentParams{OwnerId: user.Id, TransactionId: "TXN-OLD"}); err != nil {
		t.Fatalf("First VerifyPayment failed: %v", err)
	}
	// created_at has second granularity; force distinct ordering.
	if _, err := service.db.Exec("UPDATE payments SET created_at = datetime('now', '-1 hour') WHERE transaction_id = 'TXN-OLD'"); err != nil {
		t.Fatalf("Failed to backdate payment: %v", err)
	}
	if _, err := service.VerifyPayment(ctx, store.VerifyPaymentParams{OwnerId: user.Id, TransactionId: "TXN-NEW"}); err != nil {
		t.Fatalf("Second VerifyPayment failed: %v", err)
	}

	payment, err := service.GetVerifiedPaymentByOwner(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetVerifiedPaymentByOwner failed: %v", err)
	}
	if payment.TransactionId != "TXN-NEW" {
		t.Errorf("Expected most recent payment, got %s", payment.TransactionId)
	}
}

func TestGetVerifiedPaymentByOwner_NotFound(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.GetVerifiedPaymentByOwner(context.Background(), "nobody")
	if !errors.Is(err, store.ErrPaymentNotFound) {
		t.Errorf("Expected ErrPaymentNotFound, got %v", err)
	}
}

func TestDummyDataSeed(t *testing.T) {
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		PingTimeout:     5 * time.Second,
		CreateDummyData: true,
	})
	if err != nil {
		t.Fatalf("Failed to open seeded database: %v", err)
	}
	defer service.Close()

	ctx := context.Background()
	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 seeded users, got %d", len(users))
	}

	payments, err := service.GetVerifiedPayments(ctx)
	if err != nil {
		t.Fatalf("GetVerifiedPayments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Errorf("Expected 2 seeded payments, got %d", len(payments))
	}
}
