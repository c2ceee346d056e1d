package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"registration-sync-go/internal/models"
	"registration-sync-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.Storage.
var _ store.Storage = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(cfg.CreateDummyData); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema(createDummyData bool) error {
	schema := `
	-- Create users table
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		university_name TEXT NOT NULL DEFAULT '',
		registration_done BOOLEAN NOT NULL DEFAULT 0,
		payment_done BOOLEAN NOT NULL DEFAULT 0,
		deleted BOOLEAN NOT NULL DEFAULT 0,
		deleted_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_deleted ON users(deleted);

	-- Create forms table: one roster submission per sport per user
	CREATE TABLE IF NOT EXISTS forms (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		fields TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(owner_id, title)
	);

	CREATE INDEX IF NOT EXISTS idx_forms_owner ON forms(owner_id);

	-- Create payments table; snapshot is frozen at verification time
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		snapshot TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_payments_owner ON payments(owner_id);
	CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	if createDummyData {
		s.seedDummyData()
	} else {
		zap.L().Info("Skipping dummy data creation (CREATE_DUMMY_DATA=false)")
	}

	return nil
}

// seedDummyData inserts a small registration fixture for local runs: two
// users with verified payments, one of whom has grown their roster past the
// paid-for baseline.
func (s *Service) seedDummyData() {
	ctx := context.Background()

	seeds := []struct {
		name       string
		email      string
		phone      string
		university string
		sport      string
		players    int
		baseline   int
	}{
		{"Alice Johnson", "alice.johnson@example.com", "+911234500001", "Delhi University", "Football", 13, 11},
		{"Bob Smith", "bob.smith@example.com", "+911234500002", "Mumbai University", "Cricket", 15, 15},
	}

	for _, seed := range seeds {
		user, err := s.CreateUser(ctx, seed.name, seed.email, seed.phone, seed.university)
		if err != nil {
			zap.L().Error("Failed to insert dummy user", zap.String("name", seed.name), zap.Error(err))
			continue
		}

		fields := models.FormFields{PlayerFields: make([]models.PlayerField, seed.players)}
		for i := range fields.PlayerFields {
			fields.PlayerFields[i] = models.PlayerField{
				Name:  fmt.Sprintf("%s Player %d", seed.sport, i+1),
				Email: fmt.Sprintf("player%d.%s@example.com", i+1, user.Id[:8]),
				Phone: fmt.Sprintf("+9112345%05d", i+1),
			}
		}

		if _, err := s.UpsertForm(ctx, store.UpsertFormParams{
			OwnerId: user.Id,
			Title:   seed.sport,
			Status:  models.FormStatusSubmitted,
			Fields:  fields,
		}); err != nil {
			zap.L().Error("Failed to insert dummy form", zap.String("sport", seed.sport), zap.Error(err))
			continue
		}

		snapshot, _ := json.Marshal(models.BaselineSnapshot{
			SubmittedForms: map[string]models.BaselineForm{
				seed.sport: {Players: seed.baseline},
			},
		})
		if _, err := s.VerifyPayment(ctx, store.VerifyPaymentParams{
			OwnerId:       user.Id,
			TransactionId: fmt.Sprintf("TXN-%s", user.Id[:8]),
			Snapshot:      snapshot,
		}); err != nil {
			zap.L().Error("Failed to insert dummy payment", zap.String("user_id", user.Id), zap.Error(err))
			continue
		}

		zap.L().Info("Dummy registration created",
			zap.String("user_id", user.Id),
			zap.String("name", seed.name),
			zap.String("sport", seed.sport),
			zap.Int("players", seed.players),
			zap.Int("baseline", seed.baseline))
	}
}
