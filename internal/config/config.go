package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"registration-sync-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	allowListTimeout, err := getEnvDuration("DMZ_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	sinkTimeout, err := getEnvDuration("SINK_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	perPlayerRate, err := getEnvDecimal("PER_PLAYER_RATE", decimal.NewFromInt(800))
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "registrations.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			CreateDummyData: getEnvBool("CREATE_DUMMY_DATA", false),
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			AdminAPIKey:     getEnvString("ADMIN_API_KEY", ""),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Sheets: models.SheetsConfig{
			SpreadsheetID:     getEnvString("GOOGLE_SHEET_ID", ""),
			ServiceCredential: getEnvString("GOOGLE_SERVICE_CREDENTIAL", ""),
			CredentialFile:    getEnvString("GOOGLE_CREDENTIAL_FILE", ""),
			SyncEnabled:       getEnvBool("SHEETS_SYNC_ENABLED", true),
			DuePaymentsTab:    getEnvString("SHEETS_DUE_PAYMENTS_TAB", "Due Payments"),
		},
		AllowList: models.AllowListConfig{
			BaseURL:      getEnvString("DMZ_API_URL", ""),
			APIKey:       getEnvString("DMZ_API_KEY", ""),
			APIKeyHeader: getEnvString("DMZ_API_KEY_HEADER", "X-API-Key"),
			Timeout:      allowListTimeout,
		},
		Registration: models.RegistrationConfig{
			PerPlayerRate: perPlayerRate,
			Timezone:      getEnvString("LEDGER_TIMEZONE", "Asia/Kolkata"),
			SportsFile:    getEnvString("SPORTS_FILE", "sports.yaml"),
			SinkTimeout:   sinkTimeout,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
