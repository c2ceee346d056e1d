package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Sheets       SheetsConfig
	AllowList    AllowListConfig
	Registration RegistrationConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	CreateDummyData bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	AdminAPIKey     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SheetsConfig holds Google Sheets mirror settings
type SheetsConfig struct {
	SpreadsheetID     string
	ServiceCredential string // service-account JSON key
	CredentialFile    string // alternative: path to the JSON key file
	SyncEnabled       bool
	DuePaymentsTab    string
}

// AllowListConfig holds DMZ allow-list API settings
type AllowListConfig struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
}

// RegistrationConfig holds reconciliation settings
type RegistrationConfig struct {
	PerPlayerRate decimal.Decimal // amount due per extra roster player
	Timezone      string          // IANA zone for ledger row timestamps
	SportsFile    string          // sport title -> sheet tab mapping
	SinkTimeout   time.Duration   // per external call during propagation
}
