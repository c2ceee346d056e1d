package common

import (
	"context"
	"log"
	"strings"

	"registration-sync-go/internal/database"
	"registration-sync-go/internal/dispatch"
	"registration-sync-go/internal/dmz"
	"registration-sync-go/internal/models"
	"registration-sync-go/internal/reconcile"
	"registration-sync-go/internal/sheets"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService  *database.Service
	Engine     *reconcile.Engine
	Dispatcher *dispatch.Dispatcher
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	engine, err := reconcile.NewEngine(dbService, cfg.Registration)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	// The sheet and allow-list mirrors are best-effort downstreams; a
	// missing or broken configuration disables the sink and is logged,
	// it never prevents the service itself from running.
	var ledgerSink dispatch.LedgerSink
	var recordSink dispatch.RecordSink
	if sheetService := initSheets(ctx, cfg.Sheets); sheetService != nil {
		ledgerSink = sheetService
		recordSink = sheetService
	}

	var allowListSink dispatch.AllowListSink
	if client := initAllowList(cfg.AllowList); client != nil {
		allowListSink = client
	}

	sportTabs, err := LoadSportTabs(cfg.Registration.SportsFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	if len(sportTabs) > 0 {
		zap.L().Info("Loaded sport tab mapping", zap.Int("sports", len(sportTabs)))
	}

	dispatcher := dispatch.NewDispatcher(engine, ledgerSink, recordSink, allowListSink,
		sportTabs, cfg.Registration.SinkTimeout)

	return &Services{
		DbService:  dbService,
		Engine:     engine,
		Dispatcher: dispatcher,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service plus the
// reconciliation engine, without any propagation sinks. Useful for
// read-only tools like the due-payments CLI.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, *reconcile.Engine, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	engine, err := reconcile.NewEngine(dbService, cfg.Registration)
	if err != nil {
		dbService.Close()
		return nil, nil, err
	}

	return dbService, engine, nil
}

func (cs *Services) Close() {
	if cs.Dispatcher != nil {
		cs.Dispatcher.Wait()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func initSheets(ctx context.Context, cfg models.SheetsConfig) *sheets.Service {
	if !cfg.SyncEnabled {
		zap.L().Info("Sheet sync disabled (SHEETS_SYNC_ENABLED=false)")
		return nil
	}
	if cfg.SpreadsheetID == "" {
		zap.L().Warn("No spreadsheet ID configured, sheet sync disabled")
		return nil
	}

	service, err := sheets.NewService(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize sheets service, sheet sync disabled", zap.Error(err))
		return nil
	}
	return service
}

func initAllowList(cfg models.AllowListConfig) *dmz.Client {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		zap.L().Warn("Allow-list API not configured, DMZ sync disabled")
		return nil
	}

	client, err := dmz.NewClient(cfg)
	if err != nil {
		zap.L().Error("Failed to initialize allow-list client, DMZ sync disabled", zap.Error(err))
		return nil
	}
	return client
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
