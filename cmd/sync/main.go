package main

import (
	"context"
	"fmt"

	"registration-sync-go/internal/common"
	"registration-sync-go/internal/config"

	"go.uber.org/zap"
)

// One-shot full propagation: refresh the due-payments tab and re-mirror
// every user record, then report per-sink outcomes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := services.DbService.GetUsers(ctx)
	if err != nil {
		zap.L().Fatal("Failed to list users", zap.Error(err))
	}

	zap.L().Info("Starting full sync", zap.Int("users", len(users)))
	services.Dispatcher.FullRefresh(users)
	services.Dispatcher.Wait()

	var succeeded, failed int
	for {
		select {
		case outcome := <-services.Dispatcher.Outcomes():
			if outcome.Err != nil {
				failed++
				fmt.Printf("✗ %-10s %s: %v\n", outcome.Sink, outcome.UserId, outcome.Err)
			} else {
				succeeded++
			}
			continue
		default:
		}
		break
	}

	fmt.Printf("\nFull sync finished: %d sink call(s) succeeded, %d failed\n", succeeded, failed)
}
