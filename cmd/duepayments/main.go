package main

import (
	"context"
	"fmt"

	"registration-sync-go/internal/common"
	"registration-sync-go/internal/config"
	"registration-sync-go/internal/models"

	"go.uber.org/zap"
)

func printRow(row models.LedgerRow) {
	fmt.Printf("%-25s %-30s %-25s %10d %10d %+6d %12s  %s\n",
		row.UserName,
		row.UserEmail,
		row.UniversityName,
		row.OriginalCount,
		row.CurrentCount,
		row.Difference,
		row.AmountDue.String(),
		row.SportsModified)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	dbService, engine, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	rows, err := engine.AllDuePayments(ctx)
	if err != nil {
		zap.L().Fatal("Failed to compute due payments", zap.Error(err))
	}

	if len(rows) == 0 {
		fmt.Println("No outstanding due payments.")
		return
	}

	fmt.Printf("%-25s %-30s %-25s %10s %10s %6s %12s  %s\n",
		"Name", "Email", "University", "Paid For", "Current", "Delta", "Amount Due", "Sports")
	for _, row := range rows {
		printRow(row)
	}
	fmt.Printf("\n%d user(s) with outstanding balances\n", len(rows))
}
