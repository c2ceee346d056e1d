package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"

	"registration-sync-go/internal/common"
	"registration-sync-go/internal/config"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	name := flag.String("name", "", "Full name of the user")
	email := flag.String("email", "", "Email address of the user")
	phone := flag.String("phone", "", "Phone number of the user")
	university := flag.String("university", "", "University or affiliation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if err := validateName(*name); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*email); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	ctx := context.Background()

	dbService, _, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	user, err := dbService.CreateUser(ctx, *name, *email, *phone, *university)
	if err != nil {
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	fmt.Printf("User created:\n")
	fmt.Printf("  ID:         %s\n", user.Id)
	fmt.Printf("  Name:       %s\n", user.Name)
	fmt.Printf("  Email:      %s\n", user.Email)
	fmt.Printf("  University: %s\n", user.UniversityName)
}
