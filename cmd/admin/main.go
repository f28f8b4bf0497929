package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"anonmatch/backend/internal/api/handler"
	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/logger"
	"anonmatch/backend/internal/storage"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  grant-premium <user_id> <plan_id>  activate a subscription plan for a user
  deactivate <user_id>               hide a profile from matching and broadcasts
  activate <user_id>                 make a profile visible again
  stats                              print the statistics snapshot as JSON
  token [hours]                      print an admin API token (default 24h)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	zl, err := logger.New("anonmatch-admin", cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(context.Background(), cfg, os.Args[1], os.Args[2:]); err != nil {
		zap.S().Errorf("ERROR: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	// token only needs the signing secret.
	if command == "token" {
		return printToken(cfg, args)
	}

	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	s := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	switch command {
	case "grant-premium":
		if len(args) != 2 {
			return errors.New("usage: admin grant-premium <user_id> <plan_id>")
		}
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		planID, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid plan id %q", args[1])
		}
		return grantPremium(ctx, s, userID, uint(planID))
	case "deactivate", "activate":
		if len(args) != 1 {
			return fmt.Errorf("usage: admin %s <user_id>", command)
		}
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		if err := s.SetProfileActive(ctx, userID, command == "activate"); err != nil {
			return err
		}
		fmt.Printf("User %d has been %sd.\n", userID, command)
		return nil
	case "stats":
		stats, err := s.GetStats(ctx)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

func grantPremium(ctx context.Context, s storage.Storage, userID int64, planID uint) error {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("plan %d: %w", planID, err)
	}
	expiresAt, err := s.ActivatePremium(ctx, userID, plan.Duration())
	if err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}
	fmt.Printf("User %d has %s until %s.\n", userID, plan.Name, expiresAt.Format(time.RFC3339))
	return nil
}

func printToken(cfg *config.Config, args []string) error {
	hours := 24
	if len(args) > 0 {
		var err error
		hours, err = strconv.Atoi(args[0])
		if err != nil || hours <= 0 {
			return errors.New("invalid duration, please provide a positive number of hours")
		}
	}
	subject, _ := os.Hostname()
	token, err := handler.GenerateAdminToken(cfg.Admin.JWTSecret, "cli@"+subject, time.Duration(hours)*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
