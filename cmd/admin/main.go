// Package main provides admin management utilities for pixelpost.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"pixelpost/internal/config"
	"pixelpost/internal/database"
	"pixelpost/internal/models"
	"pixelpost/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <user_id|username>   - Promote user to admin")
		fmt.Println("  go run ./cmd/admin demote <user_id|username>    - Demote user from admin")
		fmt.Println("  go run ./cmd/admin list-admins                  - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id|username>\n", command)
			os.Exit(1)
		}
		if err := setAdmin(ctx, users, os.Args[2], command == "promote"); err != nil {
			log.Fatal(err)
		}
	case "list-admins":
		if err := listAdmins(ctx, users); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func lookup(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return users.GetByID(ctx, uint(id))
	}
	user, err := users.GetByUsername(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", ref)
	}
	return user, nil
}

func setAdmin(ctx context.Context, users repository.UserRepository, ref string, admin bool) error {
	user, err := lookup(ctx, users, ref)
	if err != nil {
		return err
	}
	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has admin=%t\n", user.Username, user.ID, admin)
		return nil
	}
	if err := users.SetAdmin(ctx, user.ID, admin); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	verb := "demoted"
	if admin {
		verb = "promoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
	return nil
}

func listAdmins(ctx context.Context, users repository.UserRepository) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("fetch admins: %w", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return nil
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
	return nil
}
