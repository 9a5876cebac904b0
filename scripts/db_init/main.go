package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/garnizeh/a11ymon/api"
	dbfs "github.com/garnizeh/a11ymon/db"
	"github.com/garnizeh/a11ymon/internal/config"
	"github.com/garnizeh/a11ymon/internal/db"
	"github.com/garnizeh/a11ymon/internal/repository/sqlite"
	"github.com/garnizeh/a11ymon/pkg/models"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	adminName := flag.String("admin-name", "", "Create a first user with this display name")
	adminEmail := flag.String("admin-email", "", "Email of the first user")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// run migrations and seed using internal/db.Migrate
	if err := db.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Database initialized successfully.")

	if *adminName == "" && *adminEmail == "" {
		return
	}
	u := &models.User{DisplayName: *adminName, Email: *adminEmail}
	if _, err := sqlite.New(database, nil).CreateUser(ctx, u); err != nil {
		fmt.Fprintf(os.Stderr, "Create user error: %v\n", err)
		os.Exit(1)
	}
	tok, err := api.NewToken(cfg.JWTSecret, u.ID, 24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Token error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created user %d (%s).\nBearer token (24h): %s\n", u.ID, u.Email, tok)
}
