// Command token mints a bearer token for an existing user, for local
// development against the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/garnizeh/a11ymon/api"
	"github.com/garnizeh/a11ymon/internal/config"
	"github.com/garnizeh/a11ymon/internal/db"
	"github.com/garnizeh/a11ymon/internal/repository/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	userID := flag.Int64("user", 0, "User id to sign the token for")
	ttl := flag.Duration("ttl", 8*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	u, err := sqlite.New(database, nil).GetUser(ctx, *userID)
	if err != nil || u == nil {
		fmt.Fprintf(os.Stderr, "No user %d: %v\n", *userID, err)
		os.Exit(1)
	}
	tok, err := api.NewToken(cfg.JWTSecret, u.ID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Token error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
