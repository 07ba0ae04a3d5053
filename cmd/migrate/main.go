package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmercado-dev/shopforge-backend/pkg/config"
	"github.com/dmercado-dev/shopforge-backend/pkg/db"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/migrate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	toVersion := flag.String("to", "", "migrate up/down to a specific version")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" && *toVersion == "" {
		return fmt.Errorf("usage: migrate [-dir DIR] [-to VERSION] COMMAND [args]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "shopforge-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer func() { _ = client.Close() }()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if *toVersion != "" {
		return migrate.MigrateToVersion(ctx, sqlDB, *dir, *toVersion)
	}
	return migrate.Run(ctx, sqlDB, *dir, command, flag.Args()[1:]...)
}
