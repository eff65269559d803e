package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
	"github.com/andresuchdata/replenish/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, postgres.Wrap(sqlx.NewDb(db, "pgx")))
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func runBaselineImport(c *cli.Context) error {
	db, ok := c.Context.Value(dbKey).(*postgres.DB)
	if !ok || db == nil {
		return fmt.Errorf("database not initialized")
	}

	path := c.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	baselines, err := repository.ParseBaselines(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	repo := postgres.NewBaselineRepository(db)
	if err := repo.EnsureSchema(c.Context); err != nil {
		return err
	}
	if err := repo.SaveBaselines(c.Context, baselines); err != nil {
		return err
	}

	logger.Log.Info().Str("file", path).Int("baselines", len(baselines)).Msg("baseline import completed")
	fmt.Fprintf(c.App.Writer, "Imported %d baseline(s) from %s\n", len(baselines), path)
	return nil
}
