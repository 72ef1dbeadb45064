package persist

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// schema holds the match result tables, one goose file per version.
//
//go:embed migrations/*.sql
var schema embed.FS

const schemaDir = "migrations"

// RunMigrations brings the matches and match_scores tables up to the
// newest embedded version and returns that version.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(schema)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("match schema dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, schemaDir); err != nil {
		return 0, fmt.Errorf("migrate match schema: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("match schema version: %w", err)
	}
	return version, nil
}
