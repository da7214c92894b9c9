package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// StageColumn is a column of the temporary staging table used by a bulk insert.
type StageColumn struct {
	Name string
	Type string
}

// StagedInsert describes a bulk insert that is COPYed into a temporary table
// and then moved into Table, skipping rows that violate ConflictKeys.
// Select is the projection from the stage table onto Columns; it lets
// callers convert staged text into PostGIS geometry or jsonb.
type StagedInsert struct {
	Table        string
	Stage        string
	StageColumns []StageColumn
	Columns      []string
	Select       string
	ConflictKeys []string
}

// InsertIgnoringConflicts runs the staged insert in a single transaction and
// returns the number of rows actually inserted. Either every staged row is
// considered or none is.
func InsertIgnoringConflicts(ctx context.Context, pool Pool, cfg StagedInsert, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.StageColumns) == 0 || len(cfg.Columns) == 0 {
		return 0, fmt.Errorf("bulk insert into %s: no columns specified", cfg.Table)
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, fmt.Errorf("bulk insert into %s: no conflict keys specified", cfg.Table)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk insert into %s: begin tx: %w", cfg.Table, err)
	}
	defer tx.Rollback(ctx)

	stage := cfg.Stage
	if stage == "" {
		stage = "_stage_" + strings.ReplaceAll(cfg.Table, ".", "_")
	}

	stageNames := make([]string, len(cfg.StageColumns))
	stageDefs := make([]string, len(cfg.StageColumns))
	for i, col := range cfg.StageColumns {
		stageNames[i] = col.Name
		stageDefs[i] = pgx.Identifier{col.Name}.Sanitize() + " " + col.Type
	}

	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (%s) ON COMMIT DROP",
		pgx.Identifier{stage}.Sanitize(),
		strings.Join(stageDefs, ", "),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("bulk insert into %s: create stage table: %w", cfg.Table, err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, stageNames, pgx.CopyFromRows(rows)); err != nil {
		return 0, fmt.Errorf("bulk insert into %s: copy into stage table: %w", cfg.Table, err)
	}

	selectList := cfg.Select
	if selectList == "" {
		selectList = quoteAndJoin(stageNames)
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO NOTHING",
		sanitizeTable(cfg.Table),
		quoteAndJoin(cfg.Columns),
		selectList,
		pgx.Identifier{stage}.Sanitize(),
		quoteAndJoin(cfg.ConflictKeys),
	)
	tag, err := tx.Exec(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("bulk insert into %s: insert: %w", cfg.Table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("bulk insert into %s: commit: %w", cfg.Table, err)
	}

	return tag.RowsAffected(), nil
}

// sanitizeTable handles schema-qualified table names like "public.site_analyses".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
