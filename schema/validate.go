package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RequiredColumn defines a required column for a table.
type RequiredColumn struct {
	Table  string
	Column string
}

// DefaultRequiredColumns are the columns the repositories read or write that
// older deployments may lack.
var DefaultRequiredColumns = []RequiredColumn{
	{Table: "users", Column: "role"},
	{Table: "users", Column: "has_notifications"},
	{Table: "complaints", Column: "department"},
	{Table: "complaints", Column: "linked_complaint_ids"},
	{Table: "complaint_status_history", Column: "actor_user_id"},
	{Table: "complaint_status_history", Column: "actor_role"},
}

// ValidateRequiredColumns checks that all required columns exist. The server
// should not start when any are missing.
func ValidateRequiredColumns(ctx context.Context, db *sql.DB, required []RequiredColumn, logger *zap.Logger) error {
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	var missing []string
	for _, rc := range required {
		exists, err := columnExists(ctx, db, rc.Table, rc.Column)
		if err != nil {
			return fmt.Errorf("check column %s.%s: %w", rc.Table, rc.Column, err)
		}
		if !exists {
			missing = append(missing, rc.Table+"."+rc.Column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns (run migrations to fix): %s", strings.Join(missing, ", "))
	}
	logger.Named("schema").Info("required columns verified", zap.Int("columns", len(required)))
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.COLUMNS 
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
