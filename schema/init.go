// Package schema: safe database initialization. Creates only missing tables, never drops or overwrites.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type table struct {
	name string
	ddl  string
}

// tables in dependency order: users, complaints, then everything keyed by complaint_id.
var tables = []table{
	{name: "users", ddl: `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    role VARCHAR(64) NOT NULL COMMENT 'Role id from the role catalog',
    full_name VARCHAR(255) NULL,
    has_notifications BOOLEAN NOT NULL DEFAULT FALSE COMMENT 'Unread flag, set on dispatch and cleared on read',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_role (role)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{name: "complaints", ddl: `
CREATE TABLE IF NOT EXISTS complaints (
    complaint_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    status VARCHAR(32) NOT NULL DEFAULT 'Backlog',
    priority VARCHAR(16) NOT NULL DEFAULT 'Normal',
    department VARCHAR(64) NULL,
    category VARCHAR(100) NULL,
    subcategory VARCHAR(100) NULL,
    location VARCHAR(255) NULL,
    linked_complaint_ids VARCHAR(255) NULL COMMENT 'Comma separated complaint ids',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_status_created (status, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{name: "complaint_status_history", ddl: `
CREATE TABLE IF NOT EXISTS complaint_status_history (
    history_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    old_status VARCHAR(32) NOT NULL,
    new_status VARCHAR(32) NOT NULL,
    actor_user_id BIGINT NOT NULL,
    actor_role VARCHAR(64) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id) ON DELETE CASCADE,
    INDEX idx_complaint_created (complaint_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{name: "remarks", ddl: `
CREATE TABLE IF NOT EXISTS remarks (
    remark_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    author_user_id BIGINT NOT NULL,
    author_role VARCHAR(64) NOT NULL,
    visibility ENUM('public', 'internal') NOT NULL DEFAULT 'public',
    notes TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id) ON DELETE CASCADE,
    INDEX idx_complaint_created (complaint_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{name: "notifications", ddl: `
CREATE TABLE IF NOT EXISTS notifications (
    notification_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    target_role VARCHAR(64) NOT NULL,
    type VARCHAR(32) NOT NULL,
    title VARCHAR(255) NOT NULL,
    message TEXT NOT NULL,
    complaint_id BIGINT NOT NULL,
    from_user_id BIGINT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_role_created (target_role, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}

// InitializeDatabase creates any missing table. Existing tables are left as they are;
// ValidateRequiredColumns catches drift afterwards.
func InitializeDatabase(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	logger = logger.Named("schema")
	for _, t := range tables {
		exists, err := tableExists(ctx, db, t.name)
		if err != nil {
			return fmt.Errorf("check table %s: %w", t.name, err)
		}
		if exists {
			logger.Debug("table exists", zap.String("table", t.name))
			continue
		}
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
		logger.Info("created table", zap.String("table", t.name))
	}
	return nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
