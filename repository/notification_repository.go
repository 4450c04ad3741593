package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"grievancedesk/models"
)

// NotificationRepository handles database operations for role notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotifications inserts all rows in one statement.
func (r *NotificationRepository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	values := make([]string, 0, len(notifications))
	args := make([]any, 0, len(notifications)*7)
	for _, n := range notifications {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, n.TargetRole, n.Type, n.Title, n.Message, n.ComplaintID, n.FromUserID, n.CreatedAt)
	}
	query := `
		INSERT INTO notifications (
			target_role, type, title, message, complaint_id, from_user_id, created_at
		) VALUES ` + strings.Join(values, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

// ListForRoles returns the newest notifications addressed to any of roles.
func (r *NotificationRepository) ListForRoles(ctx context.Context, roles []models.Role, limit int) ([]models.Notification, error) {
	out := []models.Notification{}
	if len(roles) == 0 || limit <= 0 {
		return out, nil
	}

	args := make([]any, 0, len(roles)+1)
	for _, role := range roles {
		args = append(args, role)
	}
	args = append(args, limit)
	query := `
		SELECT notification_id, target_role, type, title, message, complaint_id, from_user_id, created_at
		FROM notifications
		WHERE target_role IN (` + placeholders(len(roles)) + `)
		ORDER BY created_at DESC, notification_id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.NotificationID,
			&n.TargetRole,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.ComplaintID,
			&n.FromUserID,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
