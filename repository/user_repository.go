package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"grievancedesk/models"
)

// UserRepository reads accounts and maintains the unread flag
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByID retrieves user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT user_id, role, has_notifications
		FROM users
		WHERE user_id = ?
		LIMIT 1`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&u.UserID, &u.Role, &u.HasNotifications)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &u, nil
}

// SetHasNotificationsForRoles raises the unread flag for every user holding
// one of roles. Setting it twice is harmless, so no locking is needed.
func (r *UserRepository) SetHasNotificationsForRoles(ctx context.Context, roles []models.Role) (int64, error) {
	if len(roles) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(roles))
	for _, role := range roles {
		args = append(args, role)
	}
	query := `UPDATE users SET has_notifications = TRUE WHERE role IN (` + placeholders(len(roles)) + `)`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to flag users: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count flagged users: %w", err)
	}
	return n, nil
}

// ClearHasNotifications lowers the unread flag for one user.
func (r *UserRepository) ClearHasNotifications(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET has_notifications = FALSE WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear notification flag: %w", err)
	}
	return nil
}
