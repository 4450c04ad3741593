package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"grievancedesk/models"
)

// ComplaintRepository handles database operations for complaints
type ComplaintRepository struct {
	db *sql.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// StatusMutation is the change a MutateStatus callback decides on.
type StatusMutation struct {
	Change models.StatusChange
	// Empty keeps the current department.
	Department models.Department
}

const complaintColumns = `
			complaint_id, status, priority, department, category, subcategory,
			location, linked_complaint_ids, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(
		&c.ComplaintID,
		&c.Status,
		&c.Priority,
		&c.Department,
		&c.Category,
		&c.Subcategory,
		&c.Location,
		&c.LinkedComplaintIDs,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetComplaintByID retrieves a complaint by its ID
func (r *ComplaintRepository) GetComplaintByID(ctx context.Context, complaintID int64) (*models.Complaint, error) {
	query := `SELECT` + complaintColumns + `
		FROM complaints
		WHERE complaint_id = ?`

	c, err := scanComplaint(r.db.QueryRowContext(ctx, query, complaintID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("complaint %d: %w", complaintID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return c, nil
}

// MutateStatus locks the complaint row, lets decide validate the change
// against the locked state, then writes the new status and its history
// entry in the same transaction. An error from decide rolls back and is
// returned unchanged.
func (r *ComplaintRepository) MutateStatus(
	ctx context.Context,
	complaintID int64,
	decide func(current models.Complaint) (StatusMutation, error),
) (StatusMutation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return StatusMutation{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT` + complaintColumns + `
		FROM complaints
		WHERE complaint_id = ?
		FOR UPDATE`
	current, err := scanComplaint(tx.QueryRowContext(ctx, query, complaintID))
	if errors.Is(err, sql.ErrNoRows) {
		return StatusMutation{}, fmt.Errorf("complaint %d: %w", complaintID, models.ErrNotFound)
	}
	if err != nil {
		return StatusMutation{}, fmt.Errorf("failed to lock complaint: %w", err)
	}

	m, err := decide(*current)
	if err != nil {
		return StatusMutation{}, err
	}

	department := sql.NullString{String: string(m.Department), Valid: m.Department != ""}
	_, err = tx.ExecContext(ctx, `
		UPDATE complaints
		SET status = ?,
			department = COALESCE(?, department),
			updated_at = ?
		WHERE complaint_id = ?`,
		m.Change.NewStatus,
		department,
		m.Change.ChangedAt,
		complaintID,
	)
	if err != nil {
		return StatusMutation{}, fmt.Errorf("failed to update complaint status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO complaint_status_history (
			complaint_id, old_status, new_status, actor_user_id, actor_role, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		complaintID,
		m.Change.OldStatus,
		m.Change.NewStatus,
		m.Change.Actor.UserID,
		m.Change.Actor.Role,
		m.Change.ChangedAt,
	)
	if err != nil {
		return StatusMutation{}, fmt.Errorf("failed to create status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return StatusMutation{}, fmt.Errorf("failed to commit status change: %w", err)
	}
	return m, nil
}

// GetStatusHistory retrieves the status timeline for a complaint, newest first
func (r *ComplaintRepository) GetStatusHistory(ctx context.Context, complaintID int64) ([]models.ComplaintStatusHistory, error) {
	query := `
		SELECT history_id, complaint_id, old_status, new_status, actor_user_id, actor_role, created_at
		FROM complaint_status_history
		WHERE complaint_id = ?
		ORDER BY created_at DESC, history_id DESC`

	rows, err := r.db.QueryContext(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []models.ComplaintStatusHistory
	for rows.Next() {
		var h models.ComplaintStatusHistory
		if err := rows.Scan(
			&h.HistoryID,
			&h.ComplaintID,
			&h.OldStatus,
			&h.NewStatus,
			&h.ActorUserID,
			&h.ActorRole,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}
	return history, nil
}

// ListOpenComplaints returns every complaint not in a terminal status,
// oldest first.
func (r *ComplaintRepository) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	query := `SELECT` + complaintColumns + `
		FROM complaints
		WHERE status NOT IN (?, ?)
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.StatusResolved, models.StatusInvalid)
	if err != nil {
		return nil, fmt.Errorf("failed to query open complaints: %w", err)
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaints: %w", err)
	}
	return out, nil
}
