package repository

import (
	"context"
	"database/sql"
	"fmt"

	"grievancedesk/models"
)

// RemarkRepository stores complaint remarks. Remarks are append-only.
type RemarkRepository struct {
	db *sql.DB
}

// NewRemarkRepository creates a new remark repository
func NewRemarkRepository(db *sql.DB) *RemarkRepository {
	return &RemarkRepository{db: db}
}

// CreateRemark inserts remark and sets its RemarkID.
func (r *RemarkRepository) CreateRemark(ctx context.Context, remark *models.Remark) error {
	query := `
		INSERT INTO remarks (
			complaint_id, author_user_id, author_role, visibility, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		remark.ComplaintID,
		remark.AuthorUserID,
		remark.AuthorRole,
		remark.Visibility,
		remark.Notes,
		remark.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create remark: %w", err)
	}

	remarkID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get remark ID: %w", err)
	}
	remark.RemarkID = remarkID
	return nil
}

// ListByComplaint returns all remarks on a complaint, newest first.
func (r *RemarkRepository) ListByComplaint(ctx context.Context, complaintID int64) ([]models.Remark, error) {
	query := `
		SELECT remark_id, complaint_id, author_user_id, author_role, visibility, notes, created_at
		FROM remarks
		WHERE complaint_id = ?
		ORDER BY created_at DESC, remark_id DESC`

	rows, err := r.db.QueryContext(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query remarks: %w", err)
	}
	defer rows.Close()

	remarks := []models.Remark{}
	for rows.Next() {
		var rm models.Remark
		if err := rows.Scan(
			&rm.RemarkID,
			&rm.ComplaintID,
			&rm.AuthorUserID,
			&rm.AuthorRole,
			&rm.Visibility,
			&rm.Notes,
			&rm.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan remark: %w", err)
		}
		remarks = append(remarks, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating remarks: %w", err)
	}
	return remarks, nil
}
