package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"civicfix/models"
)

// UpvoteRepository handles community upvotes. The (complaint_id, citizen_id)
// unique key is the source of truth; the complaint's denormalized
// upvote_count is maintained alongside each insert/delete.
type UpvoteRepository struct {
	db *sql.DB
}

// NewUpvoteRepository creates a new upvote repository
func NewUpvoteRepository(db *sql.DB) *UpvoteRepository {
	return &UpvoteRepository{db: db}
}

// Create inserts an upvote. Returns (false, nil) when the pair already
// exists so callers can treat repeats as idempotent.
func (r *UpvoteRepository) Create(u *models.Upvote) (bool, error) {
	query := `
		INSERT INTO complaint_upvotes (complaint_id, citizen_id, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query, u.ComplaintID, u.CitizenID, u.Latitude, u.Longitude, u.CreatedAt)
	if err != nil {
		// MySQL 1062: duplicate key on the (complaint_id, citizen_id) unique index
		if strings.Contains(err.Error(), "Duplicate entry") {
			return false, nil
		}
		return false, fmt.Errorf("failed to create upvote: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get upvote ID: %w", err)
	}
	u.UpvoteID = id

	if _, err := r.db.Exec(
		`UPDATE complaints SET upvote_count = upvote_count + 1 WHERE complaint_id = ?`,
		u.ComplaintID,
	); err != nil {
		return false, fmt.Errorf("failed to increment upvote count: %w", err)
	}
	return true, nil
}

// Delete removes an upvote. Returns false when no such upvote existed.
func (r *UpvoteRepository) Delete(complaintID, citizenID int64) (bool, error) {
	result, err := r.db.Exec(
		`DELETE FROM complaint_upvotes WHERE complaint_id = ? AND citizen_id = ?`,
		complaintID, citizenID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete upvote: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := r.db.Exec(
		`UPDATE complaints SET upvote_count = GREATEST(upvote_count - 1, 0) WHERE complaint_id = ?`,
		complaintID,
	); err != nil {
		return false, fmt.Errorf("failed to decrement upvote count: %w", err)
	}
	return true, nil
}

// Count returns the number of upvotes for a complaint from the upvote table
func (r *UpvoteRepository) Count(complaintID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM complaint_upvotes WHERE complaint_id = ?`,
		complaintID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count upvotes: %w", err)
	}
	return count, nil
}

// Exists reports whether the citizen has already upvoted the complaint
func (r *UpvoteRepository) Exists(complaintID, citizenID int64) (bool, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM complaint_upvotes WHERE complaint_id = ? AND citizen_id = ?`,
		complaintID, citizenID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check upvote: %w", err)
	}
	return n > 0, nil
}
