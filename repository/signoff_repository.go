package repository

import (
	"database/sql"
	"fmt"

	"civicfix/models"
)

// SignoffRepository handles citizen signoff records. Physically 1:N per
// complaint, logically at most one active at a time.
type SignoffRepository struct {
	db *sql.DB
}

// NewSignoffRepository creates a new signoff repository
func NewSignoffRepository(db *sql.DB) *SignoffRepository {
	return &SignoffRepository{db: db}
}

// Create appends a signoff and fills in its generated id
func (r *SignoffRepository) Create(s *models.CitizenSignoff) error {
	query := `
		INSERT INTO citizen_signoffs (
			complaint_id, citizen_id, kind, rating, feedback,
			dispute_reason, dispute_image_key, dispute_status, active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(
		query,
		s.ComplaintID, s.CitizenID, s.Kind, s.Rating, s.Feedback,
		s.DisputeReason, s.DisputeImageKey, s.DisputeStatus, s.Active, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create signoff: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get signoff ID: %w", err)
	}
	s.SignoffID = id
	return nil
}

const signoffColumns = `
	signoff_id, complaint_id, citizen_id, kind, rating, feedback,
	dispute_reason, dispute_image_key, dispute_status, active, created_at`

func scanSignoff(row rowScanner) (*models.CitizenSignoff, error) {
	var s models.CitizenSignoff
	err := row.Scan(
		&s.SignoffID, &s.ComplaintID, &s.CitizenID, &s.Kind, &s.Rating, &s.Feedback,
		&s.DisputeReason, &s.DisputeImageKey, &s.DisputeStatus, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a signoff by id
func (r *SignoffRepository) GetByID(signoffID int64) (*models.CitizenSignoff, error) {
	query := `SELECT` + signoffColumns + ` FROM citizen_signoffs WHERE signoff_id = ?`
	s, err := scanSignoff(r.db.QueryRow(query, signoffID))
	if err == sql.ErrNoRows {
		return nil, models.NewDomainError(models.ErrNotFound, "signoff %d not found", signoffID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signoff: %w", err)
	}
	return s, nil
}

// GetActiveByComplaint returns the complaint's active signoff, or nil
func (r *SignoffRepository) GetActiveByComplaint(complaintID int64) (*models.CitizenSignoff, error) {
	query := `SELECT` + signoffColumns + `
		FROM citizen_signoffs
		WHERE complaint_id = ? AND active = TRUE
		ORDER BY created_at DESC, signoff_id DESC
		LIMIT 1`
	s, err := scanSignoff(r.db.QueryRow(query, complaintID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active signoff: %w", err)
	}
	return s, nil
}

// ListByComplaint lists all signoffs for a complaint, oldest first
func (r *SignoffRepository) ListByComplaint(complaintID int64) ([]models.CitizenSignoff, error) {
	query := `SELECT` + signoffColumns + `
		FROM citizen_signoffs
		WHERE complaint_id = ?
		ORDER BY created_at ASC, signoff_id ASC`
	rows, err := r.db.Query(query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signoffs: %w", err)
	}
	defer rows.Close()

	var signoffs []models.CitizenSignoff
	for rows.Next() {
		s, err := scanSignoff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signoff: %w", err)
		}
		signoffs = append(signoffs, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signoffs: %w", err)
	}
	return signoffs, nil
}

// AdjudicateDispute moves a PENDING dispute to APPROVED or REJECTED and
// deactivates it. Returns false when the dispute was not pending (already
// adjudicated or not a dispute).
func (r *SignoffRepository) AdjudicateDispute(
	signoffID int64,
	outcome models.DisputeStatus,
) (bool, error) {
	query := `
		UPDATE citizen_signoffs
		SET dispute_status = ?, active = FALSE
		WHERE signoff_id = ? AND kind = ? AND dispute_status = ?
	`
	result, err := r.db.Exec(query, outcome, signoffID, models.SignoffDispute, models.DisputePending)
	if err != nil {
		return false, fmt.Errorf("failed to adjudicate dispute: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read adjudication result: %w", err)
	}
	return n > 0, nil
}
