package repository

import (
	"database/sql"
	"fmt"

	"civicfix/models"
)

// ProofRepository handles resolution proof records. Proofs are additive:
// there is no update or delete path.
type ProofRepository struct {
	db *sql.DB
}

// NewProofRepository creates a new proof repository
func NewProofRepository(db *sql.DB) *ProofRepository {
	return &ProofRepository{db: db}
}

// Create appends a proof and fills in its generated id
func (r *ProofRepository) Create(p *models.ResolutionProof) error {
	query := `
		INSERT INTO resolution_proofs (
			complaint_id, author_staff_id, image_key, remarks,
			captured_lat, captured_lng, captured_at, verified, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(
		query,
		p.ComplaintID, p.AuthorStaffID, p.ImageKey, p.Remarks,
		p.CapturedLat, p.CapturedLng, p.CapturedAt, p.Verified, p.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resolution proof: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get proof ID: %w", err)
	}
	p.ProofID = id
	return nil
}

// ListByComplaint lists a complaint's proofs in submission order
func (r *ProofRepository) ListByComplaint(complaintID int64) ([]models.ResolutionProof, error) {
	query := `
		SELECT proof_id, complaint_id, author_staff_id, image_key, remarks,
			captured_lat, captured_lng, captured_at, verified, submitted_at
		FROM resolution_proofs
		WHERE complaint_id = ?
		ORDER BY submitted_at ASC, proof_id ASC
	`
	rows, err := r.db.Query(query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolution proofs: %w", err)
	}
	defer rows.Close()

	var proofs []models.ResolutionProof
	for rows.Next() {
		var p models.ResolutionProof
		err := rows.Scan(
			&p.ProofID, &p.ComplaintID, &p.AuthorStaffID, &p.ImageKey, &p.Remarks,
			&p.CapturedLat, &p.CapturedLng, &p.CapturedAt, &p.Verified, &p.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolution proofs: %w", err)
	}
	return proofs, nil
}

// CountByComplaint returns how many proofs exist for a complaint
func (r *ProofRepository) CountByComplaint(complaintID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM resolution_proofs WHERE complaint_id = ?`,
		complaintID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count resolution proofs: %w", err)
	}
	return count, nil
}
