package repository

import (
	"database/sql"
	"fmt"
	"time"

	"civicfix/models"

	"github.com/google/uuid"
)

// ComplaintRepository handles database operations for complaints.
//
// Status, escalation and rating mutations are conditional writes: the UPDATE
// carries the expected current value in its WHERE clause and the caller
// checks the changed-row count. That makes every mutation atomic and safely
// re-runnable without holding row locks across business logic.
type ComplaintRepository struct {
	db *sql.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// GenerateComplaintNumber generates a unique shareable complaint number.
// Format: GRV-YYYYMMDD-{short uuid}
func (r *ComplaintRepository) GenerateComplaintNumber(now time.Time) string {
	return fmt.Sprintf("GRV-%s-%s", now.UTC().Format("20060102"), uuid.New().String()[:8])
}

const complaintColumns = `
	complaint_id, complaint_number, citizen_id, title, description, location,
	latitude, longitude, image_key, image_mime, image_findings, image_analyzed_at,
	category, priority, ai_reasoning, ai_confidence,
	department_id, staff_id, current_status, filed_at,
	sla_days_assigned, sla_deadline, resolved_at, closed_at,
	escalation_level, upvote_count, rating, feedback, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(
		&c.ComplaintID, &c.ComplaintNumber, &c.CitizenID, &c.Title, &c.Description, &c.Location,
		&c.Latitude, &c.Longitude, &c.ImageKey, &c.ImageMime, &c.ImageFindings, &c.ImageAnalyzedAt,
		&c.Category, &c.Priority, &c.AIReasoning, &c.AIConfidence,
		&c.DepartmentID, &c.StaffID, &c.CurrentStatus, &c.FiledAt,
		&c.SLADaysAssigned, &c.SLADeadline, &c.ResolvedAt, &c.ClosedAt,
		&c.EscalationLevel, &c.UpvoteCount, &c.Rating, &c.Feedback, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new complaint and fills in its generated id
func (r *ComplaintRepository) Create(c *models.Complaint) error {
	query := `
		INSERT INTO complaints (
			complaint_number, citizen_id, title, description, location,
			latitude, longitude, image_key, image_mime, image_findings, image_analyzed_at,
			category, priority, ai_reasoning, ai_confidence,
			department_id, staff_id, current_status, filed_at,
			sla_days_assigned, sla_deadline, escalation_level, upvote_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(
		query,
		c.ComplaintNumber, c.CitizenID, c.Title, c.Description, c.Location,
		c.Latitude, c.Longitude, c.ImageKey, c.ImageMime, c.ImageFindings, c.ImageAnalyzedAt,
		c.Category, c.Priority, c.AIReasoning, c.AIConfidence,
		c.DepartmentID, c.StaffID, c.CurrentStatus, c.FiledAt,
		c.SLADaysAssigned, c.SLADeadline, c.EscalationLevel, c.UpvoteCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get complaint ID: %w", err)
	}
	c.ComplaintID = id
	return nil
}

// GetByID retrieves a complaint by its ID
func (r *ComplaintRepository) GetByID(complaintID int64) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE complaint_id = ?`
	c, err := scanComplaint(r.db.QueryRow(query, complaintID))
	if err == sql.ErrNoRows {
		return nil, models.NewDomainError(models.ErrNotFound, "complaint %d not found", complaintID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return c, nil
}

// ListByCitizen retrieves all complaints filed by a citizen, newest first
func (r *ComplaintRepository) ListByCitizen(citizenID int64) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints WHERE citizen_id = ? ORDER BY created_at DESC`
	return r.list(query, citizenID)
}

// ListPendingRouting lists FILED complaints awaiting manual admin routing,
// oldest first.
func (r *ComplaintRepository) ListPendingRouting() ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints WHERE current_status = ? ORDER BY filed_at ASC`
	return r.list(query, models.StatusFiled)
}

// ListActiveWithCoords lists geotagged complaints in non-terminal statuses,
// used by the duplicate resolver and nearby queries.
func (r *ComplaintRepository) ListActiveWithCoords() ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints
		WHERE current_status IN (?, ?, ?)
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY created_at DESC`
	return r.list(query, models.StatusFiled, models.StatusInProgress, models.StatusResolved)
}

// ListTrending lists active complaints by descending upvote count
func (r *ComplaintRepository) ListTrending(limit int) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints
		WHERE current_status IN (?, ?, ?)
		ORDER BY upvote_count DESC, created_at DESC
		LIMIT ?`
	return r.list(query, models.StatusFiled, models.StatusInProgress, models.StatusResolved, limit)
}

// ListOverdueInProgress lists IN_PROGRESS complaints whose SLA deadline has
// passed, ordered by deadline so the oldest breaches are handled first.
func (r *ComplaintRepository) ListOverdueInProgress(now time.Time) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints
		WHERE current_status = ? AND sla_deadline IS NOT NULL AND sla_deadline < ?
		ORDER BY sla_deadline ASC`
	return r.list(query, models.StatusInProgress, now)
}

// ListResolvedBefore lists RESOLVED complaints whose resolution is older than
// the cutoff (response window expired).
func (r *ComplaintRepository) ListResolvedBefore(cutoff time.Time) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints
		WHERE current_status = ? AND resolved_at IS NOT NULL AND resolved_at < ?
		ORDER BY resolved_at ASC`
	return r.list(query, models.StatusResolved, cutoff)
}

// ListFiledBefore lists FILED complaints older than the cutoff (intake stall)
func (r *ComplaintRepository) ListFiledBefore(cutoff time.Time) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints
		WHERE current_status = ? AND filed_at < ?
		ORDER BY filed_at ASC`
	return r.list(query, models.StatusFiled, cutoff)
}

func (r *ComplaintRepository) list(query string, args ...interface{}) ([]models.Complaint, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaints: %w", err)
	}
	return complaints, nil
}

// TransitionStatus moves a complaint from an expected status to a new one.
// Returns false when the row was not in the expected status (lost race or
// repeat call); the caller decides whether that is a conflict or idempotent
// success.
func (r *ComplaintRepository) TransitionStatus(
	complaintID int64,
	from, to models.ComplaintStatus,
	at time.Time,
) (bool, error) {
	query := `
		UPDATE complaints
		SET current_status = ?,
			resolved_at = CASE WHEN ? = 'RESOLVED' AND resolved_at IS NULL THEN ? ELSE resolved_at END,
			closed_at = CASE WHEN ? IN ('CLOSED','CANCELLED') AND closed_at IS NULL THEN ? ELSE closed_at END,
			updated_at = ?
		WHERE complaint_id = ? AND current_status = ?
	`
	result, err := r.db.Exec(query, to, to, at, to, at, at, complaintID, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition complaint status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read transition result: %w", err)
	}
	return n > 0, nil
}

// EscalateLevel raises the escalation level from an expected value, updating
// priority in the same statement. The WHERE guard makes two concurrent sweeps
// escalate at most once.
func (r *ComplaintRepository) EscalateLevel(
	complaintID int64,
	fromLevel, toLevel int,
	priority models.Priority,
	at time.Time,
) (bool, error) {
	query := `
		UPDATE complaints
		SET escalation_level = ?, priority = ?, updated_at = ?
		WHERE complaint_id = ? AND escalation_level = ? AND current_status = ?
	`
	result, err := r.db.Exec(query, toLevel, priority, at, complaintID, fromLevel, models.StatusInProgress)
	if err != nil {
		return false, fmt.Errorf("failed to escalate complaint: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read escalation result: %w", err)
	}
	return n > 0, nil
}

// BumpEscalation advances level by one and raises priority without a status
// guard; used by the dispute-approval path where the status transition is
// performed separately. The level never exceeds MaxEscalationLevel: at the
// ceiling the guard misses and the bump is a no-op.
func (r *ComplaintRepository) BumpEscalation(
	complaintID int64,
	fromLevel int,
	priority models.Priority,
	at time.Time,
) (bool, error) {
	query := `
		UPDATE complaints
		SET escalation_level = escalation_level + 1, priority = ?, updated_at = ?
		WHERE complaint_id = ? AND escalation_level = ? AND escalation_level < ?
	`
	result, err := r.db.Exec(query, priority, at, complaintID, fromLevel, models.MaxEscalationLevel)
	if err != nil {
		return false, fmt.Errorf("failed to bump escalation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read escalation result: %w", err)
	}
	return n > 0, nil
}

// UpdateDepartment reroutes a complaint, clearing any staff assignment since
// staff must belong to the assigned department.
func (r *ComplaintRepository) UpdateDepartment(complaintID int64, departmentID string, at time.Time) error {
	query := `
		UPDATE complaints
		SET department_id = ?, staff_id = NULL, updated_at = ?
		WHERE complaint_id = ?
	`
	if _, err := r.db.Exec(query, departmentID, at, complaintID); err != nil {
		return fmt.Errorf("failed to update complaint department: %w", err)
	}
	return nil
}

// AssignStaff sets the handling staff member
func (r *ComplaintRepository) AssignStaff(complaintID, staffID int64, at time.Time) error {
	query := `UPDATE complaints SET staff_id = ?, updated_at = ? WHERE complaint_id = ?`
	if _, err := r.db.Exec(query, staffID, at, complaintID); err != nil {
		return fmt.Errorf("failed to assign staff: %w", err)
	}
	return nil
}

// SetRating records the citizen rating once. Returns false when a rating
// already exists.
func (r *ComplaintRepository) SetRating(complaintID int64, rating int, feedback string, at time.Time) (bool, error) {
	query := `
		UPDATE complaints
		SET rating = ?, feedback = ?, updated_at = ?
		WHERE complaint_id = ? AND rating IS NULL AND current_status IN (?, ?)
	`
	result, err := r.db.Exec(query, rating, feedback, at, complaintID,
		models.StatusResolved, models.StatusClosed)
	if err != nil {
		return false, fmt.Errorf("failed to set rating: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rating result: %w", err)
	}
	return n > 0, nil
}

// OverrideSLA re-records the SLA assignment (manual admin override)
func (r *ComplaintRepository) OverrideSLA(complaintID int64, days int, deadline, at time.Time) error {
	query := `
		UPDATE complaints
		SET sla_days_assigned = ?, sla_deadline = ?, updated_at = ?
		WHERE complaint_id = ?
	`
	if _, err := r.db.Exec(query, days, deadline, at, complaintID); err != nil {
		return fmt.Errorf("failed to override SLA: %w", err)
	}
	return nil
}

// SetPriority updates priority only (escalation uses EscalateLevel instead)
func (r *ComplaintRepository) SetPriority(complaintID int64, priority models.Priority, at time.Time) error {
	query := `UPDATE complaints SET priority = ?, updated_at = ? WHERE complaint_id = ?`
	if _, err := r.db.Exec(query, priority, at, complaintID); err != nil {
		return fmt.Errorf("failed to set priority: %w", err)
	}
	return nil
}

// CountByStatusAndLevel returns backlog counts for escalation stats
func (r *ComplaintRepository) CountByStatusAndLevel() (*models.EscalationStats, error) {
	stats := &models.EscalationStats{}
	now := time.Now().UTC()

	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM complaints WHERE current_status = ? AND sla_deadline IS NOT NULL AND sla_deadline < ?`,
		models.StatusInProgress, now,
	).Scan(&stats.OverdueInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue complaints: %w", err)
	}

	err = r.db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN escalation_level = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN escalation_level = 2 THEN 1 ELSE 0 END), 0)
		FROM complaints WHERE current_status NOT IN (?, ?)`,
		models.StatusClosed, models.StatusCancelled,
	).Scan(&stats.Level1, &stats.Level2)
	if err != nil {
		return nil, fmt.Errorf("failed to count escalation levels: %w", err)
	}

	err = r.db.QueryRow(
		`SELECT COUNT(*) FROM complaints WHERE current_status = ?`,
		models.StatusResolved,
	).Scan(&stats.AwaitingSignoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count awaiting signoff: %w", err)
	}

	err = r.db.QueryRow(
		`SELECT COUNT(*) FROM complaints WHERE current_status = ?`,
		models.StatusFiled,
	).Scan(&stats.StalledFiled)
	if err != nil {
		return nil, fmt.Errorf("failed to count filed complaints: %w", err)
	}

	return stats, nil
}
