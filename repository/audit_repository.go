package repository

import (
	"database/sql"
	"fmt"
	"time"

	"civicfix/models"
)

// AuditRepository persists the append-only audit log. There is deliberately
// no UPDATE or DELETE statement in this file: records are insert-only.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends one audit event and fills in its generated id and timestamp
func (r *AuditRepository) Insert(event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_log (
			entity_type, entity_id, action, old_value, new_value,
			actor_type, actor_id, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(
		query,
		event.EntityType, event.EntityID, event.Action,
		event.OldValue, event.NewValue,
		event.ActorType, event.ActorID, event.Reason, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit ID: %w", err)
	}
	event.AuditID = id
	return nil
}

const auditColumns = `
	audit_id, entity_type, entity_id, action, old_value, new_value,
	actor_type, actor_id, reason, created_at`

// ByEntity lists events for one entity, chronological ascending. Per-entity
// events share timestamps only within insertion order, so audit_id breaks
// ties.
func (r *AuditRepository) ByEntity(entityType models.AuditEntityType, entityID string) ([]models.AuditEvent, error) {
	query := `SELECT ` + auditColumns + `
		FROM audit_log
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, audit_id ASC`
	return r.list(query, entityType, entityID)
}

// ByComplaint lists all events touching a complaint regardless of entity
// type (its proofs, signoffs and SLA changes carry the same entity id).
func (r *AuditRepository) ByComplaint(complaintID string) ([]models.AuditEvent, error) {
	query := `SELECT ` + auditColumns + `
		FROM audit_log
		WHERE entity_id = ?
		ORDER BY created_at ASC, audit_id ASC`
	return r.list(query, complaintID)
}

// ByAction lists events with a given action, newest first
func (r *AuditRepository) ByAction(action models.AuditAction, limit int) ([]models.AuditEvent, error) {
	query := `SELECT ` + auditColumns + `
		FROM audit_log
		WHERE action = ?
		ORDER BY created_at DESC, audit_id DESC
		LIMIT ?`
	return r.list(query, action, limit)
}

// ByActor lists events performed by a given actor, newest first
func (r *AuditRepository) ByActor(actorID int64, limit int) ([]models.AuditEvent, error) {
	query := `SELECT ` + auditColumns + `
		FROM audit_log
		WHERE actor_id = ?
		ORDER BY created_at DESC, audit_id DESC
		LIMIT ?`
	return r.list(query, actorID, limit)
}

// Recent lists the newest events across all entities
func (r *AuditRepository) Recent(limit int) ([]models.AuditEvent, error) {
	query := `SELECT ` + auditColumns + `
		FROM audit_log
		ORDER BY created_at DESC, audit_id DESC
		LIMIT ?`
	return r.list(query, limit)
}

// ByTimeRange lists events within [from, to), chronological ascending
func (r *AuditRepository) ByTimeRange(from, to time.Time) ([]models.AuditEvent, error) {
	query := `SELECT ` + auditColumns + `
		FROM audit_log
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, audit_id ASC`
	return r.list(query, from, to)
}

func (r *AuditRepository) list(query string, args ...interface{}) ([]models.AuditEvent, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		err := rows.Scan(
			&e.AuditID, &e.EntityType, &e.EntityID, &e.Action,
			&e.OldValue, &e.NewValue, &e.ActorType, &e.ActorID,
			&e.Reason, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}
	return events, nil
}
