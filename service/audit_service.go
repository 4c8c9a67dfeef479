package service

import (
	"database/sql"
	"log"
	"time"

	"civicfix/clock"
	"civicfix/models"
)

// logValueLimit caps value fields in log lines. The stored record keeps the
// payload verbatim.
const logValueLimit = 256

// AuditSink is the single entry point for the append-only audit log. Each
// record is committed on its own connection, independent of whatever
// operation triggered it, so attempts persist even when the triggering
// change does not.
type AuditSink struct {
	repo auditStore
	clk  clock.Clock
}

// NewAuditSink creates the audit sink
func NewAuditSink(repo auditStore, clk clock.Clock) *AuditSink {
	return &AuditSink{repo: repo, clk: clk}
}

// Record appends one audit event and returns it
func (s *AuditSink) Record(
	entityType models.AuditEntityType,
	entityID string,
	action models.AuditAction,
	oldValue, newValue string,
	actor models.ActorContext,
	reason string,
) (*models.AuditEvent, error) {
	event := &models.AuditEvent{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		OldValue:   nullString(oldValue),
		NewValue:   nullString(newValue),
		ActorType:  actor.ActorType,
		Reason:     nullString(reason),
		CreatedAt:  s.clk.Now(),
	}
	if actor.ActorType == models.ActorUser {
		event.ActorID = sql.NullInt64{Int64: actor.UserID, Valid: true}
	}
	if err := s.repo.Insert(event); err != nil {
		return nil, err
	}
	log.Printf("[AUDIT] %s %s %s %q -> %q by %s", entityType, entityID, action,
		truncate(oldValue), truncate(newValue), actor.ActorType)
	return event, nil
}

// MustRecord records an event after a mutation that has already committed.
// An audit write failure at that point cannot un-happen the change, so it is
// logged loudly instead of failing the caller.
func (s *AuditSink) MustRecord(
	entityType models.AuditEntityType,
	entityID string,
	action models.AuditAction,
	oldValue, newValue string,
	actor models.ActorContext,
	reason string,
) {
	if _, err := s.Record(entityType, entityID, action, oldValue, newValue, actor, reason); err != nil {
		log.Printf("[AUDIT] FAILED to record %s %s %s: %v", entityType, entityID, action, err)
	}
}

// ByComplaint returns a complaint's full trail, chronological ascending
func (s *AuditSink) ByComplaint(complaintID string) ([]models.AuditEvent, error) {
	return s.repo.ByComplaint(complaintID)
}

// Recent returns the newest events across all entities
func (s *AuditSink) Recent(limit int) ([]models.AuditEvent, error) {
	return s.repo.Recent(limit)
}

// ByAction returns the newest events with a given action
func (s *AuditSink) ByAction(action models.AuditAction, limit int) ([]models.AuditEvent, error) {
	return s.repo.ByAction(action, limit)
}

// ByActor returns the newest events performed by an actor
func (s *AuditSink) ByActor(actorID int64, limit int) ([]models.AuditEvent, error) {
	return s.repo.ByActor(actorID, limit)
}

// ByTimeRange returns events within [from, to), chronological ascending
func (s *AuditSink) ByTimeRange(from, to time.Time) ([]models.AuditEvent, error) {
	return s.repo.ByTimeRange(from, to)
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func truncate(v string) string {
	if len(v) > logValueLimit {
		return v[:logValueLimit] + "..."
	}
	return v
}
