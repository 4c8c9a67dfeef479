package models

import (
	"database/sql"
	"time"
)

// ComplaintStatus represents the lifecycle state of a complaint
type ComplaintStatus string

const (
	StatusFiled      ComplaintStatus = "FILED"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusClosed     ComplaintStatus = "CLOSED"
	StatusCancelled  ComplaintStatus = "CANCELLED"
)

// IsTerminal reports whether a complaint in this status accepts no further mutations
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// Category is the fixed classification set assigned at intake
type Category string

const (
	CategoryPothole        Category = "POTHOLE"
	CategoryStreetlight    Category = "STREETLIGHT"
	CategoryWaterShortage  Category = "WATER_SHORTAGE"
	CategorySewerDrainage  Category = "SEWER_DRAINAGE"
	CategoryGarbage        Category = "GARBAGE"
	CategoryTrafficSignals Category = "TRAFFIC_SIGNALS"
	CategoryParkMaint      Category = "PARK_MAINTENANCE"
	CategoryElectrical     Category = "ELECTRICAL_DAMAGE"
	CategoryOther          Category = "OTHER"
)

// Categories lists every valid category
var Categories = []Category{
	CategoryPothole, CategoryStreetlight, CategoryWaterShortage,
	CategorySewerDrainage, CategoryGarbage, CategoryTrafficSignals,
	CategoryParkMaint, CategoryElectrical, CategoryOther,
}

// ValidCategory reports whether c is one of the enumerated categories
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority represents complaint priority levels
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// NextPriority returns the priority one step above p, capped at CRITICAL
func NextPriority(p Priority) Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh, PriorityCritical:
		return PriorityCritical
	default:
		return p
	}
}

// MaxEscalationLevel is the escalation ceiling. Level 2 already notifies the
// commissioner; no write may take a complaint beyond it.
const MaxEscalationLevel = 2

// ValidPriority reports whether p is one of the enumerated priorities
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Complaint represents a grievance entity. Child records (proofs, signoffs,
// upvotes, audit events) reference it by id and are queried on demand.
type Complaint struct {
	ComplaintID     int64           `db:"complaint_id" json:"complaint_id"`
	ComplaintNumber string          `db:"complaint_number" json:"complaint_number"`
	CitizenID       int64           `db:"citizen_id" json:"citizen_id"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description"`
	Location        string          `db:"location" json:"location"`
	Latitude        sql.NullFloat64 `db:"latitude" json:"latitude"`
	Longitude       sql.NullFloat64 `db:"longitude" json:"longitude"`

	ImageKey        sql.NullString `db:"image_key" json:"image_key"`
	ImageMime       sql.NullString `db:"image_mime" json:"image_mime"`
	ImageFindings   sql.NullString `db:"image_findings" json:"image_findings"`
	ImageAnalyzedAt sql.NullTime   `db:"image_analyzed_at" json:"image_analyzed_at"`

	Category     Category        `db:"category" json:"category"`
	Priority     Priority        `db:"priority" json:"priority"`
	AIReasoning  sql.NullString  `db:"ai_reasoning" json:"ai_reasoning"`
	AIConfidence sql.NullFloat64 `db:"ai_confidence" json:"ai_confidence"`

	DepartmentID sql.NullString `db:"department_id" json:"department_id"`
	StaffID      sql.NullInt64  `db:"staff_id" json:"staff_id"`

	CurrentStatus   ComplaintStatus `db:"current_status" json:"current_status"`
	FiledAt         time.Time       `db:"filed_at" json:"filed_at"`
	SLADaysAssigned int             `db:"sla_days_assigned" json:"sla_days_assigned"`
	SLADeadline     sql.NullTime    `db:"sla_deadline" json:"sla_deadline"`
	ResolvedAt      sql.NullTime    `db:"resolved_at" json:"resolved_at"`
	ClosedAt        sql.NullTime    `db:"closed_at" json:"closed_at"`

	EscalationLevel int `db:"escalation_level" json:"escalation_level"`

	UpvoteCount int            `db:"upvote_count" json:"upvote_count"`
	Rating      sql.NullInt64  `db:"rating" json:"rating"`
	Feedback    sql.NullString `db:"feedback" json:"feedback"`

	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at" json:"updated_at"`
}

// Overdue reports whether the SLA deadline has passed as of now
func (c *Complaint) Overdue(now time.Time) bool {
	return c.SLADeadline.Valid && now.After(c.SLADeadline.Time)
}

// ResolutionProof is staff-submitted evidence of completed remediation.
// Append-only: proofs are never rewritten or replaced.
type ResolutionProof struct {
	ProofID       int64           `db:"proof_id" json:"proof_id"`
	ComplaintID   int64           `db:"complaint_id" json:"complaint_id"`
	AuthorStaffID int64           `db:"author_staff_id" json:"author_staff_id"`
	ImageKey      string          `db:"image_key" json:"image_key"`
	Remarks       string          `db:"remarks" json:"remarks"`
	CapturedLat   sql.NullFloat64 `db:"captured_lat" json:"captured_lat,omitempty"`
	CapturedLng   sql.NullFloat64 `db:"captured_lng" json:"captured_lng,omitempty"`
	CapturedAt    sql.NullTime    `db:"captured_at" json:"captured_at,omitempty"`
	Verified      bool            `db:"verified" json:"verified"`
	SubmittedAt   time.Time       `db:"submitted_at" json:"submitted_at"`
}

// SignoffKind distinguishes citizen acceptance from dispute
type SignoffKind string

const (
	SignoffAccept  SignoffKind = "ACCEPT"
	SignoffDispute SignoffKind = "DISPUTE"
)

// DisputeStatus is the adjudication sub-state of a dispute signoff
type DisputeStatus string

const (
	DisputePending  DisputeStatus = "PENDING"
	DisputeApproved DisputeStatus = "APPROVED"
	DisputeRejected DisputeStatus = "REJECTED"
)

// CitizenSignoff is the citizen's post-resolution response. At most one
// signoff per complaint is active at a time.
type CitizenSignoff struct {
	SignoffID       int64          `db:"signoff_id" json:"signoff_id"`
	ComplaintID     int64          `db:"complaint_id" json:"complaint_id"`
	CitizenID       int64          `db:"citizen_id" json:"citizen_id"`
	Kind            SignoffKind    `db:"kind" json:"kind"`
	Rating          sql.NullInt64  `db:"rating" json:"rating,omitempty"`
	Feedback        sql.NullString `db:"feedback" json:"feedback,omitempty"`
	DisputeReason   sql.NullString `db:"dispute_reason" json:"dispute_reason,omitempty"`
	DisputeImageKey sql.NullString `db:"dispute_image_key" json:"dispute_image_key,omitempty"`
	DisputeStatus   sql.NullString `db:"dispute_status" json:"dispute_status,omitempty"`
	Active          bool           `db:"active" json:"active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// Upvote records one citizen's support for a complaint.
// Unique per (complaint_id, citizen_id); a citizen cannot upvote their own complaint.
type Upvote struct {
	UpvoteID    int64           `db:"upvote_id" json:"upvote_id"`
	ComplaintID int64           `db:"complaint_id" json:"complaint_id"`
	CitizenID   int64           `db:"citizen_id" json:"citizen_id"`
	Latitude    sql.NullFloat64 `db:"latitude" json:"latitude,omitempty"`
	Longitude   sql.NullFloat64 `db:"longitude" json:"longitude,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// AuditEntityType identifies what kind of entity an audit event concerns
type AuditEntityType string

const (
	AuditEntityComplaint  AuditEntityType = "COMPLAINT"
	AuditEntitySLA        AuditEntityType = "SLA"
	AuditEntityAssignment AuditEntityType = "ASSIGNMENT"
	AuditEntityProof      AuditEntityType = "PROOF"
	AuditEntitySignoff    AuditEntityType = "SIGNOFF"
)

// AuditAction identifies the kind of change an audit event records
type AuditAction string

const (
	AuditStateChange AuditAction = "STATE_CHANGE"
	AuditEscalation  AuditAction = "ESCALATION"
	AuditSLAUpdate   AuditAction = "SLA_UPDATE"
	AuditAssignment  AuditAction = "ASSIGNMENT"
	AuditSuspension  AuditAction = "SUSPENSION"
	AuditCreated     AuditAction = "CREATED"
	AuditUpdated     AuditAction = "UPDATED"
	AuditComment     AuditAction = "COMMENT"
	AuditRating      AuditAction = "RATING"
)

// AuditEvent is an immutable record of a decision. Insert-only; no update or
// delete path exists anywhere in the codebase.
type AuditEvent struct {
	AuditID    int64           `db:"audit_id" json:"audit_id"`
	EntityType AuditEntityType `db:"entity_type" json:"entity_type"`
	EntityID   string          `db:"entity_id" json:"entity_id"`
	Action     AuditAction     `db:"action" json:"action"`
	OldValue   sql.NullString  `db:"old_value" json:"old_value"`
	NewValue   sql.NullString  `db:"new_value" json:"new_value"`
	ActorType  ActorType       `db:"actor_type" json:"actor_type"`
	ActorID    sql.NullInt64   `db:"actor_id" json:"actor_id"`
	Reason     sql.NullString  `db:"reason" json:"reason"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// NotificationType classifies user-visible events
type NotificationType string

const (
	NotifyEscalation   NotificationType = "ESCALATION"
	NotifyStatusChange NotificationType = "STATUS_CHANGE"
	NotifyAssignment   NotificationType = "ASSIGNMENT"
	NotifySLAWarning   NotificationType = "SLA_WARNING"
	NotifySLABreach    NotificationType = "SLA_BREACH"
	NotifyResolution   NotificationType = "RESOLUTION"
	NotifyGeneral      NotificationType = "GENERAL"
)

// Notification is an in-app inbox entry. External delivery is tracked via
// Attempted: the messaging worker makes exactly one best-effort attempt.
type Notification struct {
	NotificationID int64            `db:"notification_id" json:"notification_id"`
	RecipientID    int64            `db:"recipient_id" json:"recipient_id"`
	Type           NotificationType `db:"type" json:"type"`
	Title          string           `db:"title" json:"title"`
	Message        string           `db:"message" json:"message"`
	ComplaintRef   sql.NullInt64    `db:"complaint_ref" json:"complaint_ref,omitempty"`
	ReadFlag       bool             `db:"read_flag" json:"read_flag"`
	Attempted      bool             `db:"attempted" json:"-"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// Department is routing master data: a department code plus its head
type Department struct {
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	HeadUserID int64  `db:"head_user_id" json:"head_user_id"`
}

// SLAPolicy maps a category to the number of days allowed for resolution
type SLAPolicy struct {
	Category Category `db:"category" json:"category"`
	Days     int      `db:"days" json:"days"`
}

// DefaultSLADays is the fallback SLA table used when no policy row exists
var DefaultSLADays = map[Category]int{
	CategoryPothole:        3,
	CategoryStreetlight:    2,
	CategoryWaterShortage:  1,
	CategorySewerDrainage:  2,
	CategoryGarbage:        1,
	CategoryTrafficSignals: 1,
	CategoryParkMaint:      7,
	CategoryElectrical:     3,
	CategoryOther:          14,
}

// DefaultDepartmentByCategory routes each category to a department code
var DefaultDepartmentByCategory = map[Category]string{
	CategoryPothole:        "ROADS",
	CategoryStreetlight:    "LIGHTING",
	CategoryWaterShortage:  "WATER",
	CategorySewerDrainage:  "SANITATION",
	CategoryGarbage:        "SANITATION",
	CategoryTrafficSignals: "TRAFFIC",
	CategoryParkMaint:      "PARKS",
	CategoryElectrical:     "ELECTRICAL",
	CategoryOther:          "GENERAL",
}
