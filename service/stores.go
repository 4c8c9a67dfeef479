package service

import (
	"time"

	"civicfix/models"
)

// Consumer-side store interfaces. The concrete repository types satisfy
// them; tests substitute in-memory fakes.

type complaintStore interface {
	GenerateComplaintNumber(now time.Time) string
	Create(c *models.Complaint) error
	GetByID(complaintID int64) (*models.Complaint, error)
	ListByCitizen(citizenID int64) ([]models.Complaint, error)
	ListPendingRouting() ([]models.Complaint, error)
	ListActiveWithCoords() ([]models.Complaint, error)
	ListTrending(limit int) ([]models.Complaint, error)
	ListOverdueInProgress(now time.Time) ([]models.Complaint, error)
	ListResolvedBefore(cutoff time.Time) ([]models.Complaint, error)
	ListFiledBefore(cutoff time.Time) ([]models.Complaint, error)
	TransitionStatus(complaintID int64, from, to models.ComplaintStatus, at time.Time) (bool, error)
	EscalateLevel(complaintID int64, fromLevel, toLevel int, priority models.Priority, at time.Time) (bool, error)
	BumpEscalation(complaintID int64, fromLevel int, priority models.Priority, at time.Time) (bool, error)
	UpdateDepartment(complaintID int64, departmentID string, at time.Time) error
	AssignStaff(complaintID, staffID int64, at time.Time) error
	SetRating(complaintID int64, rating int, feedback string, at time.Time) (bool, error)
	OverrideSLA(complaintID int64, days int, deadline, at time.Time) error
	SetPriority(complaintID int64, priority models.Priority, at time.Time) error
	CountByStatusAndLevel() (*models.EscalationStats, error)
}

type auditStore interface {
	Insert(event *models.AuditEvent) error
	ByEntity(entityType models.AuditEntityType, entityID string) ([]models.AuditEvent, error)
	ByComplaint(complaintID string) ([]models.AuditEvent, error)
	ByAction(action models.AuditAction, limit int) ([]models.AuditEvent, error)
	ByActor(actorID int64, limit int) ([]models.AuditEvent, error)
	Recent(limit int) ([]models.AuditEvent, error)
	ByTimeRange(from, to time.Time) ([]models.AuditEvent, error)
}

type proofStore interface {
	Create(p *models.ResolutionProof) error
	ListByComplaint(complaintID int64) ([]models.ResolutionProof, error)
	CountByComplaint(complaintID int64) (int, error)
}

type signoffStore interface {
	Create(s *models.CitizenSignoff) error
	GetByID(signoffID int64) (*models.CitizenSignoff, error)
	GetActiveByComplaint(complaintID int64) (*models.CitizenSignoff, error)
	ListByComplaint(complaintID int64) ([]models.CitizenSignoff, error)
	AdjudicateDispute(signoffID int64, outcome models.DisputeStatus) (bool, error)
}

type upvoteStore interface {
	Create(u *models.Upvote) (bool, error)
	Delete(complaintID, citizenID int64) (bool, error)
	Count(complaintID int64) (int, error)
	Exists(complaintID, citizenID int64) (bool, error)
}

type notificationStore interface {
	Create(n *models.Notification) error
	ListByRecipient(recipientID int64, limit int) ([]models.Notification, error)
	ListUnattempted(limit int) ([]models.Notification, error)
	MarkAttempted(notificationID int64) error
	MarkRead(notificationID, recipientID int64) error
	HasForComplaint(notificationType models.NotificationType, complaintID int64) (bool, error)
}

type departmentStore interface {
	GetByCode(code string) (*models.Department, error)
	DepartmentForCategory(category models.Category) (string, error)
	SLADaysForCategory(category models.Category) (int, error)
	StaffBelongsToDepartment(staffID int64, departmentCode string) (bool, error)
	CommissionerID() (int64, error)
	AdminIDs() ([]int64, error)
}
