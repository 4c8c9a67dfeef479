package service

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"civicfix/ai"
	"civicfix/clock"
	"civicfix/lifecycle"
	"civicfix/models"
)

// ComplaintService owns every mutation of the complaint entity. Each
// operation loads the record, asks the policy where applicable, applies the
// change with a conditional write, records the audit event, and enqueues
// in-app notifications.
type ComplaintService struct {
	repo        complaintStore
	proofs      proofStore
	departments departmentStore
	policy      *lifecycle.Policy
	audit       *AuditSink
	notifier    *NotificationService
	clk         clock.Clock

	aiConfidenceThreshold float64
}

// NewComplaintService creates the complaint engine
func NewComplaintService(
	repo complaintStore,
	proofs proofStore,
	departments departmentStore,
	policy *lifecycle.Policy,
	audit *AuditSink,
	notifier *NotificationService,
	clk clock.Clock,
	aiConfidenceThreshold float64,
) *ComplaintService {
	return &ComplaintService{
		repo:                  repo,
		proofs:                proofs,
		departments:           departments,
		policy:                policy,
		audit:                 audit,
		notifier:              notifier,
		clk:                   clk,
		aiConfidenceThreshold: aiConfidenceThreshold,
	}
}

// IntakeDraft is the validated submission handed over by the intake
// orchestrator.
type IntakeDraft struct {
	CitizenID   int64
	Title       string
	Description string
	Location    string
	Latitude    *float64
	Longitude   *float64
	ImageKey    string
	ImageMime   string
}

// CreateFromIntake persists a new complaint from a draft plus the AI
// decision. SLA days come from the policy table for the category, falling
// back to the decision and then the static defaults. When the decision is
// confident and specific, the complaint auto-starts as SYSTEM; otherwise it
// waits in FILED for manual routing.
func (s *ComplaintService) CreateFromIntake(draft IntakeDraft, decision ai.Decision) (*models.Complaint, error) {
	now := s.clk.Now()

	departmentCode, err := s.departments.DepartmentForCategory(decision.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to route category %s: %w", decision.Category, err)
	}

	slaDays, err := s.departments.SLADaysForCategory(decision.Category)
	if err != nil {
		return nil, err
	}
	if slaDays <= 0 {
		slaDays = decision.SLADays
	}
	if slaDays <= 0 {
		slaDays = models.DefaultSLADays[decision.Category]
	}

	c := &models.Complaint{
		ComplaintNumber: s.repo.GenerateComplaintNumber(now),
		CitizenID:       draft.CitizenID,
		Title:           draft.Title,
		Description:     draft.Description,
		Location:        draft.Location,
		Category:        decision.Category,
		Priority:        decision.Priority,
		CurrentStatus:   models.StatusFiled,
		FiledAt:         now,
		SLADaysAssigned: slaDays,
		SLADeadline:     sql.NullTime{Time: now.AddDate(0, 0, slaDays), Valid: true},
		DepartmentID:    sql.NullString{String: departmentCode, Valid: departmentCode != ""},
		AIReasoning:     nullString(decision.Reasoning),
		AIConfidence:    sql.NullFloat64{Float64: decision.Confidence, Valid: true},
	}
	if draft.Latitude != nil && draft.Longitude != nil {
		c.Latitude = sql.NullFloat64{Float64: *draft.Latitude, Valid: true}
		c.Longitude = sql.NullFloat64{Float64: *draft.Longitude, Valid: true}
	}
	if draft.ImageKey != "" {
		c.ImageKey = sql.NullString{String: draft.ImageKey, Valid: true}
		c.ImageMime = sql.NullString{String: draft.ImageMime, Valid: true}
	}
	if decision.ImageFindings != "" {
		c.ImageFindings = sql.NullString{String: decision.ImageFindings, Valid: true}
		c.ImageAnalyzedAt = sql.NullTime{Time: now, Valid: true}
	}

	if err := s.repo.Create(c); err != nil {
		return nil, err
	}

	citizen := models.ActorContext{ActorType: models.ActorUser, UserID: draft.CitizenID, Role: models.RoleCitizen}
	s.audit.MustRecord(models.AuditEntityComplaint, entityID(c.ComplaintID), models.AuditCreated,
		"", string(models.StatusFiled), citizen,
		fmt.Sprintf("complaint filed (category=%s confidence=%.2f)", decision.Category, decision.Confidence))

	s.notifier.Notify(draft.CitizenID, models.NotifyGeneral,
		"Complaint registered",
		fmt.Sprintf("Your complaint %s has been registered.", c.ComplaintNumber),
		c.ComplaintID)

	if decision.Confidence >= s.aiConfidenceThreshold && decision.Category != models.CategoryOther {
		started, err := s.Transition(c.ComplaintID, models.StatusInProgress, models.SystemActor(),
			fmt.Sprintf("auto-start after classification (confidence=%.2f)", decision.Confidence))
		if err != nil {
			// Auto-start is opportunistic: the complaint is already filed.
			log.Printf("[complaint] auto-start of %d failed: %v", c.ComplaintID, err)
			return c, nil
		}
		return started, nil
	}
	return c, nil
}

// GetByID fetches a complaint
func (s *ComplaintService) GetByID(complaintID int64) (*models.Complaint, error) {
	return s.repo.GetByID(complaintID)
}

// ListByCitizen lists a citizen's own complaints
func (s *ComplaintService) ListByCitizen(citizenID int64) ([]models.Complaint, error) {
	return s.repo.ListByCitizen(citizenID)
}

// ListPendingRouting lists FILED complaints for the admin routing queue
func (s *ComplaintService) ListPendingRouting() ([]models.Complaint, error) {
	return s.repo.ListPendingRouting()
}

// Transition is the generic authorized state-change entry point. The status
// write is conditional on the loaded status, so concurrent requests race
// safely: the loser observes zero changed rows and reports a conflict.
func (s *ComplaintService) Transition(
	complaintID int64,
	target models.ComplaintStatus,
	actor models.ActorContext,
	reason string,
) (*models.Complaint, error) {
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}

	proofCount, err := s.proofs.CountByComplaint(complaintID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Authorize(actor, c, target, lifecycle.Preconditions{ProofCount: proofCount}); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	ok, err := s.repo.TransitionStatus(complaintID, c.CurrentStatus, target, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewDomainError(models.ErrConflict,
			"complaint %d changed concurrently; expected status %s", complaintID, c.CurrentStatus)
	}

	s.audit.MustRecord(models.AuditEntityComplaint, entityID(complaintID), models.AuditStateChange,
		string(c.CurrentStatus), string(target), actor, reason)

	s.notifyTransition(c, target)

	oldStatus := c.CurrentStatus
	c.CurrentStatus = target
	if target == models.StatusResolved && !c.ResolvedAt.Valid {
		c.ResolvedAt = sql.NullTime{Time: now, Valid: true}
	}
	if (target == models.StatusClosed || target == models.StatusCancelled) && !c.ClosedAt.Valid {
		c.ClosedAt = sql.NullTime{Time: now, Valid: true}
	}
	log.Printf("[complaint] %d: %s -> %s by %s", complaintID, oldStatus, target, actor.Role)
	return c, nil
}

func (s *ComplaintService) notifyTransition(c *models.Complaint, target models.ComplaintStatus) {
	switch target {
	case models.StatusResolved:
		s.notifier.Notify(c.CitizenID, models.NotifyResolution,
			"Complaint resolved",
			fmt.Sprintf("Complaint %s has been marked resolved. Please accept or dispute the resolution.", c.ComplaintNumber),
			c.ComplaintID)
	default:
		s.notifier.Notify(c.CitizenID, models.NotifyStatusChange,
			"Complaint status updated",
			fmt.Sprintf("Complaint %s is now %s.", c.ComplaintNumber, target),
			c.ComplaintID)
	}
}

// AllowedTransitions lists what the actor may request for this complaint now
func (s *ComplaintService) AllowedTransitions(complaintID int64, actor models.ActorContext) ([]models.ComplaintStatus, error) {
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	proofCount, err := s.proofs.CountByComplaint(complaintID)
	if err != nil {
		return nil, err
	}
	return s.policy.AllowedTransitions(actor, c, lifecycle.Preconditions{ProofCount: proofCount}), nil
}

// Start moves a manually routed FILED complaint into IN_PROGRESS. The
// transition itself is performed by SYSTEM; the admin trigger is recorded in
// the reason.
func (s *ComplaintService) Start(complaintID int64, actor models.ActorContext) (*models.Complaint, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, models.NewDomainError(models.ErrUnauthorized,
			"role %s may not start routing", actor.Role)
	}
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if !c.DepartmentID.Valid || c.DepartmentID.String == "" {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d has no department assigned", complaintID)
	}
	reason := "started by system"
	if actor.IsAdmin() {
		reason = fmt.Sprintf("manually started by admin %d", actor.UserID)
	}
	return s.Transition(complaintID, models.StatusInProgress, models.SystemActor(), reason)
}

// AssignStaff assigns a handling staff member. Permitted for a department
// head of the complaint's department or an admin; the staff member must
// belong to that department.
func (s *ComplaintService) AssignStaff(complaintID, staffID int64, actor models.ActorContext) (*models.Complaint, error) {
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if c.CurrentStatus.IsTerminal() {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s", complaintID, c.CurrentStatus)
	}

	switch {
	case actor.IsAdmin():
	case actor.Role == models.RoleDeptHead:
		if !c.DepartmentID.Valid || actor.DepartmentID != c.DepartmentID.String {
			return nil, models.NewDomainError(models.ErrDepartmentMismatch,
				"department head of %q cannot assign staff in %q", actor.DepartmentID, c.DepartmentID.String)
		}
	default:
		return nil, models.NewDomainError(models.ErrUnauthorized,
			"role %s may not assign staff", actor.Role)
	}

	if c.StaffID.Valid && c.StaffID.Int64 == staffID {
		return nil, models.NewDomainError(models.ErrConflict,
			"staff %d is already assigned to complaint %d", staffID, complaintID)
	}

	if !c.DepartmentID.Valid {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d has no department assigned", complaintID)
	}
	belongs, err := s.departments.StaffBelongsToDepartment(staffID, c.DepartmentID.String)
	if err != nil {
		return nil, err
	}
	if !belongs {
		return nil, models.NewDomainError(models.ErrDepartmentMismatch,
			"staff %d does not belong to department %q", staffID, c.DepartmentID.String)
	}

	now := s.clk.Now()
	if err := s.repo.AssignStaff(complaintID, staffID, now); err != nil {
		return nil, err
	}

	oldStaff := ""
	if c.StaffID.Valid {
		oldStaff = fmt.Sprintf("%d", c.StaffID.Int64)
	}
	s.audit.MustRecord(models.AuditEntityAssignment, entityID(complaintID), models.AuditAssignment,
		oldStaff, fmt.Sprintf("%d", staffID), actor, "staff assigned")

	s.notifier.Notify(staffID, models.NotifyAssignment,
		"Complaint assigned to you",
		fmt.Sprintf("Complaint %s has been assigned to you.", c.ComplaintNumber),
		c.ComplaintID)

	c.StaffID = sql.NullInt64{Int64: staffID, Valid: true}
	return c, nil
}

// ManualRoute reroutes a complaint to a department. ADMIN only; used for
// low-confidence complaints parked in FILED.
func (s *ComplaintService) ManualRoute(complaintID int64, departmentID string, actor models.ActorContext, reason string) (*models.Complaint, error) {
	if !actor.IsAdmin() {
		return nil, models.NewDomainError(models.ErrUnauthorized,
			"role %s may not route complaints", actor.Role)
	}
	dept, err := s.departments.GetByCode(departmentID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if c.CurrentStatus.IsTerminal() {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s", complaintID, c.CurrentStatus)
	}

	now := s.clk.Now()
	if err := s.repo.UpdateDepartment(complaintID, dept.Code, now); err != nil {
		return nil, err
	}

	oldDept := ""
	if c.DepartmentID.Valid {
		oldDept = c.DepartmentID.String
	}
	s.audit.MustRecord(models.AuditEntityAssignment, entityID(complaintID), models.AuditAssignment,
		oldDept, dept.Code, actor, reason)

	s.notifier.Notify(dept.HeadUserID, models.NotifyAssignment,
		"Complaint routed to your department",
		fmt.Sprintf("Complaint %s has been routed to %s.", c.ComplaintNumber, dept.Name),
		c.ComplaintID)

	c.DepartmentID = sql.NullString{String: dept.Code, Valid: true}
	c.StaffID = sql.NullInt64{}
	return c, nil
}

// RecordRating stores the citizen's one-time rating on a resolved or closed
// complaint.
func (s *ComplaintService) RecordRating(complaintID int64, rating int, feedback string, actor models.ActorContext) (*models.Complaint, error) {
	if rating < 1 || rating > 5 {
		return nil, models.NewDomainError(models.ErrValidation, "rating must be between 1 and 5")
	}
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCitizen || actor.UserID != c.CitizenID {
		return nil, models.NewDomainError(models.ErrOwnershipRequired,
			"only the complaint author may rate it")
	}
	if c.CurrentStatus != models.StatusResolved && c.CurrentStatus != models.StatusClosed {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s; rating requires RESOLVED or CLOSED", complaintID, c.CurrentStatus)
	}
	if c.Rating.Valid {
		return nil, models.NewDomainError(models.ErrConflict, "complaint %d is already rated", complaintID)
	}

	now := s.clk.Now()
	ok, err := s.repo.SetRating(complaintID, rating, feedback, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewDomainError(models.ErrConflict, "complaint %d is already rated", complaintID)
	}

	s.audit.MustRecord(models.AuditEntityComplaint, entityID(complaintID), models.AuditRating,
		"", fmt.Sprintf("%d", rating), actor, feedback)

	c.Rating = sql.NullInt64{Int64: int64(rating), Valid: true}
	c.Feedback = nullString(feedback)
	return c, nil
}

// OverrideSLA re-records the SLA assignment manually. ADMIN only; the new
// deadline is filedAt plus the overridden day budget.
func (s *ComplaintService) OverrideSLA(complaintID int64, days int, actor models.ActorContext, reason string) (*models.Complaint, error) {
	if !actor.IsAdmin() {
		return nil, models.NewDomainError(models.ErrUnauthorized,
			"role %s may not override SLA", actor.Role)
	}
	if days <= 0 {
		return nil, models.NewDomainError(models.ErrValidation, "SLA days must be positive")
	}
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if c.CurrentStatus.IsTerminal() {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s", complaintID, c.CurrentStatus)
	}

	now := s.clk.Now()
	deadline := c.FiledAt.AddDate(0, 0, days)
	if err := s.repo.OverrideSLA(complaintID, days, deadline, now); err != nil {
		return nil, err
	}

	oldDeadline := ""
	if c.SLADeadline.Valid {
		oldDeadline = c.SLADeadline.Time.Format(time.RFC3339)
	}
	s.audit.MustRecord(models.AuditEntitySLA, entityID(complaintID), models.AuditSLAUpdate,
		oldDeadline, deadline.Format(time.RFC3339), actor, reason)

	c.SLADaysAssigned = days
	c.SLADeadline = sql.NullTime{Time: deadline, Valid: true}
	return c, nil
}

// ReopenAfterDispute is the engine half of dispute approval: the complaint
// returns to IN_PROGRESS, its escalation level advances by one, and its
// priority rises one step. The level and priority change is one conditional
// write so a repeated approval cannot double-escalate.
func (s *ComplaintService) ReopenAfterDispute(complaintID int64, approver models.ActorContext, reason string) (*models.Complaint, error) {
	c, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}

	reopened, err := s.Transition(complaintID, models.StatusInProgress, models.SystemActor(), reason)
	if err != nil {
		return nil, err
	}
	if c.EscalationLevel >= models.MaxEscalationLevel {
		// Already at the ceiling; the reopen stands, the level does not move.
		return reopened, nil
	}

	now := s.clk.Now()
	ok, err := s.repo.BumpEscalation(complaintID, c.EscalationLevel, models.NextPriority(c.Priority), now)
	if err != nil {
		return nil, err
	}
	if ok {
		s.audit.MustRecord(models.AuditEntityComplaint, entityID(complaintID), models.AuditEscalation,
			fmt.Sprintf("%d", c.EscalationLevel), fmt.Sprintf("%d", c.EscalationLevel+1),
			approver, "escalated after approved dispute")
		reopened.EscalationLevel = c.EscalationLevel + 1
		reopened.Priority = models.NextPriority(c.Priority)
	}
	return reopened, nil
}

func entityID(complaintID int64) string {
	return fmt.Sprintf("%d", complaintID)
}
