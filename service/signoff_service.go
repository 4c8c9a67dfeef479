package service

import (
	"database/sql"
	"fmt"
	"strings"

	"civicfix/clock"
	"civicfix/models"
)

// SignoffService runs the resolution protocol: staff proof submission,
// the RESOLVED transition, and the citizen's accept-or-dispute response
// including dispute adjudication by the department head.
type SignoffService struct {
	complaints  *ComplaintService
	repo        signoffStore
	proofs      proofStore
	departments departmentStore
	audit       *AuditSink
	notifier    *NotificationService
	clk         clock.Clock
}

// NewSignoffService creates the resolution protocol service
func NewSignoffService(
	complaints *ComplaintService,
	repo signoffStore,
	proofs proofStore,
	departments departmentStore,
	audit *AuditSink,
	notifier *NotificationService,
	clk clock.Clock,
) *SignoffService {
	return &SignoffService{
		complaints:  complaints,
		repo:        repo,
		proofs:      proofs,
		departments: departments,
		audit:       audit,
		notifier:    notifier,
		clk:         clk,
	}
}

// SubmitProof attaches remediation evidence to an IN_PROGRESS complaint.
// Only staff or the department head of the complaint's own department may
// submit; both a photo and non-empty remarks are required.
func (s *SignoffService) SubmitProof(
	complaintID int64,
	actor models.ActorContext,
	imageKey, remarks string,
	lat, lng *float64,
) (*models.ResolutionProof, error) {
	if actor.Role != models.RoleStaff && actor.Role != models.RoleDeptHead {
		return nil, models.NewDomainError(models.ErrUnauthorized,
			"role %s may not submit resolution proof", actor.Role)
	}
	if imageKey == "" {
		return nil, models.NewDomainError(models.ErrValidation, "proof photo is required")
	}
	if strings.TrimSpace(remarks) == "" {
		return nil, models.NewDomainError(models.ErrValidation, "proof remarks are required")
	}

	c, err := s.complaints.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if c.CurrentStatus != models.StatusInProgress {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s; proof requires IN_PROGRESS", complaintID, c.CurrentStatus)
	}
	if !c.DepartmentID.Valid || actor.DepartmentID != c.DepartmentID.String {
		return nil, models.NewDomainError(models.ErrDepartmentMismatch,
			"actor department %q does not handle complaint %d", actor.DepartmentID, complaintID)
	}

	p := &models.ResolutionProof{
		ComplaintID:   complaintID,
		AuthorStaffID: actor.UserID,
		ImageKey:      imageKey,
		Remarks:       remarks,
		SubmittedAt:   s.clk.Now(),
	}
	if lat != nil && lng != nil {
		p.CapturedLat = sql.NullFloat64{Float64: *lat, Valid: true}
		p.CapturedLng = sql.NullFloat64{Float64: *lng, Valid: true}
		p.CapturedAt = sql.NullTime{Time: p.SubmittedAt, Valid: true}
	}
	if err := s.proofs.Create(p); err != nil {
		return nil, err
	}

	s.audit.MustRecord(models.AuditEntityProof, fmt.Sprintf("%d", p.ProofID), models.AuditCreated,
		"", fmt.Sprintf("complaint %d", complaintID), actor, "resolution proof submitted")
	return p, nil
}

// ListProofs returns a complaint's proofs, oldest first
func (s *SignoffService) ListProofs(complaintID int64) ([]models.ResolutionProof, error) {
	return s.proofs.ListByComplaint(complaintID)
}

// Resolve moves an IN_PROGRESS complaint to RESOLVED. The proof gate and
// department check live in the transition policy.
func (s *SignoffService) Resolve(complaintID int64, actor models.ActorContext, note string) (*models.Complaint, error) {
	reason := "marked resolved by staff"
	if strings.TrimSpace(note) != "" {
		reason = note
	}
	return s.complaints.Transition(complaintID, models.StatusResolved, actor, reason)
}

// Accept records the citizen's acceptance of a resolution and closes the
// complaint. Re-accepting an already closed complaint returns the existing
// signoff unchanged.
func (s *SignoffService) Accept(complaintID int64, actor models.ActorContext, rating *int, feedback string) (*models.CitizenSignoff, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, models.NewDomainError(models.ErrValidation, "rating must be between 1 and 5")
	}
	c, err := s.complaints.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCitizen || actor.UserID != c.CitizenID {
		return nil, models.NewDomainError(models.ErrOwnershipRequired,
			"only the complaint author may sign off")
	}

	if c.CurrentStatus == models.StatusClosed {
		existing, err := s.repo.GetActiveByComplaint(complaintID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Kind == models.SignoffAccept && existing.CitizenID == actor.UserID {
			return existing, nil
		}
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is already closed", complaintID)
	}
	if c.CurrentStatus != models.StatusResolved {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s; signoff requires RESOLVED", complaintID, c.CurrentStatus)
	}

	active, err := s.repo.GetActiveByComplaint(complaintID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, models.NewDomainError(models.ErrConflict,
			"complaint %d already has an active signoff", complaintID)
	}

	// Close first; a failed transition must not leave an active signoff
	// behind, since an active signoff blocks every later accept or dispute.
	if _, err := s.complaints.Transition(complaintID, models.StatusClosed, actor, "resolution accepted by citizen"); err != nil {
		return nil, err
	}

	so := &models.CitizenSignoff{
		ComplaintID: complaintID,
		CitizenID:   actor.UserID,
		Kind:        models.SignoffAccept,
		Feedback:    nullString(feedback),
		Active:      true,
		CreatedAt:   s.clk.Now(),
	}
	if rating != nil {
		so.Rating = sql.NullInt64{Int64: int64(*rating), Valid: true}
	}
	if err := s.repo.Create(so); err != nil {
		return nil, err
	}

	s.audit.MustRecord(models.AuditEntitySignoff, fmt.Sprintf("%d", so.SignoffID), models.AuditCreated,
		"", string(models.SignoffAccept), actor, "citizen accepted resolution")

	if rating != nil {
		if _, err := s.complaints.RecordRating(complaintID, *rating, feedback, actor); err != nil {
			// The signoff and close already happened; a rating conflict is
			// not worth failing the acceptance over.
			if models.KindOf(err) != models.ErrConflict {
				return nil, err
			}
		}
	}
	return so, nil
}

// Dispute records the citizen's rejection of a resolution. The complaint
// stays RESOLVED while the department head adjudicates; the signoff-window
// auto-close skips complaints with an active signoff, so the clock resumes
// only if the dispute is rejected.
func (s *SignoffService) Dispute(complaintID int64, actor models.ActorContext, reason, imageKey string) (*models.CitizenSignoff, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.NewDomainError(models.ErrValidation, "dispute reason is required")
	}

	c, err := s.complaints.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCitizen || actor.UserID != c.CitizenID {
		return nil, models.NewDomainError(models.ErrOwnershipRequired,
			"only the complaint author may dispute")
	}
	if c.CurrentStatus != models.StatusResolved {
		return nil, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s; dispute requires RESOLVED", complaintID, c.CurrentStatus)
	}

	active, err := s.repo.GetActiveByComplaint(complaintID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, models.NewDomainError(models.ErrConflict,
			"complaint %d already has an active signoff", complaintID)
	}

	so := &models.CitizenSignoff{
		ComplaintID:     complaintID,
		CitizenID:       actor.UserID,
		Kind:            models.SignoffDispute,
		DisputeReason:   nullString(reason),
		DisputeImageKey: nullString(imageKey),
		DisputeStatus:   sql.NullString{String: string(models.DisputePending), Valid: true},
		Active:          true,
		CreatedAt:       s.clk.Now(),
	}
	if err := s.repo.Create(so); err != nil {
		return nil, err
	}

	s.audit.MustRecord(models.AuditEntitySignoff, fmt.Sprintf("%d", so.SignoffID), models.AuditCreated,
		"", string(models.DisputePending), actor, reason)

	if c.DepartmentID.Valid {
		if dept, derr := s.departments.GetByCode(c.DepartmentID.String); derr == nil {
			s.notifier.Notify(dept.HeadUserID, models.NotifyGeneral,
				"Resolution disputed",
				fmt.Sprintf("The citizen has disputed the resolution of complaint %s.", c.ComplaintNumber),
				c.ComplaintID)
		}
	}
	return so, nil
}

// ApproveDispute upholds the citizen's dispute: the complaint reopens and
// escalates one level. Only the department head of the complaint's
// department or an admin may adjudicate.
func (s *SignoffService) ApproveDispute(signoffID int64, actor models.ActorContext, note string) (*models.Complaint, error) {
	so, c, err := s.loadPendingDispute(signoffID, actor)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.AdjudicateDispute(signoffID, models.DisputeApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewDomainError(models.ErrConflict,
			"dispute %d was already adjudicated", signoffID)
	}

	s.audit.MustRecord(models.AuditEntitySignoff, fmt.Sprintf("%d", signoffID), models.AuditUpdated,
		string(models.DisputePending), string(models.DisputeApproved), actor, note)

	reopened, err := s.complaints.ReopenAfterDispute(c.ComplaintID, actor, "dispute approved; work reopened")
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(so.CitizenID, models.NotifyStatusChange,
		"Dispute approved",
		fmt.Sprintf("Your dispute on complaint %s was approved. Work has been reopened.", c.ComplaintNumber),
		c.ComplaintID)
	return reopened, nil
}

// RejectDispute overrules the citizen's dispute. The complaint remains
// RESOLVED and its signoff window keeps running toward auto-close.
func (s *SignoffService) RejectDispute(signoffID int64, actor models.ActorContext, note string) (*models.CitizenSignoff, error) {
	so, c, err := s.loadPendingDispute(signoffID, actor)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.AdjudicateDispute(signoffID, models.DisputeRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewDomainError(models.ErrConflict,
			"dispute %d was already adjudicated", signoffID)
	}

	s.audit.MustRecord(models.AuditEntitySignoff, fmt.Sprintf("%d", signoffID), models.AuditUpdated,
		string(models.DisputePending), string(models.DisputeRejected), actor, note)

	s.notifier.Notify(so.CitizenID, models.NotifyStatusChange,
		"Dispute rejected",
		fmt.Sprintf("Your dispute on complaint %s was reviewed and rejected.", c.ComplaintNumber),
		c.ComplaintID)

	so.DisputeStatus = sql.NullString{String: string(models.DisputeRejected), Valid: true}
	so.Active = false
	return so, nil
}

// ListByComplaint returns a complaint's signoff history, oldest first
func (s *SignoffService) ListByComplaint(complaintID int64) ([]models.CitizenSignoff, error) {
	return s.repo.ListByComplaint(complaintID)
}

func (s *SignoffService) loadPendingDispute(signoffID int64, actor models.ActorContext) (*models.CitizenSignoff, *models.Complaint, error) {
	so, err := s.repo.GetByID(signoffID)
	if err != nil {
		return nil, nil, err
	}
	if so.Kind != models.SignoffDispute {
		return nil, nil, models.NewDomainError(models.ErrPreconditionFailed,
			"signoff %d is not a dispute", signoffID)
	}
	if !so.DisputeStatus.Valid || so.DisputeStatus.String != string(models.DisputePending) {
		return nil, nil, models.NewDomainError(models.ErrConflict,
			"dispute %d was already adjudicated", signoffID)
	}

	c, err := s.complaints.GetByID(so.ComplaintID)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.Role == models.RoleDeptHead:
		if !c.DepartmentID.Valid || actor.DepartmentID != c.DepartmentID.String {
			return nil, nil, models.NewDomainError(models.ErrDepartmentMismatch,
				"department head of %q may not adjudicate complaint %d", actor.DepartmentID, c.ComplaintID)
		}
	default:
		return nil, nil, models.NewDomainError(models.ErrUnauthorized,
			"role %s may not adjudicate disputes", actor.Role)
	}
	return so, c, nil
}
