package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"civicfix/clock"
	"civicfix/config"
	"civicfix/models"
)

// EscalationService runs the periodic SLA sweep: level advancement for
// overdue work, auto-close of stale RESOLVED complaints, and stall warnings
// for complaints parked in FILED. Every write is conditional on the state
// observed at load time, so overlapping sweeps cannot double-escalate.
type EscalationService struct {
	engine      *ComplaintService
	repo        complaintStore
	signoffs    signoffStore
	departments departmentStore
	audit       *AuditSink
	notifier    *NotificationService
	cfg         config.EscalationConfig
	clk         clock.Clock
}

// NewEscalationService creates the escalation service
func NewEscalationService(
	engine *ComplaintService,
	repo complaintStore,
	signoffs signoffStore,
	departments departmentStore,
	audit *AuditSink,
	notifier *NotificationService,
	cfg config.EscalationConfig,
	clk clock.Clock,
) *EscalationService {
	return &EscalationService{
		engine:      engine,
		repo:        repo,
		signoffs:    signoffs,
		departments: departments,
		audit:       audit,
		notifier:    notifier,
		cfg:         cfg,
		clk:         clk,
	}
}

// Sweep performs one full escalation pass. Per-complaint failures are logged
// and skipped; the sweep keeps going until done or the context expires.
func (s *EscalationService) Sweep(ctx context.Context) (*models.SweepReport, error) {
	report := &models.SweepReport{}
	now := s.clk.Now()

	overdue, err := s.repo.ListOverdueInProgress(now)
	if err != nil {
		return report, fmt.Errorf("failed to list overdue complaints: %w", err)
	}
	for i := range overdue {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Examined++
		if escalated := s.escalateOne(&overdue[i], now); escalated {
			report.Escalated++
		}
	}

	closed, err := s.autoCloseResolved(ctx, now)
	if err != nil {
		return report, err
	}
	report.AutoClosed = closed

	warned, err := s.warnStalledFiled(ctx, now)
	if err != nil {
		return report, err
	}
	report.Warned = warned

	log.Printf("[ESCALATION] sweep done: examined=%d escalated=%d auto_closed=%d warned=%d",
		report.Examined, report.Escalated, report.AutoClosed, report.Warned)
	return report, nil
}

func (s *EscalationService) escalateOne(c *models.Complaint, now time.Time) bool {
	breach := now.Sub(c.SLADeadline.Time)
	breachDays := int(breach.Hours() / 24)

	switch {
	case c.EscalationLevel == 0:
		return s.advanceLevel(c, 1, models.NextPriority(c.Priority), now,
			fmt.Sprintf("SLA breached by %d day(s)", breachDays))
	case c.EscalationLevel == 1 && breach >= s.cfg.LevelTwoBreach:
		return s.advanceLevel(c, 2, models.PriorityCritical, now,
			fmt.Sprintf("SLA still breached after %d day(s)", breachDays))
	case c.EscalationLevel >= models.MaxEscalationLevel:
		return false
	}
	return false
}

func (s *EscalationService) advanceLevel(c *models.Complaint, toLevel int, priority models.Priority, now time.Time, reason string) bool {
	ok, err := s.repo.EscalateLevel(c.ComplaintID, c.EscalationLevel, toLevel, priority, now)
	if err != nil {
		log.Printf("[ESCALATION] failed to escalate complaint %d: %v", c.ComplaintID, err)
		return false
	}
	if !ok {
		// Another sweep got here first.
		return false
	}

	s.audit.MustRecord(models.AuditEntityComplaint, fmt.Sprintf("%d", c.ComplaintID), models.AuditEscalation,
		fmt.Sprintf("%d", c.EscalationLevel), fmt.Sprintf("%d", toLevel),
		models.SystemActor(), reason)

	switch toLevel {
	case 1:
		if c.DepartmentID.Valid {
			if dept, derr := s.departments.GetByCode(c.DepartmentID.String); derr == nil {
				s.notifier.Notify(dept.HeadUserID, models.NotifySLABreach,
					"Complaint escalated",
					fmt.Sprintf("Complaint %s breached its SLA: %s.", c.ComplaintNumber, reason),
					c.ComplaintID)
			}
		}
	case 2:
		if commissionerID, derr := s.departments.CommissionerID(); derr == nil {
			s.notifier.Notify(commissionerID, models.NotifyEscalation,
				"Complaint escalated to commissioner",
				fmt.Sprintf("Complaint %s remains unresolved: %s.", c.ComplaintNumber, reason),
				c.ComplaintID)
		}
	}
	return true
}

// autoCloseResolved closes RESOLVED complaints whose signoff window has
// elapsed with no citizen response. Complaints with an active signoff
// (pending dispute) are left alone.
func (s *EscalationService) autoCloseResolved(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.SignoffWindow)
	stale, err := s.repo.ListResolvedBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale resolved complaints: %w", err)
	}

	closed := 0
	for i := range stale {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		c := &stale[i]

		active, aerr := s.signoffs.GetActiveByComplaint(c.ComplaintID)
		if aerr != nil {
			log.Printf("[ESCALATION] failed to check signoffs for complaint %d: %v", c.ComplaintID, aerr)
			continue
		}
		if active != nil {
			continue
		}

		_, terr := s.engine.Transition(c.ComplaintID, models.StatusClosed, models.SystemActor(),
			fmt.Sprintf("auto-closed after %s signoff window", s.cfg.SignoffWindow))
		if terr != nil {
			if models.KindOf(terr) != models.ErrConflict {
				log.Printf("[ESCALATION] failed to auto-close complaint %d: %v", c.ComplaintID, terr)
			}
			continue
		}
		closed++
	}
	return closed, nil
}

// warnStalledFiled notifies admins about complaints sitting in FILED past
// the stall window. Each complaint is warned about at most once, via the
// notification dedupe check.
func (s *EscalationService) warnStalledFiled(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.FiledStallWindow)
	stalled, err := s.repo.ListFiledBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stalled filed complaints: %w", err)
	}
	if len(stalled) == 0 {
		return 0, nil
	}

	adminIDs, err := s.departments.AdminIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to look up admins: %w", err)
	}

	warned := 0
	for i := range stalled {
		if ctx.Err() != nil {
			return warned, ctx.Err()
		}
		c := &stalled[i]

		already, herr := s.notifier.HasForComplaint(models.NotifySLAWarning, c.ComplaintID)
		if herr != nil {
			log.Printf("[ESCALATION] failed to check warnings for complaint %d: %v", c.ComplaintID, herr)
			continue
		}
		if already {
			continue
		}

		for _, adminID := range adminIDs {
			s.notifier.Notify(adminID, models.NotifySLAWarning,
				"Complaint awaiting routing",
				fmt.Sprintf("Complaint %s has been in FILED for over %s.", c.ComplaintNumber, s.cfg.FiledStallWindow),
				c.ComplaintID)
		}
		warned++
	}
	return warned, nil
}

// Overdue lists IN_PROGRESS complaints past their SLA deadline
func (s *EscalationService) Overdue() ([]models.Complaint, error) {
	return s.repo.ListOverdueInProgress(s.clk.Now())
}

// Stats summarizes the escalation backlog
func (s *EscalationService) Stats() (*models.EscalationStats, error) {
	return s.repo.CountByStatusAndLevel()
}
