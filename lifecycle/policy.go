package lifecycle

import (
	"civicfix/models"
)

// Preconditions carries the state-dependent facts the policy needs beyond the
// complaint row itself.
type Preconditions struct {
	ProofCount int
}

// Policy resolves the compound authorization decision for a transition:
// legality, role, ownership, department, precondition, in that order, so
// the first failing check is the reported reason.
type Policy struct{}

// NewPolicy creates the authorization policy
func NewPolicy() *Policy {
	return &Policy{}
}

// Authorize returns nil when actor may perform complaint: from→to, or a
// DomainError naming the first failing check.
func (p *Policy) Authorize(
	actor models.ActorContext,
	complaint *models.Complaint,
	target models.ComplaintStatus,
	pre Preconditions,
) error {
	// 1. Transition legality
	rule := FindRule(complaint.CurrentStatus, target)
	if rule == nil {
		return models.NewDomainError(models.ErrInvalidTransition,
			"transition %s -> %s is not allowed", complaint.CurrentStatus, target)
	}

	// 2. Role allow-list
	if !roleAllowed(rule, actor.Role) {
		return models.NewDomainError(models.ErrUnauthorized,
			"role %s may not perform %s -> %s (allowed: %v)",
			actor.Role, rule.From, rule.To, rule.Roles)
	}

	// 3. Ownership for citizen-originated closures and cancellations
	if rule.OwnerOnly && actor.Role == models.RoleCitizen && actor.UserID != complaint.CitizenID {
		return models.NewDomainError(models.ErrOwnershipRequired,
			"citizen %d is not the author of complaint %d", actor.UserID, complaint.ComplaintID)
	}

	// 4. Department match for staff resolutions
	if rule.DepartmentBound && (actor.Role == models.RoleStaff || actor.Role == models.RoleDeptHead) {
		if !complaint.DepartmentID.Valid || actor.DepartmentID != complaint.DepartmentID.String {
			return models.NewDomainError(models.ErrDepartmentMismatch,
				"actor department %q does not match complaint department %q",
				actor.DepartmentID, complaint.DepartmentID.String)
		}
	}

	// 5. Preconditions
	if rule.ProofRequired && pre.ProofCount < 1 {
		return models.NewDomainError(models.ErrPreconditionFailed,
			"at least one resolution proof is required before %s", rule.To)
	}

	return nil
}

// AllowedTransitions lists the target states this actor may legally request
// for the complaint right now, without attempting them.
func (p *Policy) AllowedTransitions(
	actor models.ActorContext,
	complaint *models.Complaint,
	pre Preconditions,
) []models.ComplaintStatus {
	var allowed []models.ComplaintStatus
	for _, target := range TargetsFrom(complaint.CurrentStatus) {
		if p.Authorize(actor, complaint, target, pre) == nil {
			allowed = append(allowed, target)
		}
	}
	return allowed
}
