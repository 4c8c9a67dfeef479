// Package lifecycle declares the legal complaint state transitions and the
// compound authorization policy layered on top of them. Both are pure: they
// never read or mutate persisted records.
package lifecycle

import (
	"civicfix/models"
)

// TransitionRule describes one legal edge of the state machine together with
// the checks the policy layer applies to it.
type TransitionRule struct {
	From models.ComplaintStatus
	To   models.ComplaintStatus

	// Roles allowed to request this transition.
	Roles []models.Role

	// OwnerOnly: a CITIZEN actor must be the complaint's author.
	OwnerOnly bool

	// DepartmentBound: a STAFF or DEPT_HEAD actor must belong to the
	// complaint's department.
	DepartmentBound bool

	// ProofRequired: at least one resolution proof must exist.
	ProofRequired bool
}

// transitionRules is an ordered list; the first rule matching (from, to) wins.
var transitionRules = []TransitionRule{
	{
		From:  models.StatusFiled,
		To:    models.StatusInProgress,
		Roles: []models.Role{models.RoleSystem},
	},
	{
		From:            models.StatusInProgress,
		To:              models.StatusResolved,
		Roles:           []models.Role{models.RoleStaff, models.RoleDeptHead},
		DepartmentBound: true,
		ProofRequired:   true,
	},
	{
		From:      models.StatusResolved,
		To:        models.StatusClosed,
		Roles:     []models.Role{models.RoleCitizen, models.RoleSystem},
		OwnerOnly: true,
	},
	{
		From:  models.StatusResolved,
		To:    models.StatusInProgress,
		Roles: []models.Role{models.RoleSystem},
	},
	{
		From:      models.StatusFiled,
		To:        models.StatusCancelled,
		Roles:     []models.Role{models.RoleCitizen, models.RoleAdmin, models.RoleSuperAdmin},
		OwnerOnly: true,
	},
	{
		From:      models.StatusInProgress,
		To:        models.StatusCancelled,
		Roles:     []models.Role{models.RoleCitizen, models.RoleAdmin, models.RoleSuperAdmin},
		OwnerOnly: true,
	},
	{
		From:      models.StatusResolved,
		To:        models.StatusCancelled,
		Roles:     []models.Role{models.RoleCitizen, models.RoleAdmin, models.RoleSuperAdmin},
		OwnerOnly: true,
	},
}

// FindRule returns the first rule matching (from, to), or nil when the
// transition is illegal.
func FindRule(from, to models.ComplaintStatus) *TransitionRule {
	for i := range transitionRules {
		if transitionRules[i].From == from && transitionRules[i].To == to {
			return &transitionRules[i]
		}
	}
	return nil
}

// CanTransition reports whether from→to is a legal edge for any actor
func CanTransition(from, to models.ComplaintStatus) bool {
	return FindRule(from, to) != nil
}

// TargetsFrom lists the states reachable from the given state, in rule order
func TargetsFrom(from models.ComplaintStatus) []models.ComplaintStatus {
	var targets []models.ComplaintStatus
	for _, rule := range transitionRules {
		if rule.From != from {
			continue
		}
		dup := false
		for _, t := range targets {
			if t == rule.To {
				dup = true
				break
			}
		}
		if !dup {
			targets = append(targets, rule.To)
		}
	}
	return targets
}

// roleAllowed checks the rule's role allow-list. SUPER_ADMIN is accepted
// wherever ADMIN is.
func roleAllowed(rule *TransitionRule, role models.Role) bool {
	for _, allowed := range rule.Roles {
		if role == allowed {
			return true
		}
		if allowed == models.RoleAdmin && role == models.RoleSuperAdmin {
			return true
		}
	}
	return false
}
