package lifecycle

import (
	"database/sql"
	"testing"

	"civicfix/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testComplaint(status models.ComplaintStatus) *models.Complaint {
	return &models.Complaint{
		ComplaintID:   101,
		CitizenID:     42,
		CurrentStatus: status,
		DepartmentID:  sql.NullString{String: "ROADS", Valid: true},
	}
}

func staffActor(dept string) models.ActorContext {
	return models.ActorContext{
		ActorType:    models.ActorUser,
		UserID:       7,
		Role:         models.RoleStaff,
		DepartmentID: dept,
	}
}

func citizenActor(id int64) models.ActorContext {
	return models.ActorContext{ActorType: models.ActorUser, UserID: id, Role: models.RoleCitizen}
}

func TestAuthorizeIllegalTransitionReportedFirst(t *testing.T) {
	p := NewPolicy()
	// Even with a wrong role, an illegal edge must be the reported reason.
	err := p.Authorize(citizenActor(1), testComplaint(models.StatusFiled),
		models.StatusResolved, Preconditions{})
	require.Error(t, err)
	assert.Equal(t, models.ErrInvalidTransition, models.KindOf(err))
}

func TestAuthorizeRoleCheck(t *testing.T) {
	p := NewPolicy()
	// A citizen cannot resolve, even their own complaint.
	err := p.Authorize(citizenActor(42), testComplaint(models.StatusInProgress),
		models.StatusResolved, Preconditions{ProofCount: 1})
	require.Error(t, err)
	assert.Equal(t, models.ErrUnauthorized, models.KindOf(err))
}

func TestAuthorizeOwnership(t *testing.T) {
	p := NewPolicy()
	err := p.Authorize(citizenActor(99), testComplaint(models.StatusResolved),
		models.StatusClosed, Preconditions{})
	require.Error(t, err)
	assert.Equal(t, models.ErrOwnershipRequired, models.KindOf(err))

	// The author may close.
	assert.NoError(t, p.Authorize(citizenActor(42), testComplaint(models.StatusResolved),
		models.StatusClosed, Preconditions{}))
}

func TestAuthorizeDepartmentMismatch(t *testing.T) {
	p := NewPolicy()
	err := p.Authorize(staffActor("WATER"), testComplaint(models.StatusInProgress),
		models.StatusResolved, Preconditions{ProofCount: 1})
	require.Error(t, err)
	assert.Equal(t, models.ErrDepartmentMismatch, models.KindOf(err))
}

func TestAuthorizeProofPrecondition(t *testing.T) {
	p := NewPolicy()
	err := p.Authorize(staffActor("ROADS"), testComplaint(models.StatusInProgress),
		models.StatusResolved, Preconditions{ProofCount: 0})
	require.Error(t, err)
	assert.Equal(t, models.ErrPreconditionFailed, models.KindOf(err))

	assert.NoError(t, p.Authorize(staffActor("ROADS"), testComplaint(models.StatusInProgress),
		models.StatusResolved, Preconditions{ProofCount: 1}))
}

func TestAuthorizeSystemAutoTransitions(t *testing.T) {
	p := NewPolicy()
	sys := models.SystemActor()

	assert.NoError(t, p.Authorize(sys, testComplaint(models.StatusFiled),
		models.StatusInProgress, Preconditions{}))
	// Timeout close.
	assert.NoError(t, p.Authorize(sys, testComplaint(models.StatusResolved),
		models.StatusClosed, Preconditions{}))
	// Approved dispute re-open.
	assert.NoError(t, p.Authorize(sys, testComplaint(models.StatusResolved),
		models.StatusInProgress, Preconditions{}))
	// SYSTEM is not a free pass: resolving still belongs to staff.
	err := p.Authorize(sys, testComplaint(models.StatusInProgress),
		models.StatusResolved, Preconditions{ProofCount: 1})
	assert.Equal(t, models.ErrUnauthorized, models.KindOf(err))
}

func TestAuthorizeAdminCancel(t *testing.T) {
	p := NewPolicy()
	admin := models.ActorContext{ActorType: models.ActorUser, UserID: 5, Role: models.RoleAdmin}
	superAdmin := models.ActorContext{ActorType: models.ActorUser, UserID: 6, Role: models.RoleSuperAdmin}

	for _, status := range []models.ComplaintStatus{
		models.StatusFiled, models.StatusInProgress, models.StatusResolved,
	} {
		assert.NoError(t, p.Authorize(admin, testComplaint(status),
			models.StatusCancelled, Preconditions{}), "admin cancel from %s", status)
		assert.NoError(t, p.Authorize(superAdmin, testComplaint(status),
			models.StatusCancelled, Preconditions{}), "super admin cancel from %s", status)
	}
}

func TestAllowedTransitions(t *testing.T) {
	p := NewPolicy()

	// Owner on a RESOLVED complaint: close or cancel, not re-open.
	got := p.AllowedTransitions(citizenActor(42), testComplaint(models.StatusResolved), Preconditions{})
	assert.Equal(t, []models.ComplaintStatus{models.StatusClosed, models.StatusCancelled}, got)

	// Staff in the right department with proof: only resolve.
	got = p.AllowedTransitions(staffActor("ROADS"), testComplaint(models.StatusInProgress),
		Preconditions{ProofCount: 2})
	assert.Equal(t, []models.ComplaintStatus{models.StatusResolved}, got)

	// Staff without proof may do nothing.
	got = p.AllowedTransitions(staffActor("ROADS"), testComplaint(models.StatusInProgress), Preconditions{})
	assert.Empty(t, got)

	// Stranger citizen may do nothing at all.
	got = p.AllowedTransitions(citizenActor(1), testComplaint(models.StatusResolved), Preconditions{})
	assert.Empty(t, got)
}
