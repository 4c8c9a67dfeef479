package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"civicfix/ai"
	"civicfix/models"
)

func citizenActor(userID int64) models.ActorContext {
	return models.ActorContext{ActorType: models.ActorUser, UserID: userID, Role: models.RoleCitizen}
}

func staffActor(userID int64, dept string) models.ActorContext {
	return models.ActorContext{ActorType: models.ActorUser, UserID: userID, Role: models.RoleStaff, DepartmentID: dept}
}

func deptHeadActor(userID int64, dept string) models.ActorContext {
	return models.ActorContext{ActorType: models.ActorUser, UserID: userID, Role: models.RoleDeptHead, DepartmentID: dept}
}

func adminActor(userID int64) models.ActorContext {
	return models.ActorContext{ActorType: models.ActorUser, UserID: userID, Role: models.RoleAdmin}
}

func TestCreateFromIntakeAutoStartsOnConfidentDecision(t *testing.T) {
	env := newTestEnv()

	decision := ai.Decision{
		Category:   models.CategoryPothole,
		Priority:   models.PriorityHigh,
		Reasoning:  "road surface damage visible",
		Confidence: 0.92,
	}
	c, err := env.engine.CreateFromIntake(IntakeDraft{
		CitizenID:   7,
		Title:       "Pothole outside the market",
		Description: "A wide pothole that fills with water after rain",
		Location:    "Market road",
	}, decision)
	require.NoError(t, err)

	require.Equal(t, models.StatusInProgress, c.CurrentStatus)
	require.Equal(t, "ROADS", c.DepartmentID.String)
	require.Equal(t, 3, c.SLADaysAssigned)
	require.Equal(t, testEpoch.AddDate(0, 0, 3), c.SLADeadline.Time)

	actions := env.auditStore.actions()
	require.Contains(t, actions, models.AuditCreated)
	require.Contains(t, actions, models.AuditStateChange)

	require.NotEmpty(t, env.notifications.forRecipient(7))
}

func TestCreateFromIntakeParksLowConfidenceInFiled(t *testing.T) {
	env := newTestEnv()

	c, err := env.engine.CreateFromIntake(IntakeDraft{
		CitizenID:   7,
		Title:       "Something broken near the park",
		Description: "Not sure what department handles this",
		Location:    "Central park gate",
	}, ai.Decision{
		Category:   models.CategoryStreetlight,
		Priority:   models.PriorityLow,
		Confidence: 0.4,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusFiled, c.CurrentStatus)

	pending, err := env.engine.ListPendingRouting()
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestCreateFromIntakeOtherCategoryNeverAutoStarts(t *testing.T) {
	env := newTestEnv()

	c, err := env.engine.CreateFromIntake(IntakeDraft{
		CitizenID:   7,
		Title:       "General complaint about services",
		Description: "Multiple issues in the neighborhood",
		Location:    "Ward 9",
	}, ai.Decision{
		Category:   models.CategoryOther,
		Priority:   models.PriorityLow,
		Confidence: 0.95,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusFiled, c.CurrentStatus)
	require.Equal(t, 14, c.SLADaysAssigned)
}

func TestTransitionEnforcesPolicy(t *testing.T) {
	env := newTestEnv()
	c := env.seedComplaint(nil)

	// Staff cannot resolve without proof.
	_, err := env.engine.Transition(c.ComplaintID, models.StatusResolved, staffActor(50, "ROADS"), "done")
	require.Error(t, err)
	require.Equal(t, models.ErrPreconditionFailed, models.KindOf(err))

	// A citizen cannot resolve at all.
	_, err = env.engine.Transition(c.ComplaintID, models.StatusResolved, citizenActor(1), "done")
	require.Error(t, err)
	require.Equal(t, models.ErrUnauthorized, models.KindOf(err))

	// With proof on file the same staff transition goes through.
	env.proofs.Create(&models.ResolutionProof{ComplaintID: c.ComplaintID, AuthorStaffID: 50, ImageKey: "k", Remarks: "fixed"})
	resolved, err := env.engine.Transition(c.ComplaintID, models.StatusResolved, staffActor(50, "ROADS"), "done")
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, resolved.CurrentStatus)
	require.True(t, resolved.ResolvedAt.Valid)
}

func TestAssignStaffRules(t *testing.T) {
	env := newTestEnv()
	env.departments.staff["ROADS"] = []int64{50, 51}
	c := env.seedComplaint(nil)

	// Department head of another department is rejected.
	_, err := env.engine.AssignStaff(c.ComplaintID, 50, deptHeadActor(103, "WATER"))
	require.Equal(t, models.ErrDepartmentMismatch, models.KindOf(err))

	// Staff outside the department is rejected even for the right head.
	_, err = env.engine.AssignStaff(c.ComplaintID, 999, deptHeadActor(101, "ROADS"))
	require.Equal(t, models.ErrDepartmentMismatch, models.KindOf(err))

	// Citizens cannot assign.
	_, err = env.engine.AssignStaff(c.ComplaintID, 50, citizenActor(1))
	require.Equal(t, models.ErrUnauthorized, models.KindOf(err))

	assigned, err := env.engine.AssignStaff(c.ComplaintID, 50, deptHeadActor(101, "ROADS"))
	require.NoError(t, err)
	require.Equal(t, int64(50), assigned.StaffID.Int64)
	require.NotEmpty(t, env.notifications.forRecipient(50))

	// Re-assigning the same staff member is a conflict.
	_, err = env.engine.AssignStaff(c.ComplaintID, 50, deptHeadActor(101, "ROADS"))
	require.Equal(t, models.ErrConflict, models.KindOf(err))
}

func TestManualRouteAdminOnly(t *testing.T) {
	env := newTestEnv()
	c := env.seedComplaint(func(c *models.Complaint) {
		c.CurrentStatus = models.StatusFiled
		c.DepartmentID = nullStr("GENERAL")
	})

	_, err := env.engine.ManualRoute(c.ComplaintID, "WATER", deptHeadActor(101, "ROADS"), "rerouting")
	require.Equal(t, models.ErrUnauthorized, models.KindOf(err))

	_, err = env.engine.ManualRoute(c.ComplaintID, "NOPE", adminActor(800), "rerouting")
	require.Equal(t, models.ErrNotFound, models.KindOf(err))

	routed, err := env.engine.ManualRoute(c.ComplaintID, "WATER", adminActor(800), "water issue after all")
	require.NoError(t, err)
	require.Equal(t, "WATER", routed.DepartmentID.String)
	require.False(t, routed.StaffID.Valid)
	require.Contains(t, env.auditStore.actions(), models.AuditAssignment)
	require.NotEmpty(t, env.notifications.forRecipient(103))
}

func TestRecordRatingOnceByOwner(t *testing.T) {
	env := newTestEnv()
	c := env.seedComplaint(func(c *models.Complaint) {
		c.CurrentStatus = models.StatusResolved
		c.ResolvedAt = nullTime(env.clk.Now())
	})

	_, err := env.engine.RecordRating(c.ComplaintID, 9, "", citizenActor(1))
	require.Equal(t, models.ErrValidation, models.KindOf(err))

	_, err = env.engine.RecordRating(c.ComplaintID, 4, "", citizenActor(2))
	require.Equal(t, models.ErrOwnershipRequired, models.KindOf(err))

	rated, err := env.engine.RecordRating(c.ComplaintID, 4, "quick fix", citizenActor(1))
	require.NoError(t, err)
	require.Equal(t, int64(4), rated.Rating.Int64)
	require.Contains(t, env.auditStore.actions(), models.AuditRating)

	_, err = env.engine.RecordRating(c.ComplaintID, 5, "", citizenActor(1))
	require.Equal(t, models.ErrConflict, models.KindOf(err))
}

func TestOverrideSLARecomputesDeadlineFromFiling(t *testing.T) {
	env := newTestEnv()
	filedAt := testEpoch.Add(-48 * time.Hour)
	c := env.seedComplaint(func(c *models.Complaint) {
		c.FiledAt = filedAt
	})

	_, err := env.engine.OverrideSLA(c.ComplaintID, 10, staffActor(50, "ROADS"), "too tight")
	require.Equal(t, models.ErrUnauthorized, models.KindOf(err))

	_, err = env.engine.OverrideSLA(c.ComplaintID, 0, adminActor(800), "zero")
	require.Equal(t, models.ErrValidation, models.KindOf(err))

	updated, err := env.engine.OverrideSLA(c.ComplaintID, 10, adminActor(800), "complex excavation")
	require.NoError(t, err)
	require.Equal(t, 10, updated.SLADaysAssigned)
	require.Equal(t, filedAt.AddDate(0, 0, 10), updated.SLADeadline.Time)
	require.Contains(t, env.auditStore.actions(), models.AuditSLAUpdate)
}

func TestAllowedTransitionsForOwnerOnInProgress(t *testing.T) {
	env := newTestEnv()
	c := env.seedComplaint(nil)

	targets, err := env.engine.AllowedTransitions(c.ComplaintID, citizenActor(1))
	require.NoError(t, err)
	require.Equal(t, []models.ComplaintStatus{models.StatusCancelled}, targets)
}
