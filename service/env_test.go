package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"civicfix/ai"
	"civicfix/clock"
	"civicfix/config"
	"civicfix/lifecycle"
	"civicfix/models"
)

// testEnv wires the whole service graph over the in-memory fakes
type testEnv struct {
	complaints    *fakeComplaintStore
	proofs        *fakeProofStore
	signoffStore  *fakeSignoffStore
	upvotes       *fakeUpvoteStore
	notifications *fakeNotificationStore
	departments   *fakeDepartmentStore
	auditStore    *fakeAuditStore
	clk           *clock.Fixed

	audit       *AuditSink
	notifier    *NotificationService
	engine      *ComplaintService
	signoffs    *SignoffService
	community   *CommunityService
	escalations *EscalationService
}

var testEpoch = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestEnv() *testEnv {
	env := &testEnv{
		complaints:    newFakeComplaintStore(),
		proofs:        &fakeProofStore{},
		signoffStore:  newFakeSignoffStore(),
		upvotes:       newFakeUpvoteStore(),
		notifications: &fakeNotificationStore{},
		departments:   newFakeDepartmentStore(),
		auditStore:    &fakeAuditStore{},
		clk:           &clock.Fixed{T: testEpoch},
	}

	env.audit = NewAuditSink(env.auditStore, env.clk)
	env.notifier = NewNotificationService(env.notifications, recordingSender{}, env.clk)
	env.engine = NewComplaintService(
		env.complaints, env.proofs, env.departments, lifecycle.NewPolicy(),
		env.audit, env.notifier, env.clk, 0.7,
	)
	env.signoffs = NewSignoffService(
		env.engine, env.signoffStore, env.proofs, env.departments,
		env.audit, env.notifier, env.clk,
	)
	env.community = NewCommunityService(env.complaints, env.upvotes, config.DuplicateConfig{
		RadiusMeters:   500,
		FlagThreshold:  0.6,
		BlockThreshold: 0.8,
	}, env.clk)
	env.escalations = NewEscalationService(
		env.engine, env.complaints, env.signoffStore, env.departments,
		env.audit, env.notifier, config.EscalationConfig{
			Interval:         6 * time.Hour,
			SignoffWindow:    72 * time.Hour,
			FiledStallWindow: 48 * time.Hour,
			SweepBudget:      5 * time.Minute,
			LevelTwoBreach:   72 * time.Hour,
		}, env.clk,
	)
	return env
}

// seedComplaint stores a complaint with sensible defaults, applying overrides
func (env *testEnv) seedComplaint(override func(c *models.Complaint)) *models.Complaint {
	c := models.Complaint{
		ComplaintNumber: env.complaints.GenerateComplaintNumber(env.clk.Now()),
		CitizenID:       1,
		Title:           "Large pothole on Elm Street",
		Description:     "Deep pothole near the school crossing, growing every week",
		Location:        "Elm Street, ward 4",
		Category:        models.CategoryPothole,
		Priority:        models.PriorityMedium,
		CurrentStatus:   models.StatusInProgress,
		FiledAt:         env.clk.Now().Add(-24 * time.Hour),
		SLADaysAssigned: 3,
		CreatedAt:       env.clk.Now().Add(-24 * time.Hour),
	}
	c.SLADeadline = nullTime(c.FiledAt.AddDate(0, 0, 3))
	c.DepartmentID = nullStr("ROADS")
	if override != nil {
		override(&c)
	}
	return env.complaints.add(c)
}

// recordingSender implements messaging.Client and remembers what it sent
type recordingSender struct{}

func (recordingSender) Send(ctx context.Context, recipientID int64, text string) error { return nil }

// failingSender always errors, for the no-retry delivery tests
type failingSender struct{}

func (failingSender) Send(ctx context.Context, recipientID int64, text string) error {
	return context.DeadlineExceeded
}

// fakeOracle returns a canned decision or error
type fakeOracle struct {
	decision ai.Decision
	err      error
	calls    int
}

func (f *fakeOracle) Analyze(ctx context.Context, text string, imageBytes []byte) (ai.Decision, error) {
	f.calls++
	if f.err != nil {
		return ai.Decision{}, f.err
	}
	return f.decision, nil
}

// fakeObjectStore keeps blobs in memory; optionally fails every Put
type fakeObjectStore struct {
	objects map[string][]byte
	failPut bool
	nextKey int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if f.failPut {
		return "", models.NewDomainError(models.ErrExternalUnavailable, "storage down")
	}
	f.nextKey++
	key := fmt.Sprintf("obj-%d", f.nextKey)
	f.objects[key] = data
	return key, nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, models.NewDomainError(models.ErrNotFound, "object %s not found", key)
	}
	return data, nil
}

func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
