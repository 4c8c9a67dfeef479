package service

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"civicfix/models"
)

// In-memory store fakes backing the service tests. Behavior mirrors the SQL
// repositories, including the conditional-write semantics the engine relies
// on.

type fakeComplaintStore struct {
	complaints map[int64]*models.Complaint
	nextID     int64

	// transitionErr, when set, fails every TransitionStatus call; simulates
	// a transient write failure.
	transitionErr error
}

func newFakeComplaintStore() *fakeComplaintStore {
	return &fakeComplaintStore{complaints: make(map[int64]*models.Complaint), nextID: 1}
}

func (f *fakeComplaintStore) add(c models.Complaint) *models.Complaint {
	if c.ComplaintID == 0 {
		c.ComplaintID = f.nextID
		f.nextID++
	} else if c.ComplaintID >= f.nextID {
		f.nextID = c.ComplaintID + 1
	}
	stored := c
	f.complaints[stored.ComplaintID] = &stored
	return &stored
}

func (f *fakeComplaintStore) GenerateComplaintNumber(now time.Time) string {
	return fmt.Sprintf("GRV-%s-%08d", now.Format("20060102"), f.nextID)
}

func (f *fakeComplaintStore) Create(c *models.Complaint) error {
	c.ComplaintID = f.nextID
	f.nextID++
	stored := *c
	f.complaints[c.ComplaintID] = &stored
	return nil
}

func (f *fakeComplaintStore) GetByID(complaintID int64) (*models.Complaint, error) {
	c, ok := f.complaints[complaintID]
	if !ok {
		return nil, models.NewDomainError(models.ErrNotFound, "complaint %d not found", complaintID)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeComplaintStore) ListByCitizen(citizenID int64) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.CitizenID == citizenID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComplaintStore) ListPendingRouting() ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.CurrentStatus == models.StatusFiled {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComplaintStore) ListActiveWithCoords() ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if !c.CurrentStatus.IsTerminal() && c.Latitude.Valid && c.Longitude.Valid {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComplaintID < out[j].ComplaintID })
	return out, nil
}

func (f *fakeComplaintStore) ListTrending(limit int) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if !c.CurrentStatus.IsTerminal() {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpvoteCount > out[j].UpvoteCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeComplaintStore) ListOverdueInProgress(now time.Time) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.CurrentStatus == models.StatusInProgress && c.Overdue(now) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComplaintID < out[j].ComplaintID })
	return out, nil
}

func (f *fakeComplaintStore) ListResolvedBefore(cutoff time.Time) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.CurrentStatus == models.StatusResolved && c.ResolvedAt.Valid && c.ResolvedAt.Time.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComplaintStore) ListFiledBefore(cutoff time.Time) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.CurrentStatus == models.StatusFiled && c.FiledAt.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComplaintStore) TransitionStatus(complaintID int64, from, to models.ComplaintStatus, at time.Time) (bool, error) {
	if f.transitionErr != nil {
		return false, f.transitionErr
	}
	c, ok := f.complaints[complaintID]
	if !ok || c.CurrentStatus != from {
		return false, nil
	}
	c.CurrentStatus = to
	if to == models.StatusResolved && !c.ResolvedAt.Valid {
		c.ResolvedAt = sql.NullTime{Time: at, Valid: true}
	}
	if (to == models.StatusClosed || to == models.StatusCancelled) && !c.ClosedAt.Valid {
		c.ClosedAt = sql.NullTime{Time: at, Valid: true}
	}
	return true, nil
}

func (f *fakeComplaintStore) EscalateLevel(complaintID int64, fromLevel, toLevel int, priority models.Priority, at time.Time) (bool, error) {
	c, ok := f.complaints[complaintID]
	if !ok || c.EscalationLevel != fromLevel || c.CurrentStatus != models.StatusInProgress {
		return false, nil
	}
	c.EscalationLevel = toLevel
	c.Priority = priority
	return true, nil
}

func (f *fakeComplaintStore) BumpEscalation(complaintID int64, fromLevel int, priority models.Priority, at time.Time) (bool, error) {
	c, ok := f.complaints[complaintID]
	if !ok || c.EscalationLevel != fromLevel || c.EscalationLevel >= models.MaxEscalationLevel {
		return false, nil
	}
	c.EscalationLevel++
	c.Priority = priority
	return true, nil
}

func (f *fakeComplaintStore) UpdateDepartment(complaintID int64, departmentID string, at time.Time) error {
	c, ok := f.complaints[complaintID]
	if !ok {
		return models.NewDomainError(models.ErrNotFound, "complaint %d not found", complaintID)
	}
	c.DepartmentID = sql.NullString{String: departmentID, Valid: true}
	c.StaffID = sql.NullInt64{}
	return nil
}

func (f *fakeComplaintStore) AssignStaff(complaintID, staffID int64, at time.Time) error {
	c, ok := f.complaints[complaintID]
	if !ok {
		return models.NewDomainError(models.ErrNotFound, "complaint %d not found", complaintID)
	}
	c.StaffID = sql.NullInt64{Int64: staffID, Valid: true}
	return nil
}

func (f *fakeComplaintStore) SetRating(complaintID int64, rating int, feedback string, at time.Time) (bool, error) {
	c, ok := f.complaints[complaintID]
	if !ok || c.Rating.Valid {
		return false, nil
	}
	if c.CurrentStatus != models.StatusResolved && c.CurrentStatus != models.StatusClosed {
		return false, nil
	}
	c.Rating = sql.NullInt64{Int64: int64(rating), Valid: true}
	c.Feedback = sql.NullString{String: feedback, Valid: feedback != ""}
	return true, nil
}

func (f *fakeComplaintStore) OverrideSLA(complaintID int64, days int, deadline, at time.Time) error {
	c, ok := f.complaints[complaintID]
	if !ok {
		return models.NewDomainError(models.ErrNotFound, "complaint %d not found", complaintID)
	}
	c.SLADaysAssigned = days
	c.SLADeadline = sql.NullTime{Time: deadline, Valid: true}
	return nil
}

func (f *fakeComplaintStore) SetPriority(complaintID int64, priority models.Priority, at time.Time) error {
	c, ok := f.complaints[complaintID]
	if !ok {
		return models.NewDomainError(models.ErrNotFound, "complaint %d not found", complaintID)
	}
	c.Priority = priority
	return nil
}

func (f *fakeComplaintStore) CountByStatusAndLevel() (*models.EscalationStats, error) {
	stats := &models.EscalationStats{}
	for _, c := range f.complaints {
		if c.CurrentStatus.IsTerminal() {
			continue
		}
		switch c.EscalationLevel {
		case 1:
			stats.Level1++
		case 2:
			stats.Level2++
		}
		if c.CurrentStatus == models.StatusResolved {
			stats.AwaitingSignoff++
		}
		if c.CurrentStatus == models.StatusFiled {
			stats.StalledFiled++
		}
	}
	return stats, nil
}

type fakeAuditStore struct {
	events []models.AuditEvent
}

func (f *fakeAuditStore) Insert(event *models.AuditEvent) error {
	event.AuditID = int64(len(f.events) + 1)
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAuditStore) ByEntity(entityType models.AuditEntityType, entityID string) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	for _, e := range f.events {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) ByComplaint(complaintID string) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	for _, e := range f.events {
		if e.EntityID == complaintID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) ByAction(action models.AuditAction, limit int) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	for _, e := range f.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) ByActor(actorID int64, limit int) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	for _, e := range f.events {
		if e.ActorID.Valid && e.ActorID.Int64 == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) Recent(limit int) ([]models.AuditEvent, error) {
	return f.events, nil
}

func (f *fakeAuditStore) ByTimeRange(from, to time.Time) ([]models.AuditEvent, error) {
	return f.events, nil
}

func (f *fakeAuditStore) actions() []models.AuditAction {
	var out []models.AuditAction
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

type fakeProofStore struct {
	proofs []models.ResolutionProof
}

func (f *fakeProofStore) Create(p *models.ResolutionProof) error {
	p.ProofID = int64(len(f.proofs) + 1)
	f.proofs = append(f.proofs, *p)
	return nil
}

func (f *fakeProofStore) ListByComplaint(complaintID int64) ([]models.ResolutionProof, error) {
	var out []models.ResolutionProof
	for _, p := range f.proofs {
		if p.ComplaintID == complaintID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProofStore) CountByComplaint(complaintID int64) (int, error) {
	n := 0
	for _, p := range f.proofs {
		if p.ComplaintID == complaintID {
			n++
		}
	}
	return n, nil
}

type fakeSignoffStore struct {
	signoffs map[int64]*models.CitizenSignoff
	nextID   int64
}

func newFakeSignoffStore() *fakeSignoffStore {
	return &fakeSignoffStore{signoffs: make(map[int64]*models.CitizenSignoff), nextID: 1}
}

func (f *fakeSignoffStore) Create(s *models.CitizenSignoff) error {
	s.SignoffID = f.nextID
	f.nextID++
	stored := *s
	f.signoffs[s.SignoffID] = &stored
	return nil
}

func (f *fakeSignoffStore) GetByID(signoffID int64) (*models.CitizenSignoff, error) {
	s, ok := f.signoffs[signoffID]
	if !ok {
		return nil, models.NewDomainError(models.ErrNotFound, "signoff %d not found", signoffID)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSignoffStore) GetActiveByComplaint(complaintID int64) (*models.CitizenSignoff, error) {
	for _, s := range f.signoffs {
		if s.ComplaintID == complaintID && s.Active {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSignoffStore) ListByComplaint(complaintID int64) ([]models.CitizenSignoff, error) {
	var out []models.CitizenSignoff
	for _, s := range f.signoffs {
		if s.ComplaintID == complaintID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSignoffStore) AdjudicateDispute(signoffID int64, outcome models.DisputeStatus) (bool, error) {
	s, ok := f.signoffs[signoffID]
	if !ok || s.Kind != models.SignoffDispute {
		return false, nil
	}
	if !s.DisputeStatus.Valid || s.DisputeStatus.String != string(models.DisputePending) {
		return false, nil
	}
	s.DisputeStatus = sql.NullString{String: string(outcome), Valid: true}
	s.Active = false
	return true, nil
}

type fakeUpvoteStore struct {
	votes map[string]models.Upvote
}

func newFakeUpvoteStore() *fakeUpvoteStore {
	return &fakeUpvoteStore{votes: make(map[string]models.Upvote)}
}

func upvoteKey(complaintID, citizenID int64) string {
	return fmt.Sprintf("%d/%d", complaintID, citizenID)
}

func (f *fakeUpvoteStore) Create(u *models.Upvote) (bool, error) {
	key := upvoteKey(u.ComplaintID, u.CitizenID)
	if _, exists := f.votes[key]; exists {
		return false, nil
	}
	u.UpvoteID = int64(len(f.votes) + 1)
	f.votes[key] = *u
	return true, nil
}

func (f *fakeUpvoteStore) Delete(complaintID, citizenID int64) (bool, error) {
	key := upvoteKey(complaintID, citizenID)
	if _, exists := f.votes[key]; !exists {
		return false, nil
	}
	delete(f.votes, key)
	return true, nil
}

func (f *fakeUpvoteStore) Count(complaintID int64) (int, error) {
	n := 0
	for _, v := range f.votes {
		if v.ComplaintID == complaintID {
			n++
		}
	}
	return n, nil
}

func (f *fakeUpvoteStore) Exists(complaintID, citizenID int64) (bool, error) {
	_, exists := f.votes[upvoteKey(complaintID, citizenID)]
	return exists, nil
}

type fakeNotificationStore struct {
	notifications []models.Notification
}

func (f *fakeNotificationStore) Create(n *models.Notification) error {
	n.NotificationID = int64(len(f.notifications) + 1)
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationStore) ListByRecipient(recipientID int64, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) ListUnattempted(limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if !n.Attempted {
			out = append(out, n)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkAttempted(notificationID int64) error {
	for i := range f.notifications {
		if f.notifications[i].NotificationID == notificationID {
			f.notifications[i].Attempted = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) MarkRead(notificationID, recipientID int64) error {
	for i := range f.notifications {
		if f.notifications[i].NotificationID == notificationID && f.notifications[i].RecipientID == recipientID {
			f.notifications[i].ReadFlag = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) HasForComplaint(notificationType models.NotificationType, complaintID int64) (bool, error) {
	for _, n := range f.notifications {
		if n.Type == notificationType && n.ComplaintRef.Valid && n.ComplaintRef.Int64 == complaintID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationStore) forRecipient(recipientID int64) []models.Notification {
	out, _ := f.ListByRecipient(recipientID, 0)
	return out
}

type fakeDepartmentStore struct {
	departments  map[string]models.Department
	staff        map[string][]int64
	commissioner int64
	admins       []int64
	slaOverrides map[models.Category]int
}

func newFakeDepartmentStore() *fakeDepartmentStore {
	f := &fakeDepartmentStore{
		departments:  make(map[string]models.Department),
		staff:        make(map[string][]int64),
		commissioner: 900,
		admins:       []int64{800},
		slaOverrides: make(map[models.Category]int),
	}
	heads := map[string]int64{
		"ROADS": 101, "LIGHTING": 102, "WATER": 103, "SANITATION": 104,
		"TRAFFIC": 105, "PARKS": 106, "ELECTRICAL": 107, "GENERAL": 108,
	}
	for code, head := range heads {
		f.departments[code] = models.Department{Code: code, Name: code, HeadUserID: head}
	}
	return f
}

func (f *fakeDepartmentStore) GetByCode(code string) (*models.Department, error) {
	d, ok := f.departments[code]
	if !ok {
		return nil, models.NewDomainError(models.ErrNotFound, "department %q not found", code)
	}
	return &d, nil
}

func (f *fakeDepartmentStore) DepartmentForCategory(category models.Category) (string, error) {
	return models.DefaultDepartmentByCategory[category], nil
}

func (f *fakeDepartmentStore) SLADaysForCategory(category models.Category) (int, error) {
	return f.slaOverrides[category], nil
}

func (f *fakeDepartmentStore) StaffBelongsToDepartment(staffID int64, departmentCode string) (bool, error) {
	for _, id := range f.staff[departmentCode] {
		if id == staffID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDepartmentStore) CommissionerID() (int64, error) {
	return f.commissioner, nil
}

func (f *fakeDepartmentStore) AdminIDs() ([]int64, error) {
	return f.admins, nil
}
