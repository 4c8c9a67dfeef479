package repository

import (
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"civicfix/models"
)

func newComplaintRepo(t *testing.T) (*ComplaintRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewComplaintRepository(db), mock
}

func TestGenerateComplaintNumberFormat(t *testing.T) {
	repo := &ComplaintRepository{}
	now := time.Date(2025, time.March, 10, 23, 45, 0, 0, time.UTC)

	number := repo.GenerateComplaintNumber(now)
	require.True(t, strings.HasPrefix(number, "GRV-20250310-"))

	parts := strings.Split(number, "-")
	require.Len(t, parts, 3)
	require.Len(t, parts[2], 8)

	// Suffixes are random, so two calls never collide on the same day.
	require.NotEqual(t, number, repo.GenerateComplaintNumber(now))
}

func TestTransitionStatusReportsLostRace(t *testing.T) {
	repo, mock := newComplaintRepo(t)
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	// Row already moved on: zero rows affected means no transition, no error.
	mock.ExpectExec("UPDATE complaints").
		WithArgs(models.StatusResolved, models.StatusResolved, at, models.StatusResolved, at, at,
			int64(42), models.StatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(42, models.StatusInProgress, models.StatusResolved, at)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusAppliesWhenStatusMatches(t *testing.T) {
	repo, mock := newComplaintRepo(t)
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE complaints").
		WithArgs(models.StatusResolved, models.StatusResolved, at, models.StatusResolved, at, at,
			int64(42), models.StatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionStatus(42, models.StatusInProgress, models.StatusResolved, at)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalateLevelGuardsLevelAndStatus(t *testing.T) {
	repo, mock := newComplaintRepo(t)
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE complaints").
		WithArgs(1, models.PriorityHigh, at, int64(7), 0, models.StatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.EscalateLevel(7, 0, 1, models.PriorityHigh, at)
	require.NoError(t, err)
	require.True(t, ok)

	// A concurrent sweep already escalated: the guard misses.
	mock.ExpectExec("UPDATE complaints").
		WithArgs(1, models.PriorityHigh, at, int64(7), 0, models.StatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.EscalateLevel(7, 0, 1, models.PriorityHigh, at)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBumpEscalationStopsAtCeiling(t *testing.T) {
	repo, mock := newComplaintRepo(t)
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE complaints").
		WithArgs(models.PriorityCritical, at, int64(7), 1, models.MaxEscalationLevel).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.BumpEscalation(7, 1, models.PriorityCritical, at)
	require.NoError(t, err)
	require.True(t, ok)

	// At level 2 the escalation_level < ceiling guard misses: no write.
	mock.ExpectExec("UPDATE complaints").
		WithArgs(models.PriorityCritical, at, int64(7), 2, models.MaxEscalationLevel).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.BumpEscalation(7, 2, models.PriorityCritical, at)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRatingOnlyOnce(t *testing.T) {
	repo, mock := newComplaintRepo(t)
	at := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE complaints").
		WithArgs(4, "quick fix", at, int64(9), models.StatusResolved, models.StatusClosed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.SetRating(9, 4, "quick fix", at)
	require.NoError(t, err)
	require.True(t, ok)

	// rating IS NULL no longer holds on the second attempt.
	mock.ExpectExec("UPDATE complaints").
		WithArgs(5, "", at, int64(9), models.StatusResolved, models.StatusClosed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.SetRating(9, 5, "", at)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDTranslatesMissingRow(t *testing.T) {
	repo, mock := newComplaintRepo(t)

	mock.ExpectQuery("SELECT").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"complaint_id"}))

	_, err := repo.GetByID(404)
	require.Equal(t, models.ErrNotFound, models.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
