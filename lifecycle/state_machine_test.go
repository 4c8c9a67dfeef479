package lifecycle

import (
	"testing"

	"civicfix/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.ComplaintStatus
		legal    bool
	}{
		{models.StatusFiled, models.StatusInProgress, true},
		{models.StatusInProgress, models.StatusResolved, true},
		{models.StatusResolved, models.StatusClosed, true},
		{models.StatusResolved, models.StatusInProgress, true},
		{models.StatusFiled, models.StatusCancelled, true},
		{models.StatusInProgress, models.StatusCancelled, true},
		{models.StatusResolved, models.StatusCancelled, true},

		{models.StatusFiled, models.StatusResolved, false},
		{models.StatusFiled, models.StatusClosed, false},
		{models.StatusInProgress, models.StatusFiled, false},
		{models.StatusInProgress, models.StatusClosed, false},
		{models.StatusResolved, models.StatusFiled, false},
		{models.StatusClosed, models.StatusInProgress, false},
		{models.StatusClosed, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusFiled, false},
		{models.StatusCancelled, models.StatusInProgress, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.legal, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoTargets(t *testing.T) {
	assert.Empty(t, TargetsFrom(models.StatusClosed))
	assert.Empty(t, TargetsFrom(models.StatusCancelled))
}

func TestTargetsFromOrder(t *testing.T) {
	// Rule order is significant: first match wins, targets come back in
	// declaration order.
	assert.Equal(t,
		[]models.ComplaintStatus{models.StatusInProgress, models.StatusCancelled},
		TargetsFrom(models.StatusFiled))
	assert.Equal(t,
		[]models.ComplaintStatus{models.StatusClosed, models.StatusInProgress, models.StatusCancelled},
		TargetsFrom(models.StatusResolved))
}

func TestComplaintNeverReentersFiled(t *testing.T) {
	for _, from := range []models.ComplaintStatus{
		models.StatusInProgress, models.StatusResolved,
		models.StatusClosed, models.StatusCancelled,
	} {
		assert.False(t, CanTransition(from, models.StatusFiled), "from %s", from)
	}
}
