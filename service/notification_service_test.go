package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"civicfix/clock"
	"civicfix/models"
)

func TestNotifySkipsZeroRecipient(t *testing.T) {
	store := &fakeNotificationStore{}
	svc := NewNotificationService(store, recordingSender{}, &clock.Fixed{T: testEpoch})

	svc.Notify(0, models.NotifyStatusChange, "ignored", "", 1)
	require.Empty(t, store.notifications)

	svc.Notify(7, models.NotifyStatusChange, "complaint updated", "now IN_PROGRESS", 1)
	require.Len(t, store.notifications, 1)
	require.Equal(t, int64(1), store.notifications[0].ComplaintRef.Int64)
}

func TestDispatchPendingAttemptsEachRecordOnce(t *testing.T) {
	store := &fakeNotificationStore{}
	clk := &clock.Fixed{T: testEpoch}

	writer := NewNotificationService(store, recordingSender{}, clk)
	writer.Notify(7, models.NotifyStatusChange, "first", "", 1)
	writer.Notify(8, models.NotifyStatusChange, "second", "", 2)

	svc := NewNotificationService(store, failingSender{}, clk)
	sent, failed, err := svc.DispatchPending(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 0, sent)
	require.Equal(t, 2, failed)

	// Failed deliveries are still marked attempted: no retry on later drains.
	sent, failed, err = svc.DispatchPending(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 0, sent)
	require.Equal(t, 0, failed)
}

func TestDispatchPendingHonorsBatchSize(t *testing.T) {
	store := &fakeNotificationStore{}
	clk := &clock.Fixed{T: testEpoch}
	svc := NewNotificationService(store, recordingSender{}, clk)

	for i := 0; i < 5; i++ {
		svc.Notify(int64(i+1), models.NotifyStatusChange, "update", "", int64(i+1))
	}

	sent, failed, err := svc.DispatchPending(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Equal(t, 0, failed)

	remaining, err := store.ListUnattempted(100)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
}
