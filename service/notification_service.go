package service

import (
	"context"
	"database/sql"
	"log"

	"civicfix/clock"
	"civicfix/messaging"
	"civicfix/models"
)

// NotificationService fans domain events out to the in-app inbox and,
// best-effort, to the external messaging channel. The in-app write happens
// synchronously with the emitting operation; external delivery is drained
// asynchronously by the notification worker with a single attempt per
// record; retry is an external concern.
type NotificationService struct {
	repo   notificationStore
	sender messaging.Client
	clk    clock.Clock
}

// NewNotificationService creates the dispatcher
func NewNotificationService(repo notificationStore, sender messaging.Client, clk clock.Clock) *NotificationService {
	return &NotificationService{repo: repo, sender: sender, clk: clk}
}

// Notify writes an inbox entry. Failures are logged, never propagated: a
// missed notification must not roll back the change that caused it.
func (s *NotificationService) Notify(
	recipientID int64,
	notificationType models.NotificationType,
	title, message string,
	complaintID int64,
) {
	if recipientID == 0 {
		return
	}
	n := &models.Notification{
		RecipientID: recipientID,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		CreatedAt:   s.clk.Now(),
	}
	if complaintID != 0 {
		n.ComplaintRef = sql.NullInt64{Int64: complaintID, Valid: true}
	}
	if err := s.repo.Create(n); err != nil {
		log.Printf("[NOTIFY] failed to write notification for user %d: %v", recipientID, err)
	}
}

// HasForComplaint reports whether a notification of this type already exists
// for the complaint.
func (s *NotificationService) HasForComplaint(notificationType models.NotificationType, complaintID int64) (bool, error) {
	return s.repo.HasForComplaint(notificationType, complaintID)
}

// Inbox lists a user's notifications, newest first
func (s *NotificationService) Inbox(recipientID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByRecipient(recipientID, limit)
}

// MarkRead flags one inbox entry as read
func (s *NotificationService) MarkRead(notificationID, recipientID int64) error {
	return s.repo.MarkRead(notificationID, recipientID)
}

// DispatchPending makes one delivery attempt for each undelivered
// notification. Every record is marked attempted regardless of outcome.
func (s *NotificationService) DispatchPending(ctx context.Context, batchSize int) (sent, failed int, err error) {
	pending, err := s.repo.ListUnattempted(batchSize)
	if err != nil {
		return 0, 0, err
	}
	for _, n := range pending {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}
		text := n.Title
		if n.Message != "" {
			text += ": " + n.Message
		}
		if sendErr := s.sender.Send(ctx, n.RecipientID, text); sendErr != nil {
			failed++
			log.Printf("[NOTIFY] delivery to user %d failed (no retry): %v", n.RecipientID, sendErr)
		} else {
			sent++
		}
		if markErr := s.repo.MarkAttempted(n.NotificationID); markErr != nil {
			log.Printf("[NOTIFY] failed to mark notification %d attempted: %v", n.NotificationID, markErr)
		}
	}
	return sent, failed, nil
}
