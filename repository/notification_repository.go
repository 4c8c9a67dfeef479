package repository

import (
	"database/sql"
	"fmt"

	"civicfix/models"
)

// NotificationRepository persists the in-app inbox
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification and fills in its generated id
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (
			recipient_id, type, title, message, complaint_ref,
			read_flag, attempted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(
		query,
		n.RecipientID, n.Type, n.Title, n.Message, n.ComplaintRef,
		n.ReadFlag, n.Attempted, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification ID: %w", err)
	}
	n.NotificationID = id
	return nil
}

const notificationColumns = `
	notification_id, recipient_id, type, title, message, complaint_ref,
	read_flag, attempted, created_at`

// ListByRecipient lists a user's inbox, newest first
func (r *NotificationRepository) ListByRecipient(recipientID int64, limit int) ([]models.Notification, error) {
	query := `SELECT` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, notification_id DESC
		LIMIT ?`
	return r.list(query, recipientID, limit)
}

// ListUnattempted returns notifications the messaging worker has not yet
// tried to deliver externally.
func (r *NotificationRepository) ListUnattempted(limit int) ([]models.Notification, error) {
	query := `SELECT` + notificationColumns + `
		FROM notifications
		WHERE attempted = FALSE
		ORDER BY created_at ASC, notification_id ASC
		LIMIT ?`
	return r.list(query, limit)
}

// MarkAttempted records that one external delivery attempt was made,
// regardless of outcome. Delivery is best-effort with no core retries.
func (r *NotificationRepository) MarkAttempted(notificationID int64) error {
	if _, err := r.db.Exec(
		`UPDATE notifications SET attempted = TRUE WHERE notification_id = ?`,
		notificationID,
	); err != nil {
		return fmt.Errorf("failed to mark notification attempted: %w", err)
	}
	return nil
}

// HasForComplaint reports whether any notification of the given type exists
// for a complaint. The escalation sweep uses it to avoid re-warning about the
// same stalled complaint on every run.
func (r *NotificationRepository) HasForComplaint(notificationType models.NotificationType, complaintID int64) (bool, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE type = ? AND complaint_ref = ?`,
		notificationType, complaintID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check notifications: %w", err)
	}
	return n > 0, nil
}

// MarkRead flags an inbox entry as read by its recipient
func (r *NotificationRepository) MarkRead(notificationID, recipientID int64) error {
	if _, err := r.db.Exec(
		`UPDATE notifications SET read_flag = TRUE WHERE notification_id = ? AND recipient_id = ?`,
		notificationID, recipientID,
	); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) list(query string, args ...interface{}) ([]models.Notification, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.NotificationID, &n.RecipientID, &n.Type, &n.Title, &n.Message,
			&n.ComplaintRef, &n.ReadFlag, &n.Attempted, &n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}
