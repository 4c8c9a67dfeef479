package worker

import (
	"context"
	"log"
	"time"

	"civicfix/service"
)

// notificationBatchSize caps how many undelivered notifications one cycle
// drains.
const notificationBatchSize = 100

// NotificationWorker is a background worker that drains the external
// delivery queue. Each notification gets exactly one delivery attempt.
type NotificationWorker struct {
	notificationService *service.NotificationService
	interval            time.Duration
	stopChan            chan struct{}
	running             bool
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	notificationService *service.NotificationService,
	interval time.Duration,
) *NotificationWorker {
	return &NotificationWorker{
		notificationService: notificationService,
		interval:            interval,
		stopChan:            make(chan struct{}),
		running:             false,
	}
}

// Start starts the notification worker
// The worker runs in a separate goroutine and drains pending deliveries periodically
func (w *NotificationWorker) Start() {
	if w.running {
		log.Println("Notification worker is already running")
		return
	}

	w.running = true
	log.Printf("Notification worker started (interval: %v)", w.interval)

	go w.run()
}

// Stop stops the notification worker
func (w *NotificationWorker) Stop() {
	if !w.running {
		return
	}

	log.Println("Stopping notification worker...")
	close(w.stopChan)
	w.running = false
	log.Println("Notification worker stopped")
}

// run is the main worker loop
func (w *NotificationWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.drain()
		case <-w.stopChan:
			return
		}
	}
}

// drain makes one delivery attempt per pending notification
func (w *NotificationWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	sent, failed, err := w.notificationService.DispatchPending(ctx, notificationBatchSize)
	if err != nil {
		log.Printf("Notification drain error: %v", err)
		return
	}
	if sent > 0 || failed > 0 {
		log.Printf("Notification drain: %d sent, %d failed (no retry)", sent, failed)
	}
}
