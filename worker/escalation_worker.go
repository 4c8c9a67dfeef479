package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"civicfix/service"
)

// EscalationWorker is a background worker that periodically runs the SLA
// escalation sweep. Sweeps never overlap: a mutex guarantees only one runs
// at a time even when a manual trigger races the ticker.
type EscalationWorker struct {
	escalationService *service.EscalationService
	interval          time.Duration
	sweepBudget       time.Duration
	stopChan          chan struct{}
	running           bool
	sweepMu           sync.Mutex
}

// NewEscalationWorker creates a new escalation worker
func NewEscalationWorker(
	escalationService *service.EscalationService,
	interval time.Duration,
	sweepBudget time.Duration,
) *EscalationWorker {
	return &EscalationWorker{
		escalationService: escalationService,
		interval:          interval,
		sweepBudget:       sweepBudget,
		stopChan:          make(chan struct{}),
		running:           false,
	}
}

// Start starts the escalation worker
// The worker runs in a separate goroutine and sweeps periodically
func (w *EscalationWorker) Start() {
	if w.running {
		log.Println("Escalation worker is already running")
		return
	}

	w.running = true
	log.Printf("Escalation worker started (interval: %v)", w.interval)

	go w.run()
}

// Stop stops the escalation worker
func (w *EscalationWorker) Stop() {
	if !w.running {
		return
	}

	log.Println("Stopping escalation worker...")
	close(w.stopChan)
	w.running = false
	log.Println("Escalation worker stopped")
}

// TriggerNow runs one sweep immediately, for the admin trigger endpoint.
// If a sweep is already in flight the call waits its turn.
func (w *EscalationWorker) TriggerNow() {
	w.sweep()
}

// run is the main worker loop
func (w *EscalationWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Sweep immediately on start
	w.sweep()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			return
		}
	}
}

// sweep runs one escalation pass under the overall sweep budget.
// Safe to call repeatedly: every underlying write is conditional.
func (w *EscalationWorker) sweep() {
	w.sweepMu.Lock()
	defer w.sweepMu.Unlock()

	startTime := time.Now()
	log.Println("Starting escalation sweep...")

	ctx, cancel := context.WithTimeout(context.Background(), w.sweepBudget)
	defer cancel()

	report, err := w.escalationService.Sweep(ctx)
	if err != nil {
		log.Printf("Escalation sweep ended early: %v (examined=%d escalated=%d)",
			err, report.Examined, report.Escalated)
		return
	}

	log.Printf("Escalation sweep completed in %v: %d examined, %d escalated, %d auto-closed, %d warned",
		time.Since(startTime), report.Examined, report.Escalated, report.AutoClosed, report.Warned)
}
