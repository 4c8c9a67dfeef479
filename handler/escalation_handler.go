package handler

import (
	"net/http"

	"civicfix/service"
	"civicfix/worker"
)

// EscalationHandler exposes the scheduler's admin surface
type EscalationHandler struct {
	escalations *service.EscalationService
	worker      *worker.EscalationWorker
}

// NewEscalationHandler creates a new escalation handler
func NewEscalationHandler(escalations *service.EscalationService, w *worker.EscalationWorker) *EscalationHandler {
	return &EscalationHandler{escalations: escalations, worker: w}
}

// Overdue handles GET /escalations/overdue
func (h *EscalationHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.escalations.Overdue()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, complaints)
}

// Stats handles GET /escalations/stats
func (h *EscalationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.escalations.Stats()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// Trigger handles POST /escalations/trigger
// Runs a sweep synchronously and reports its outcome.
func (h *EscalationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	h.worker.TriggerNow()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "sweep completed",
	})
}
