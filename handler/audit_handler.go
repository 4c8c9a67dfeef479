package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"civicfix/models"
	"civicfix/service"
)

// AuditHandler exposes read-only audit queries
type AuditHandler struct {
	audit *service.AuditSink
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *service.AuditSink) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ByComplaint handles GET /audit/complaint/{id}
// Events are returned chronological ascending: the complaint's full story.
func (h *AuditHandler) ByComplaint(w http.ResponseWriter, r *http.Request) {
	events, err := h.audit.ByComplaint(mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}

// Recent handles GET /audit/recent?limit=
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	events, err := h.audit.Recent(queryInt(r, "limit", 50))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}

// ByAction handles GET /audit/action/{action}
func (h *AuditHandler) ByAction(w http.ResponseWriter, r *http.Request) {
	action := models.AuditAction(mux.Vars(r)["action"])
	events, err := h.audit.ByAction(action, queryInt(r, "limit", 50))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}

// ByActor handles GET /audit/actor/{actorId}
func (h *AuditHandler) ByActor(w http.ResponseWriter, r *http.Request) {
	actorID, err := pathID(r, "actorId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid actor id")
		return
	}
	events, err := h.audit.ByActor(actorID, queryInt(r, "limit", 50))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}
