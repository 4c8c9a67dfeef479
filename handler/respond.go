package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"civicfix/middleware"
	"civicfix/models"
)

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// respondWithError writes a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	respondWithJSON(w, statusCode, map[string]interface{}{
		"error":   errorType,
		"message": message,
		"code":    statusCode,
	})
}

// respondDomainError maps a service error to the HTTP status contract:
// 400 invalid transition / validation, 403 authorization failures including
// unmet preconditions, 404 not found, 409 conflicts, 503 downstream, 500
// everything else.
func respondDomainError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	switch kind {
	case models.ErrInvalidTransition, models.ErrValidation:
		respondWithError(w, http.StatusBadRequest, string(kind), err.Error())
	case models.ErrUnauthorized, models.ErrOwnershipRequired,
		models.ErrDepartmentMismatch, models.ErrPreconditionFailed:
		respondWithError(w, http.StatusForbidden, string(kind), err.Error())
	case models.ErrNotFound:
		respondWithError(w, http.StatusNotFound, string(kind), err.Error())
	case models.ErrConflict:
		respondWithError(w, http.StatusConflict, string(kind), err.Error())
	case models.ErrExternalUnavailable:
		respondWithError(w, http.StatusServiceUnavailable, string(kind), err.Error())
	default:
		log.Printf("Internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal error", "An unexpected error occurred")
	}
}

// pathID parses a numeric path variable
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, defaultValue int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultValue
}

// queryFloat parses a float query parameter; ok is false when missing or bad
func queryFloat(r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// actorOrFail pulls the verified actor off the request, writing 401 when the
// middleware did not run.
func actorOrFail(w http.ResponseWriter, r *http.Request) (models.ActorContext, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "No verified actor on request")
		return models.ActorContext{}, false
	}
	return actor, ok
}
