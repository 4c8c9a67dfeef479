package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"civicfix/models"
	"civicfix/service"
	"civicfix/storage"
)

// SignoffHandler handles resolution proofs and citizen signoffs
type SignoffHandler struct {
	signoffs *service.SignoffService
	objects  storage.ObjectStore
}

// NewSignoffHandler creates a new signoff handler
func NewSignoffHandler(signoffs *service.SignoffService, objects storage.ObjectStore) *SignoffHandler {
	return &SignoffHandler{signoffs: signoffs, objects: objects}
}

// SubmitProof handles POST /complaints/{id}/resolution-proof
// Multipart form: image (required), remarks (required), latitude?, longitude?
func (h *SignoffHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation error", "Proof image is required")
		return
	}
	defer file.Close()
	imageBytes, err := io.ReadAll(io.LimitReader(file, multipartMemoryLimit))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to read proof image")
		return
	}

	imageKey, err := h.objects.Put(r.Context(), imageBytes, header.Header.Get("Content-Type"))
	if err != nil {
		// Unlike intake, proof is worthless without its photo.
		respondDomainError(w, err)
		return
	}

	var lat, lng *float64
	if v, perr := strconv.ParseFloat(r.FormValue("latitude"), 64); perr == nil {
		lat = &v
	}
	if v, perr := strconv.ParseFloat(r.FormValue("longitude"), 64); perr == nil {
		lng = &v
	}

	proof, err := h.signoffs.SubmitProof(id, actor, imageKey, r.FormValue("remarks"), lat, lng)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, proof)
}

// ListProofs handles GET /complaints/{id}/resolution-proofs
func (h *SignoffHandler) ListProofs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}
	proofs, err := h.signoffs.ListProofs(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, proofs)
}

// Signoff handles POST /complaints/{id}/signoff
// Body: isAccepted plus rating/feedback (accept) or disputeReason and
// optional disputeImageKey (dispute).
func (h *SignoffHandler) Signoff(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	var req models.SignoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	if req.IsAccepted {
		signoff, err := h.signoffs.Accept(id, actor, req.Rating, req.Feedback)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, signoff)
		return
	}

	signoff, err := h.signoffs.Dispute(id, actor, req.DisputeReason, req.DisputeImageKey)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, signoff)
}

// ApproveDispute handles POST /complaints/{id}/dispute/{signoffId}/approve
func (h *SignoffHandler) ApproveDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	signoffID, err := pathID(r, "signoffId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid signoff id")
		return
	}

	c, err := h.signoffs.ApproveDispute(signoffID, actor, r.URL.Query().Get("reason"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// RejectDispute handles POST /complaints/{id}/dispute/{signoffId}/reject?reason=...
func (h *SignoffHandler) RejectDispute(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	signoffID, err := pathID(r, "signoffId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid signoff id")
		return
	}

	signoff, err := h.signoffs.RejectDispute(signoffID, actor, r.URL.Query().Get("reason"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, signoff)
}
