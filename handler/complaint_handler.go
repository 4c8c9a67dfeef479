package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"civicfix/models"
	"civicfix/service"
)

// multipartMemoryLimit bounds in-memory multipart parsing
const multipartMemoryLimit = 12 << 20

// ComplaintHandler handles HTTP requests for complaints
type ComplaintHandler struct {
	intake   *service.IntakeService
	service  *service.ComplaintService
	signoffs *service.SignoffService
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(
	intake *service.IntakeService,
	svc *service.ComplaintService,
	signoffs *service.SignoffService,
) *ComplaintHandler {
	return &ComplaintHandler{
		intake:   intake,
		service:  svc,
		signoffs: signoffs,
	}
}

// CreateComplaint handles POST /complaints/citizen/{citizenId}
func (h *ComplaintHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	if !h.checkCitizenPath(w, r, actor) {
		return
	}

	var req models.CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	result, err := h.intake.Submit(r.Context(), actor, req, nil, "")
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.respondIntake(w, result)
}

// CreateComplaintWithImage handles POST /complaints/citizen/{citizenId}/with-image
// Multipart form: title, description, location, latitude?, longitude?, image?
func (h *ComplaintHandler) CreateComplaintWithImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	if !h.checkCitizenPath(w, r, actor) {
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse multipart form")
		return
	}

	req := models.CreateComplaintRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		UpvoteIfDup: r.FormValue("upvote_if_duplicate") == "true",
	}
	if lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64); err == nil {
		req.Latitude = &lat
	}
	if lng, err := strconv.ParseFloat(r.FormValue("longitude"), 64); err == nil {
		req.Longitude = &lng
	}

	var imageBytes []byte
	imageMime := ""
	if file, header, ferr := r.FormFile("image"); ferr == nil {
		defer file.Close()
		data, rerr := io.ReadAll(io.LimitReader(file, multipartMemoryLimit))
		if rerr != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to read image")
			return
		}
		imageBytes = data
		imageMime = header.Header.Get("Content-Type")
	}

	result, err := h.intake.Submit(r.Context(), actor, req, imageBytes, imageMime)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.respondIntake(w, result)
}

func (h *ComplaintHandler) respondIntake(w http.ResponseWriter, result *models.IntakeResult) {
	if result.DuplicateOf != 0 {
		// Nothing was created; point the citizen at the existing complaint.
		respondWithJSON(w, http.StatusOK, result)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// GetComplaint handles GET /complaints/{id}
func (h *ComplaintHandler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}
	c, err := h.service.GetByID(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// GetComplaintDetails handles GET /complaints/{id}/details
// Returns the complaint with its proofs and signoff history.
func (h *ComplaintHandler) GetComplaintDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}
	c, err := h.service.GetByID(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	proofs, err := h.signoffs.ListProofs(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	signoffs, err := h.signoffs.ListByComplaint(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint":         c,
		"resolution_proofs": proofs,
		"signoffs":          signoffs,
	})
}

// ListByCitizen handles GET /complaints/citizen/{citizenId}
func (h *ComplaintHandler) ListByCitizen(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	citizenID, err := pathID(r, "citizenId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid citizen id")
		return
	}
	if actor.Role == models.RoleCitizen && actor.UserID != citizenID {
		respondWithError(w, http.StatusForbidden, "Forbidden", "Citizens may only list their own complaints")
		return
	}
	complaints, err := h.service.ListByCitizen(citizenID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, complaints)
}

// ListPendingRouting handles GET /complaints/pending-routing
// The admin queue of low-confidence complaints awaiting manual routing.
func (h *ComplaintHandler) ListPendingRouting(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.service.ListPendingRouting()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, complaints)
}

// ChangeState handles PUT /complaints/{id}/state
func (h *ComplaintHandler) ChangeState(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	var req models.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	if req.TargetState == "" {
		respondWithError(w, http.StatusBadRequest, "Validation error", "targetState is required")
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "state change requested"
	}
	c, err := h.service.Transition(id, req.TargetState, actor, reason)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// StartComplaint handles PUT /complaints/{id}/start
func (h *ComplaintHandler) StartComplaint(w http.ResponseWriter, r *http.Request) {
	h.fixedTransition(w, r, func(id int64, actor models.ActorContext) (*models.Complaint, error) {
		return h.service.Start(id, actor)
	})
}

// ResolveComplaint handles PUT /complaints/{id}/resolve
func (h *ComplaintHandler) ResolveComplaint(w http.ResponseWriter, r *http.Request) {
	h.fixedTransition(w, r, func(id int64, actor models.ActorContext) (*models.Complaint, error) {
		return h.signoffs.Resolve(id, actor, "")
	})
}

// CloseComplaint handles PUT /complaints/{id}/close
func (h *ComplaintHandler) CloseComplaint(w http.ResponseWriter, r *http.Request) {
	h.fixedTransition(w, r, func(id int64, actor models.ActorContext) (*models.Complaint, error) {
		return h.service.Transition(id, models.StatusClosed, actor, "closed by citizen")
	})
}

// CancelComplaint handles PUT /complaints/{id}/cancel
func (h *ComplaintHandler) CancelComplaint(w http.ResponseWriter, r *http.Request) {
	h.fixedTransition(w, r, func(id int64, actor models.ActorContext) (*models.Complaint, error) {
		return h.service.Transition(id, models.StatusCancelled, actor, "cancelled")
	})
}

func (h *ComplaintHandler) fixedTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(id int64, actor models.ActorContext) (*models.Complaint, error),
) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}
	c, err := op(id, actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// RateComplaint handles PUT /complaints/{id}/rate
func (h *ComplaintHandler) RateComplaint(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	var req models.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	c, err := h.service.RecordRating(id, req.Rating, req.Feedback, actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// AssignDepartment handles PUT /complaints/{id}/assign-department
func (h *ComplaintHandler) AssignDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	var req models.AssignDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	if req.DepartmentID == "" {
		respondWithError(w, http.StatusBadRequest, "Validation error", "department_id is required")
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "manually routed"
	}
	c, err := h.service.ManualRoute(id, req.DepartmentID, actor, reason)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// AssignStaff handles PUT /complaints/{id}/assign-staff/{staffId}
func (h *ComplaintHandler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}
	staffID, err := pathID(r, "staffId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid staff id")
		return
	}

	c, err := h.service.AssignStaff(id, staffID, actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// OverrideSLA handles PUT /complaints/{id}/sla
func (h *ComplaintHandler) OverrideSLA(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	var req struct {
		Days   int    `json:"days"`
		Reason string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "SLA manually overridden"
	}
	c, err := h.service.OverrideSLA(id, req.Days, actor, reason)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// AllowedTransitions handles GET /complaints/{id}/allowed-transitions
func (h *ComplaintHandler) AllowedTransitions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	targets, err := h.service.AllowedTransitions(id, actor)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if targets == nil {
		targets = []models.ComplaintStatus{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint_id":        id,
		"allowed_transitions": targets,
	})
}

func (h *ComplaintHandler) checkCitizenPath(w http.ResponseWriter, r *http.Request, actor models.ActorContext) bool {
	citizenID, err := pathID(r, "citizenId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid citizen id")
		return false
	}
	if actor.UserID != citizenID {
		respondWithError(w, http.StatusForbidden, "Forbidden", "Citizens may only file complaints as themselves")
		return false
	}
	return true
}
