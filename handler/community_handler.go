package handler

import (
	"net/http"
	"strconv"

	"civicfix/models"
	"civicfix/service"
)

// CommunityHandler handles upvotes, nearby lookups, and duplicate checks
type CommunityHandler struct {
	community *service.CommunityService
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(community *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{community: community}
}

// checkCitizenQuery rejects a citizenId query parameter naming anyone other
// than the verified actor. The parameter is optional; the upvote is always
// attributed to the token's citizen.
func checkCitizenQuery(w http.ResponseWriter, r *http.Request, actor models.ActorContext) bool {
	raw := r.URL.Query().Get("citizenId")
	if raw == "" {
		return true
	}
	cid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cid != actor.UserID {
		respondWithError(w, http.StatusForbidden, "Forbidden", "citizenId does not match the authenticated citizen")
		return false
	}
	return true
}

// Upvote handles POST /community/complaints/{id}/upvote?citizenId=
func (h *CommunityHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	if !checkCitizenQuery(w, r, actor) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	var lat, lng *float64
	if v, present := queryFloat(r, "latitude"); present {
		lat = &v
	}
	if v, present := queryFloat(r, "longitude"); present {
		lng = &v
	}

	created, count, err := h.community.Upvote(id, actor, lat, lng)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if !created {
		// Re-upvote is a no-op, not an error.
		status = http.StatusOK
	}
	respondWithJSON(w, status, map[string]interface{}{
		"complaint_id": id,
		"upvoted":      created,
		"upvote_count": count,
	})
}

// RemoveUpvote handles DELETE /community/complaints/{id}/upvote?citizenId=
func (h *CommunityHandler) RemoveUpvote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	if !checkCitizenQuery(w, r, actor) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint id")
		return
	}

	if _, err := h.community.RemoveUpvote(id, actor); err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// Nearby handles GET /community/complaints/nearby?latitude=&longitude=&radiusMeters=
func (h *CommunityHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "latitude")
	lng, okLng := queryFloat(r, "longitude")
	if !okLat || !okLng {
		respondWithError(w, http.StatusBadRequest, "Validation error", "latitude and longitude are required")
		return
	}
	radius, _ := queryFloat(r, "radiusMeters")

	matches, err := h.community.Nearby(lat, lng, radius)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, matches)
}

// Trending handles GET /community/complaints/trending?limit=
func (h *CommunityHandler) Trending(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.community.Trending(queryInt(r, "limit", 20))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, complaints)
}

// CheckDuplicates handles POST /complaints/check-duplicates?description=&latitude=&longitude=
func (h *CommunityHandler) CheckDuplicates(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "latitude")
	lng, okLng := queryFloat(r, "longitude")
	if !okLat || !okLng {
		respondWithError(w, http.StatusBadRequest, "Validation error", "latitude and longitude are required")
		return
	}
	description := r.URL.Query().Get("description")
	if description == "" {
		respondWithError(w, http.StatusBadRequest, "Validation error", "description is required")
		return
	}

	matches, err := h.community.CheckDuplicates(lat, lng, description)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matches":        matches,
		"has_duplicates": len(matches) > 0,
	})
}
