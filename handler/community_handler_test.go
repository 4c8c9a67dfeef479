package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"civicfix/middleware"
	"civicfix/models"
)

func citizenRequest(method, target string, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	actor := models.ActorContext{ActorType: models.ActorUser, UserID: userID, Role: models.RoleCitizen}
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func TestUpvoteRejectsMismatchedCitizenQuery(t *testing.T) {
	h := NewCommunityHandler(nil)

	// citizenId naming someone other than the token's citizen is refused
	// before any state is touched.
	rec := httptest.NewRecorder()
	h.Upvote(rec, citizenRequest(http.MethodPost, "/community/complaints/3/upvote?citizenId=8", 7))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.RemoveUpvote(rec, citizenRequest(http.MethodDelete, "/community/complaints/3/upvote?citizenId=8", 7))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// A malformed citizenId never silently matches.
	rec = httptest.NewRecorder()
	h.Upvote(rec, citizenRequest(http.MethodPost, "/community/complaints/3/upvote?citizenId=abc", 7))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
