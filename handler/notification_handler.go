package handler

import (
	"net/http"

	"civicfix/service"
)

// NotificationHandler exposes the in-app inbox
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Inbox handles GET /notifications?limit=
func (h *NotificationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	notifications, err := h.notifications.Inbox(actor.UserID, queryInt(r, "limit", 50))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, notifications)
}

// MarkRead handles PUT /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid notification id")
		return
	}
	if err := h.notifications.MarkRead(id, actor.UserID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}
