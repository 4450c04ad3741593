package handler

import (
	"context"
	"net/http"
	"strconv"

	"grievancedesk/models"

	"go.uber.org/zap"
)

// NotificationAPI is what the notification endpoints need from the service layer.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	HasUnread(ctx context.Context, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) error
}

// NotificationHandler serves the polling read path
type NotificationHandler struct {
	service NotificationAPI
	logger  *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc NotificationAPI, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: svc, logger: logger.Named("handler")}
}

// List handles GET /api/v1/notifications?unread_only=true
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	unreadOnly := false
	if v := r.URL.Query().Get("unread_only"); v != "" {
		unreadOnly, err = strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request", "unread_only must be true or false")
			return
		}
	}

	list, err := h.service.ListNotifications(r.Context(), actor.UserID, unreadOnly)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NotificationsResponse{
		Notifications: list,
		UnreadOnly:    unreadOnly,
	})
}

// Unread handles GET /api/v1/notifications/unread
func (h *NotificationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	unread, err := h.service.HasUnread(r.Context(), actor.UserID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	count := 0
	if unread {
		count = 1
	}
	respondWithJSON(w, http.StatusOK, models.UnreadResponse{UnreadCount: count})
}

// MarkRead handles POST /api/v1/notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	if err := h.service.MarkAllRead(r.Context(), actor.UserID); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked as read"})
}
