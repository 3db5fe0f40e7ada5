package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/notifications"
	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// NotificationHandler serves the notification feed and the live stream.
type NotificationHandler struct {
	notifications *services.NotificationService
	hub           *notifications.Hub
}

// NewNotificationHandler constructs the notification handler.
func NewNotificationHandler(service *services.NotificationService, hub *notifications.Hub) *NotificationHandler {
	return &NotificationHandler{notifications: service, hub: hub}
}

// List returns a page of the caller's notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 0)
	unreadOnly := c.Query("unread") == "true"

	items, total, err := h.notifications.List(c.Request.Context(), currentUserID(c), isAdmin(c), unreadOnly, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Page:    page,
		PerPage: len(items),
		Total:   total,
	})
}

// UnreadCount returns the caller's unread notification count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context(), currentUserID(c), isAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks a single notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), currentUserID(c), isAdmin(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "notification marked read"})
}

// MarkAllRead marks every visible notification as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), currentUserID(c), isAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// Stream upgrades to a WebSocket that pushes notifications as they are
// created.
func (h *NotificationHandler) Stream(c *gin.Context) {
	h.hub.Serve(currentUserID(c), c.Writer, c.Request)
}
