package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbitlabs/commune/backend/internal/util"
)

// GetNotifications gets the user's notifications with the unread count
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	events, err := h.notify.List(currentUser.ID, limit, offset)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	unread, err := h.notify.UnreadCount(currentUser.ID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": events,
		"unread":        unread,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(events),
		},
	})
}

// GetNotificationCounts gets just the unread count for badge display
// GET /api/v1/notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	unread, err := h.notify.UnreadCount(currentUser.ID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": unread})
}

// MarkNotificationRead marks one notification as read
// POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.notify.MarkRead(c.Param("id"), currentUser.ID); err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "notification_marked_read",
	})
}

// MarkAllNotificationsRead marks all notifications as read
// POST /api/v1/notifications/read
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	count, err := h.notify.MarkAllRead(currentUser.ID)
	if err != nil {
		util.RespondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"marked": count,
	})
}
