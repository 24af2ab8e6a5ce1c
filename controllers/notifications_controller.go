package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Linkup/cache"
	"Linkup/models"
	httpctx "Linkup/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotifications godoc
// @Summary      List unread notifications
// @Description  Unread notifications for the authenticated user, newest first
// @Tags         notifications
// @Produce      json
// @Param        limit  query  int  false  "Max results (default 50)"
// @Success      200  {array}   NotificationDTO
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
// @Security     BearerAuth
func (server *Server) GetNotifications(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "50"))
	notifications, err := models.ListUnread(server.DB, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching notifications"})
		return
	}

	response := make([]NotificationDTO, len(notifications))
	for i := range notifications {
		response[i] = notificationToDTO(&notifications[i])
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": response})
}

// GetUnreadCount godoc
// @Summary      Count unread notifications
// @Description  Cached unread count, optionally filtered by kind
// @Tags         notifications
// @Produce      json
// @Param        type  query  string  false  "Notification kind filter"
// @Success      200  {object}  SimpleMessageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/unread-count [get]
// @Security     BearerAuth
func (server *Server) GetUnreadCount(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	kind := c.Query("type")

	// The cache only holds the unfiltered total.
	if kind == "" {
		if count, hit := cache.GetUnreadCount(c.Request.Context(), userID); hit {
			c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": gin.H{"count": count}})
			return
		}
	}

	count, err := models.UnreadCount(server.DB, userID, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting notifications"})
		return
	}
	if kind == "" {
		cache.SetUnreadCount(c.Request.Context(), userID, count)
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": gin.H{"count": count}})
}

// MarkNotificationRead godoc
// @Summary      Mark a notification as read
// @Description  Idempotent; re-marking an already-read notification succeeds
// @Tags         notifications
// @Produce      json
// @Param        id   path      int  true  "Notification ID"
// @Success      200  {object}  NotificationDTO
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/read/{id} [patch]
// @Security     BearerAuth
func (server *Server) MarkNotificationRead(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	nid, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	var owned models.Notification
	err = server.DB.Where("id = ? AND user_id = ?", uint(nid), userID).Take(&owned).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching notification"})
		return
	}

	notification, err := models.MarkNotificationRead(server.DB, owned.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating notification"})
		return
	}

	cache.InvalidateUnreadCount(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": notificationToDTO(notification)})
}
