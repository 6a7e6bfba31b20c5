package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-gonic/gin"
)

func SendNotification(c *gin.Context) {
	var input models.NewNotification
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	notification, err := models.CreateNotification(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, notification)
}

func ListNotifications(c *gin.Context) {
	var notificationType *models.NotificationType
	if raw := c.Query("type"); raw != "" {
		parsed, err := models.ParseNotificationType(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		notificationType = &parsed
	}
	page, pageSize := pageQuery(c)

	notifications, pageInfo, err := models.ListNotifications(c.Request.Context(), notificationType, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	unreadCount, err := models.CountUnreadNotifications(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"pageInfo":      pageInfo,
		"unreadCount":   unreadCount,
	})
}

func MarkNotificationRead(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	notification, err := models.MarkNotificationRead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func MarkAllNotificationsRead(c *gin.Context) {
	count, err := models.MarkAllNotificationsRead(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": count})
}

func DeleteNotification(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	notification, err := models.DeleteNotification(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}
