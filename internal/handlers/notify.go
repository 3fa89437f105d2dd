package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trenchverse/miniapp-bridge/internal/services"
)

// NotifyHandler accepts push-notification requests and relays them to the
// delivery service. Delivery itself is best-effort.
type NotifyHandler struct {
	notifier *services.NotifyClient
}

func NewNotifyHandler(notifier *services.NotifyClient) *NotifyHandler {
	return &NotifyHandler{notifier: notifier}
}

type notifyRequest struct {
	FID   string `json:"fid" binding:"required"`
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

func (h *NotifyHandler) SendNotification(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	h.notifier.Send(c.Request.Context(), services.Notification{
		FID:   req.FID,
		Title: req.Title,
		Body:  req.Body,
	})

	c.JSON(http.StatusOK, gin.H{"queued": true})
}
