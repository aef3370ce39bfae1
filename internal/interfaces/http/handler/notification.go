package handler

import (
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// NotificationCenter is the notification bus as seen by the HTTP layer
type NotificationCenter interface {
	List() []notification.Notification
	Dismiss(id string) bool
	Clear()
	Subscribe(fn notification.Listener) func()
}

// NotificationHandler exposes the notification bus
type NotificationHandler struct {
	BaseHandler
	center NotificationCenter
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(center NotificationCenter) *NotificationHandler {
	return &NotificationHandler{center: center}
}

// List godoc
// @ID           listNotifications
// @Summary      List active notifications
// @Description  Returns the currently visible notifications, newest first
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[[]dto.NotificationResponse]
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	items := dto.ToNotificationResponses(h.center.List())
	h.BaseHandler.List(c, items, len(items), 0)
}

// Dismiss godoc
// @ID           dismissNotification
// @Summary      Dismiss a notification
// @Tags         notifications
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	if !h.center.Dismiss(c.Param("id")) {
		h.NotFound(c, "Notification not found")
		return
	}
	h.NoContent(c)
}

// Clear godoc
// @ID           clearNotifications
// @Summary      Dismiss every notification
// @Tags         notifications
// @Success      204
// @Router       /notifications [delete]
func (h *NotificationHandler) Clear(c *gin.Context) {
	h.center.Clear()
	h.NoContent(c)
}
