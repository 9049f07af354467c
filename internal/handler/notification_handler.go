package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/push"
	"github.com/quocanhngo/raven-push/internal/shelf"
)

// NotificationHandler exposes the notification shelf
type NotificationHandler struct {
	shelf  *shelf.Shelf
	worker *push.Worker
}

func NewNotificationHandler(shelf *shelf.Shelf, worker *push.Worker) *NotificationHandler {
	return &NotificationHandler{shelf: shelf, worker: worker}
}

// ListNotifications godoc
// @Summary List shown notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param tag query string false "Only notifications with this tag"
// @Success 200 {array} model.Notification
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var query model.NotificationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}

	notifications, err := h.shelf.GetNotifications(c.Request.Context(), model.NotificationFilter{Tag: query.Tag})
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	if notifications == nil {
		notifications = []*model.Notification{}
	}

	c.JSON(http.StatusOK, notifications)
}

// Click godoc
// @Summary Click a notification
// @Description Dispatches a click to the worker. An empty action is a click on the notification body.
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Param body body model.NotificationClickRequest false "Clicked action"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /notifications/{id}/click [post]
func (h *NotificationHandler) Click(c *gin.Context) {
	n, ok := h.lookup(c)
	if !ok {
		return
	}

	var req model.NotificationClickRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
			return
		}
	}

	h.worker.DispatchNotificationClick(c.Request.Context(), &model.NotificationClickEvent{
		Notification: n,
		Action:       req.Action,
	})

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Click dispatched"})
}

// Dismiss godoc
// @Summary Dismiss a notification
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	n, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := h.worker.DismissNotification(c.Request.Context(), n); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Notification dismissed"})
}

func (h *NotificationHandler) lookup(c *gin.Context) (*model.Notification, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid notification ID"})
		return nil, false
	}

	n, err := h.shelf.Get(id)
	if errors.Is(err, shelf.ErrNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return n, true
}
