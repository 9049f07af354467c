package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/raven-push/internal/metrics"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/push"
	"go.uber.org/zap"
)

// PushHandler is the HTTP push ingress
type PushHandler struct {
	worker *push.Worker
	logger *zap.Logger
}

func NewPushHandler(worker *push.Worker, logger *zap.Logger) *PushHandler {
	return &PushHandler{worker: worker, logger: logger.Named("push_handler")}
}

// Push godoc
// @Summary Deliver a push message
// @Description Accepts an FCM data message and hands it to the worker. accepted is false when notifications are disabled.
// @Tags Push
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.PushMessageRequest true "FCM message"
// @Success 202 {object} model.PushAcceptedResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /push [post]
func (h *PushHandler) Push(c *gin.Context) {
	var req model.PushMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.PushMessagesRejected.WithLabelValues(metrics.SourceHTTP).Inc()
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	payload, err := push.PayloadFromData(req.Data)
	if err != nil {
		metrics.PushMessagesRejected.WithLabelValues(metrics.SourceHTTP).Inc()
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid push message", Message: err.Error()})
		return
	}

	metrics.PushMessagesReceived.WithLabelValues(metrics.SourceHTTP).Inc()
	h.worker.OnBackgroundMessage(c.Request.Context(), payload)

	c.JSON(http.StatusAccepted, model.PushAcceptedResponse{Accepted: h.worker.NotificationsEnabled()})
}
