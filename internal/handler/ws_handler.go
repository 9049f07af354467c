package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/push"
	"github.com/quocanhngo/raven-push/internal/shelf"
	"github.com/quocanhngo/raven-push/internal/ws"
	"github.com/quocanhngo/raven-push/pkg/auth"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS config
	},
}

// WSHandler connects application windows to the worker
type WSHandler struct {
	hub        *ws.Hub
	shelf      *shelf.Shelf
	worker     *push.Worker
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewWSHandler(hub *ws.Hub, shelf *shelf.Shelf, worker *push.Worker, jwtManager *auth.JWTManager, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:        hub,
		shelf:      shelf,
		worker:     worker,
		jwtManager: jwtManager,
		logger:     logger.Named("ws_handler"),
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and registers the window.
// Windows connect with: ws://host/ws?token=<jwt_token>
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// WebSocket can't use the Authorization header
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	h.logger.Info("Window connected", zap.String("user_id", claims.UserID))

	go client.WritePump()
	go client.ReadPump(h.handleWSMessage)
}

// handleWSMessage processes an event sent by a window
func (h *WSHandler) handleWSMessage(client *ws.Client, event model.WSEvent) {
	switch event.Type {
	case model.WSEventNotificationClick, model.WSEventNotificationDismiss:
		h.handleInteraction(context.Background(), client, event)

	default:
		h.logger.Debug("Unknown WebSocket event type", zap.String("type", event.Type), zap.String("user_id", client.UserID))
	}
}

func (h *WSHandler) handleInteraction(ctx context.Context, client *ws.Client, event model.WSEvent) {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payload model.NotificationInteraction
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		h.logger.Debug("Error parsing interaction payload", zap.Error(err), zap.String("type", event.Type))
		return
	}

	n, err := h.shelf.Get(payload.NotificationID)
	if err != nil {
		// already closed, typically by another window
		h.logger.Debug("Interaction with unknown notification",
			zap.String("notification_id", payload.NotificationID.String()), zap.String("user_id", client.UserID))
		return
	}

	if event.Type == model.WSEventNotificationDismiss {
		if err := h.worker.DismissNotification(ctx, n); err != nil {
			h.logger.Warn("Failed to dismiss notification", zap.Error(err))
		}
		return
	}

	h.worker.DispatchNotificationClick(ctx, &model.NotificationClickEvent{
		Notification: n,
		Action:       payload.Action,
	})
}
