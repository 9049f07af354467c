package model

import "github.com/google/uuid"

// ========== Push DTOs ==========

// PushMessageRequest is the FCM message shape accepted by the push ingress
type PushMessageRequest struct {
	Data map[string]string `json:"data" binding:"required"`
}

// PushAcceptedResponse reports whether the message reached the notification subsystem
type PushAcceptedResponse struct {
	Accepted bool `json:"accepted"`
}

// ========== Notification DTOs ==========

type NotificationClickRequest struct {
	Action string `json:"action"`
}

type NotificationListQuery struct {
	Tag string `form:"tag"`
}

// ========== Storage DTOs ==========

type SetItemRequest struct {
	Value string `json:"value"`
}

type ItemResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ========== Worker DTOs ==========

type WorkerStatusResponse struct {
	NotificationsEnabled bool `json:"notifications_enabled"`
	SupportsActions      bool `json:"supports_actions"`
	PrecachedAssets      int  `json:"precached_assets"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types
const (
	// worker -> windows
	WSEventNotificationShow  = "notification_show"
	WSEventNotificationClose = "notification_close"
	WSEventOpenWindow        = "open_window"
	WSEventClientsClaimed    = "clients_claimed"

	// windows -> worker
	WSEventNotificationClick   = "notification_click"
	WSEventNotificationDismiss = "notification_dismiss"
)

type NotificationShowEvent struct {
	Notification *Notification `json:"notification"`
	Replaced     []uuid.UUID   `json:"replaced,omitempty"`
}

type NotificationCloseEvent struct {
	NotificationID uuid.UUID `json:"notification_id"`
	Tag            string    `json:"tag,omitempty"`
}

type OpenWindowEvent struct {
	URL string `json:"url"`
}

// NotificationInteraction is sent by a window when the user clicks or dismisses a notification
type NotificationInteraction struct {
	NotificationID uuid.UUID `json:"notification_id"`
	Action         string    `json:"action,omitempty"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
