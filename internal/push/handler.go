package push

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/quocanhngo/raven-push/internal/metrics"
	"github.com/quocanhngo/raven-push/internal/model"
	"go.uber.org/zap"
)

// Handler renders background push messages as notifications and handles
// clicks on them. A nil *Handler means the notification subsystem is disabled.
type Handler struct {
	storage      Storage
	registration Registration
	clients      Clients
	caps         Capabilities
	location     *time.Location
	logger       *zap.Logger
}

// NewHandler creates a notification handler. location is the site timezone
// creation times are expressed in; nil means time.Local.
func NewHandler(storage Storage, registration Registration, clients Clients, caps Capabilities, location *time.Location, logger *zap.Logger) *Handler {
	if location == nil {
		location = time.Local
	}
	return &Handler{
		storage:      storage,
		registration: registration,
		clients:      clients,
		caps:         caps,
		location:     location,
		logger:       logger.Named("push_handler"),
	}
}

// DeepLink returns the URL a notification for the payload should open
func DeepLink(p model.PushPayload) string {
	base := strings.TrimRight(p.BaseURL, "/")
	if p.ChannelID == "" {
		return base + "/raven_mobile"
	}
	return base + "/raven_mobile/channel/" + p.ChannelID
}

// BuildOptions computes the notification options for a payload
func (h *Handler) BuildOptions(p model.PushPayload, isCurrentUser bool) model.NotificationOptions {
	opts := model.NotificationOptions{
		Body: p.Body,
		Icon: p.NotificationIcon,
		Tag:  p.ChannelID,
	}
	if p.IsImage() {
		opts.Image = p.Content
	}
	if ms, ok := p.CreationMillis(h.location); ok {
		opts.Timestamp = &ms
	} else if p.Creation != "" {
		h.logger.Debug("Ignoring unparseable creation time", zap.String("creation", p.Creation))
	}

	url := DeepLink(p)
	if h.caps.SupportsNotificationActions {
		opts.Actions = []model.NotificationAction{{Action: url, Title: model.ActionView}}
	} else {
		opts.Data = &model.NotificationData{URL: url}
	}

	if isCurrentUser {
		opts.Silent = true
	}
	return opts
}

// isCurrentUser reports whether the payload was authored by the user of this device
func (h *Handler) isCurrentUser(ctx context.Context, p model.PushPayload) bool {
	user, found, err := h.storage.GetItem(ctx, CurrentUserKey)
	if err != nil {
		h.logger.Warn("Failed to read current user, treating as no user", zap.Error(err))
		return false
	}
	return found && p.FromUser != "" && user == p.FromUser
}

// HandleBackgroundMessage shows a notification for the payload. Self-authored
// messages are shown silently and then every notification of their channel
// is closed.
func (h *Handler) HandleBackgroundMessage(ctx context.Context, p model.PushPayload) {
	isCurrentUser := h.isCurrentUser(ctx, p)
	opts := h.BuildOptions(p, isCurrentUser)

	shown, err := h.registration.ShowNotification(ctx, p.Title, opts)
	if err != nil {
		h.logger.Error("Failed to show notification",
			zap.Error(err),
			zap.String("channel_id", p.ChannelID))
		return
	}
	metrics.NotificationsShown.WithLabelValues(strconv.FormatBool(opts.Silent)).Inc()

	h.logger.Debug("Notification shown",
		zap.String("notification_id", shown.ID.String()),
		zap.String("tag", opts.Tag),
		zap.Bool("silent", opts.Silent))

	if !isCurrentUser || p.ChannelID == "" {
		return
	}

	notifications, err := h.registration.GetNotifications(ctx, model.NotificationFilter{Tag: p.ChannelID})
	if err != nil {
		h.logger.Error("Failed to query channel notifications",
			zap.Error(err),
			zap.String("channel_id", p.ChannelID))
		return
	}
	for _, n := range notifications {
		if err := h.registration.Close(ctx, n.ID); err != nil {
			h.logger.Warn("Failed to close notification",
				zap.Error(err),
				zap.String("notification_id", n.ID.String()))
			continue
		}
		metrics.NotificationsClosed.WithLabelValues(metrics.CloseReasonSelfAuthored).Inc()
	}
}

// HandleNotificationClick opens the deep link stored in the notification data.
// It is only installed on platforms without notification actions.
func (h *Handler) HandleNotificationClick(ctx context.Context, ev *model.NotificationClickEvent) {
	ev.StopImmediatePropagation()
	if ev.Notification == nil {
		return
	}

	if url := ev.Notification.URL(); url != "" {
		if err := h.clients.OpenWindow(ctx, url); err != nil {
			h.logger.Warn("Failed to open window", zap.Error(err), zap.String("url", url))
		}
	}

	if err := h.registration.Close(ctx, ev.Notification.ID); err != nil {
		h.logger.Warn("Failed to close clicked notification",
			zap.Error(err),
			zap.String("notification_id", ev.Notification.ID.String()))
		return
	}
	metrics.NotificationsClosed.WithLabelValues(metrics.CloseReasonClicked).Inc()
}
