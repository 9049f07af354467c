package push

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/quocanhngo/raven-push/internal/metrics"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/pkg/notification"
	"go.uber.org/zap"
)

// ConfigParam is the query parameter of the worker URL carrying the messaging config
const ConfigParam = "config"

// ClickListener handles a notification click event
type ClickListener func(ctx context.Context, ev *model.NotificationClickEvent)

// AppInitializer initializes the messaging app from the raw JSON config
type AppInitializer func(ctx context.Context, rawConfig []byte) error

// Precache is the asset cache kept by the worker
type Precache interface {
	Install(ctx context.Context) error
	CleanupOutdated(ctx context.Context) error
}

// Options holds the collaborators of a Worker
type Options struct {
	ScriptURL    string
	UserAgent    string
	Location     *time.Location // site timezone of creation times; time.Local when nil
	Storage      Storage
	Registration Registration
	Clients      Clients
	Precache     Precache // optional
	InitApp      AppInitializer
	Logger       *zap.Logger
}

// Worker is the background worker: it keeps the precache up to date, claims
// the application windows and, when configured, renders push notifications.
type Worker struct {
	registration Registration
	clients      Clients
	caps         Capabilities
	logger       *zap.Logger

	// nil when the config is missing or unusable
	notifications *Handler

	mu             sync.RWMutex
	clickListeners []ClickListener
	active         bool
}

// DefaultAppInitializer initializes a Firebase app and its messaging client
func DefaultAppInitializer(ctx context.Context, rawConfig []byte) error {
	_, err := notification.InitializeApp(ctx, rawConfig)
	return err
}

// NewWorker runs the worker startup sequence. A broken messaging config only
// disables notifications; it never fails the worker.
func NewWorker(ctx context.Context, opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.InitApp == nil {
		opts.InitApp = DefaultAppInitializer
	}

	w := &Worker{
		registration: opts.Registration,
		clients:      opts.Clients,
		caps:         DetectCapabilities(opts.UserAgent),
		logger:       logger.Named("worker"),
	}

	if opts.Precache != nil {
		if err := opts.Precache.Install(ctx); err != nil {
			w.logger.Error("Precache install failed", zap.Error(err))
		}
		if err := opts.Precache.CleanupOutdated(ctx); err != nil {
			w.logger.Error("Precache cleanup failed", zap.Error(err))
		}
	}

	handler, err := w.initNotifications(ctx, opts, logger)
	if err != nil {
		w.logger.Error("Failed to initialize notifications", zap.Error(err))
		metrics.NotificationsEnabled.Set(0)
	} else {
		w.notifications = handler
		metrics.NotificationsEnabled.Set(1)
		if !w.caps.SupportsNotificationActions {
			w.AddNotificationClickListener(handler.HandleNotificationClick)
		}
	}

	w.skipWaiting()
	if w.clients != nil {
		if err := w.clients.Claim(ctx); err != nil {
			w.logger.Warn("Failed to claim clients", zap.Error(err))
		}
	}

	w.logger.Info("Worker initialized",
		zap.Bool("notifications_enabled", w.notifications != nil),
		zap.Bool("supports_actions", w.caps.SupportsNotificationActions))
	return w
}

func (w *Worker) initNotifications(ctx context.Context, opts Options, logger *zap.Logger) (*Handler, error) {
	raw, err := ConfigFromScriptURL(opts.ScriptURL)
	if err != nil {
		return nil, err
	}
	if err := opts.InitApp(ctx, raw); err != nil {
		return nil, ErrConfiguration.Wrap(err)
	}
	return NewHandler(opts.Storage, opts.Registration, opts.Clients, w.caps, opts.Location, logger), nil
}

// ConfigFromScriptURL extracts the JSON config from the worker script URL
func ConfigFromScriptURL(scriptURL string) ([]byte, error) {
	u, err := url.Parse(scriptURL)
	if err != nil {
		return nil, ErrConfiguration.Wrap(err)
	}
	raw := u.Query().Get(ConfigParam)
	if raw == "" {
		return nil, ErrConfiguration.New("missing %q parameter", ConfigParam)
	}
	if !json.Valid([]byte(raw)) {
		return nil, ErrConfiguration.New("%q parameter is not valid JSON", ConfigParam)
	}
	return []byte(raw), nil
}

func (w *Worker) skipWaiting() {
	w.mu.Lock()
	w.active = true
	w.mu.Unlock()
}

// Active reports whether the worker finished its startup sequence
func (w *Worker) Active() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

// NotificationsEnabled reports whether the notification subsystem is available
func (w *Worker) NotificationsEnabled() bool {
	return w.notifications != nil
}

// Capabilities returns the platform capabilities resolved at startup
func (w *Worker) Capabilities() Capabilities {
	return w.caps
}

// AddNotificationClickListener registers a click listener. Listeners run in
// registration order.
func (w *Worker) AddNotificationClickListener(l ClickListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clickListeners = append(w.clickListeners, l)
}

// OnBackgroundMessage handles an incoming push message. It is a no-op when
// notifications are disabled.
func (w *Worker) OnBackgroundMessage(ctx context.Context, p model.PushPayload) {
	if w.notifications == nil {
		w.logger.Debug("Notifications disabled, dropping push message", zap.String("channel_id", p.ChannelID))
		return
	}
	w.notifications.HandleBackgroundMessage(ctx, p)
}

// DispatchNotificationClick runs the click listeners. When none of them stops
// the event and an action was clicked, the action URL is opened and the
// notification closed.
func (w *Worker) DispatchNotificationClick(ctx context.Context, ev *model.NotificationClickEvent) {
	if w.notifications == nil {
		return
	}
	kind := "body"
	if ev.Action != "" {
		kind = "action"
	}
	metrics.NotificationClicks.WithLabelValues(kind).Inc()

	w.mu.RLock()
	listeners := make([]ClickListener, len(w.clickListeners))
	copy(listeners, w.clickListeners)
	w.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, ev)
		if ev.PropagationStopped() {
			return
		}
	}

	if ev.Action == "" || ev.Notification == nil {
		return
	}
	if err := w.clients.OpenWindow(ctx, ev.Action); err != nil {
		w.logger.Warn("Failed to open action window", zap.Error(err), zap.String("url", ev.Action))
	}
	if err := w.registration.Close(ctx, ev.Notification.ID); err != nil {
		w.logger.Warn("Failed to close notification", zap.Error(err))
		return
	}
	metrics.NotificationsClosed.WithLabelValues(metrics.CloseReasonClicked).Inc()
}

// DismissNotification closes a notification the user swiped away
func (w *Worker) DismissNotification(ctx context.Context, n *model.Notification) error {
	if err := w.registration.Close(ctx, n.ID); err != nil {
		return err
	}
	metrics.NotificationsClosed.WithLabelValues(metrics.CloseReasonDismissed).Inc()
	w.logger.Debug("Notification dismissed", zap.String("notification_id", n.ID.String()),
		zap.String("tag", n.Options.Tag), zap.Bool("silent", n.Options.Silent))
	return nil
}
