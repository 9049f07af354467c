package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Push ingress sources
const (
	SourceHTTP     = "http"
	SourceRedis    = "redis"
	SourceRabbitMQ = "rabbitmq"
)

// Reasons a notification is closed
const (
	CloseReasonSelfAuthored = "self_authored"
	CloseReasonClicked      = "clicked"
	CloseReasonDismissed    = "dismissed"
)

var (
	PushMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raven_push_messages_received_total",
			Help: "Total number of push messages received by source.",
		},
		[]string{"source"},
	)

	PushMessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raven_push_messages_rejected_total",
			Help: "Total number of push messages rejected at the ingress by source.",
		},
		[]string{"source"},
	)

	NotificationsShown = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raven_push_notifications_shown_total",
			Help: "Total number of notifications shown, by silent flag.",
		},
		[]string{"silent"},
	)

	NotificationsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raven_push_notifications_closed_total",
			Help: "Total number of notifications closed by reason.",
		},
		[]string{"reason"},
	)

	NotificationClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raven_push_notification_clicks_total",
			Help: "Total number of notification clicks by kind (body or action).",
		},
		[]string{"kind"},
	)

	NotificationsEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "raven_push_notifications_enabled",
		Help: "1 when the notification subsystem initialized, 0 otherwise.",
	})

	PrecachedAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "raven_push_precached_assets",
		Help: "Number of assets currently in the precache.",
	})
)
