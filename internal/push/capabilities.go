package push

import "strings"

// Capabilities describes what the notification platform supports.
// It is resolved once at startup.
type Capabilities struct {
	// SupportsNotificationActions is false on Chrome-family agents: the deep
	// link travels as notification data and a click listener opens it.
	// Other agents (Safari/WebKit) revoke the permission for notifications
	// without an actionable element, so they get a "View" action instead.
	SupportsNotificationActions bool
}

// DetectCapabilities resolves the capabilities from a user agent string
func DetectCapabilities(userAgent string) Capabilities {
	isChrome := strings.Contains(strings.ToLower(userAgent), "chrome")
	return Capabilities{SupportsNotificationActions: !isChrome}
}
