package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionView is the title of the single action attached on platforms
// that need an actionable element
const ActionView = "View"

// NotificationAction is an inline button on a notification
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// NotificationData is the opaque data carried by a notification
type NotificationData struct {
	URL string `json:"url,omitempty"`
}

// NotificationOptions describes how a notification is displayed
type NotificationOptions struct {
	Body      string               `json:"body"`
	Icon      string               `json:"icon,omitempty"`
	Image     string               `json:"image,omitempty"`
	Timestamp *int64               `json:"timestamp,omitempty"` // epoch milliseconds
	Tag       string               `json:"tag,omitempty"`
	Silent    bool                 `json:"silent,omitempty"`
	Data      *NotificationData    `json:"data,omitempty"`
	Actions   []NotificationAction `json:"actions,omitempty"`
}

// Notification is a notification currently shown on the shelf
type Notification struct {
	ID      uuid.UUID           `json:"id"`
	Title   string              `json:"title"`
	Options NotificationOptions `json:"options"`
	ShownAt time.Time           `json:"shown_at"`
}

// URL returns the deep link stored in the notification data, if any
func (n *Notification) URL() string {
	if n == nil || n.Options.Data == nil {
		return ""
	}
	return n.Options.Data.URL
}

// NotificationFilter selects shown notifications. An empty Tag matches all.
type NotificationFilter struct {
	Tag string
}

// NotificationClickEvent is dispatched when the user interacts with a notification
type NotificationClickEvent struct {
	Notification *Notification
	Action       string // empty when the notification body was clicked

	stopped bool
}

// StopImmediatePropagation prevents listeners registered later from running
func (e *NotificationClickEvent) StopImmediatePropagation() {
	e.stopped = true
}

// PropagationStopped reports whether a listener stopped the event
func (e *NotificationClickEvent) PropagationStopped() bool {
	return e.stopped
}
