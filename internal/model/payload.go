package model

import (
	"strconv"
	"strings"
	"time"
)

// MessageTypeImage is the raven_message_type of image messages
const MessageTypeImage = "Image"

// Keys of the FCM data map sent by the Raven backend
const (
	DataKeyFromUser         = "from_user"
	DataKeyTitle            = "title"
	DataKeyBody             = "body"
	DataKeyNotificationIcon = "notification_icon"
	DataKeyMessageType      = "raven_message_type"
	DataKeyContent          = "content"
	DataKeyCreation         = "creation"
	DataKeyChannelID        = "channel_id"
	DataKeyBaseURL          = "base_url"
)

// PushPayload is the data part of an incoming push message.
// Only Title is required; every other field may be empty.
type PushPayload struct {
	FromUser         string `json:"from_user,omitempty"`
	Title            string `json:"title"`
	Body             string `json:"body,omitempty"`
	NotificationIcon string `json:"notification_icon,omitempty"`
	MessageType      string `json:"raven_message_type,omitempty"`
	Content          string `json:"content,omitempty"`
	Creation         string `json:"creation,omitempty"`
	ChannelID        string `json:"channel_id,omitempty"`
	BaseURL          string `json:"base_url,omitempty"`
}

// PayloadFromData builds a PushPayload from an FCM data map
func PayloadFromData(data map[string]string) PushPayload {
	return PushPayload{
		FromUser:         data[DataKeyFromUser],
		Title:            data[DataKeyTitle],
		Body:             data[DataKeyBody],
		NotificationIcon: data[DataKeyNotificationIcon],
		MessageType:      data[DataKeyMessageType],
		Content:          data[DataKeyContent],
		Creation:         data[DataKeyCreation],
		ChannelID:        data[DataKeyChannelID],
		BaseURL:          data[DataKeyBaseURL],
	}
}

// IsImage reports whether the payload describes an image message
func (p PushPayload) IsImage() bool {
	return p.MessageType == MessageTypeImage
}

// creation layouts produced by the backend (site timezone, no offset) and RFC3339.
// RFC3339 values carry their own offset.
var creationLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// CreationMillis returns the creation time in epoch milliseconds. Values
// without an offset are read in loc, the site timezone (time.Local when nil).
// Numeric values are taken as epoch milliseconds already.
func (p PushPayload) CreationMillis(loc *time.Location) (int64, bool) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(p.Creation)
	if s == "" {
		return 0, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, true
	}
	for _, layout := range creationLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}
