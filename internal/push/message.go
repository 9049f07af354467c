package push

import (
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/pkg/notification"
	"github.com/zeebo/errs"
)

// ErrInvalidMessage is the class of push messages rejected at the ingress
var ErrInvalidMessage = errs.Class("push message")

// ParseMessage decodes a JSON FCM message into a payload
func ParseMessage(body []byte) (model.PushPayload, error) {
	msg, err := notification.DecodeMessage(body)
	if err != nil {
		return model.PushPayload{}, ErrInvalidMessage.Wrap(err)
	}
	return PayloadFromData(msg.Data)
}

// PayloadFromData builds a payload from an FCM data map. A message without a
// title cannot be rendered and is rejected.
func PayloadFromData(data map[string]string) (model.PushPayload, error) {
	p := model.PayloadFromData(data)
	if p.Title == "" {
		return model.PushPayload{}, ErrInvalidMessage.New("missing %q", model.DataKeyTitle)
	}
	return p, nil
}
