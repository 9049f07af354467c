package push

import (
	"context"

	"github.com/google/uuid"
	"github.com/quocanhngo/raven-push/internal/model"
)

// CurrentUserKey is the storage key holding the identifier of whoever uses this device
const CurrentUserKey = "currentUser"

// Storage is the read path of the local key-value storage
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
}

// Registration is the notification shelf of the worker registration
type Registration interface {
	ShowNotification(ctx context.Context, title string, opts model.NotificationOptions) (*model.Notification, error)
	GetNotifications(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, error)
	Close(ctx context.Context, id uuid.UUID) error
}

// Clients is the set of application windows controlled by the worker
type Clients interface {
	OpenWindow(ctx context.Context, url string) error
	Claim(ctx context.Context) error
}
