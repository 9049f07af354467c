package shelf

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quocanhngo/raven-push/internal/model"
)

// ErrNotFound is returned by Get for notifications not on the shelf
var ErrNotFound = errors.New("notification not found")

// Publisher receives shelf events (the websocket hub in production)
type Publisher interface {
	Broadcast(event *model.WSEvent)
}

// Shelf keeps the notifications currently shown by the worker. Showing a
// notification with a tag replaces every shown notification with that tag.
type Shelf struct {
	mu            sync.Mutex
	notifications []*model.Notification // oldest first
	publisher     Publisher
	now           func() time.Time
}

// New creates an empty shelf. publisher may be nil.
func New(publisher Publisher) *Shelf {
	return &Shelf{
		publisher: publisher,
		now:       time.Now,
	}
}

// ShowNotification puts a notification on the shelf
func (s *Shelf) ShowNotification(ctx context.Context, title string, opts model.NotificationOptions) (*model.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := &model.Notification{
		ID:      uuid.New(),
		Title:   title,
		Options: opts,
		ShownAt: s.now(),
	}

	s.mu.Lock()
	var replaced []uuid.UUID
	if opts.Tag != "" {
		kept := s.notifications[:0]
		for _, existing := range s.notifications {
			if existing.Options.Tag == opts.Tag {
				replaced = append(replaced, existing.ID)
				continue
			}
			kept = append(kept, existing)
		}
		s.notifications = kept
	}
	s.notifications = append(s.notifications, n)
	s.mu.Unlock()

	s.publish(&model.WSEvent{
		Type:    model.WSEventNotificationShow,
		Payload: model.NotificationShowEvent{Notification: n, Replaced: replaced},
	})
	return n, nil
}

// GetNotifications returns the shown notifications matching the filter, oldest first
func (s *Shelf) GetNotifications(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*model.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if filter.Tag == "" || n.Options.Tag == filter.Tag {
			result = append(result, n)
		}
	}
	return result, nil
}

// Get returns a shown notification by ID
func (s *Shelf) Get(id uuid.UUID) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, ErrNotFound
}

// Close removes a notification from the shelf. Closing a notification that
// is not shown is a no-op.
func (s *Shelf) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	var closed *model.Notification
	for i, n := range s.notifications {
		if n.ID == id {
			closed = n
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if closed != nil {
		s.publish(&model.WSEvent{
			Type:    model.WSEventNotificationClose,
			Payload: model.NotificationCloseEvent{NotificationID: closed.ID, Tag: closed.Options.Tag},
		})
	}
	return nil
}

// Len returns the number of shown notifications
func (s *Shelf) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *Shelf) publish(event *model.WSEvent) {
	if s.publisher != nil {
		s.publisher.Broadcast(event)
	}
}
