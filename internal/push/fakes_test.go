package push

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/quocanhngo/raven-push/internal/model"
)

type fakeStorage struct {
	items map[string]string
	err   error
}

func (s *fakeStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.items[key]
	return v, ok, nil
}

type fakeClients struct {
	mu      sync.Mutex
	opened  []string
	claimed int
}

func (c *fakeClients) OpenWindow(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, url)
	return nil
}

func (c *fakeClients) Claim(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimed++
	return nil
}

// failingRegistration fails every show
type failingRegistration struct {
	closed []uuid.UUID
}

func (r *failingRegistration) ShowNotification(context.Context, string, model.NotificationOptions) (*model.Notification, error) {
	return nil, errors.New("permission denied")
}

func (r *failingRegistration) GetNotifications(context.Context, model.NotificationFilter) ([]*model.Notification, error) {
	return nil, nil
}

func (r *failingRegistration) Close(_ context.Context, id uuid.UUID) error {
	r.closed = append(r.closed, id)
	return nil
}

type fakePrecache struct {
	installed, cleaned bool
	installErr         error
}

func (p *fakePrecache) Install(context.Context) error {
	p.installed = true
	return p.installErr
}

func (p *fakePrecache) CleanupOutdated(context.Context) error {
	p.cleaned = true
	return nil
}
