package push

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/shelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	safariUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15"
)

func newTestHandler(userAgent string, items map[string]string) (*Handler, *shelf.Shelf, *fakeClients) {
	s := shelf.New(nil)
	clients := &fakeClients{}
	h := NewHandler(&fakeStorage{items: items}, s, clients, DetectCapabilities(userAgent), time.UTC, zap.NewNop())
	return h, s, clients
}

func samplePayload() model.PushPayload {
	return model.PushPayload{
		FromUser:  "alice@example.com",
		Title:     "Alice in #general",
		Body:      "hello there",
		ChannelID: "general",
		BaseURL:   "https://chat.example.com",
	}
}

func TestDetectCapabilities(t *testing.T) {
	assert.False(t, DetectCapabilities(chromeUA).SupportsNotificationActions)
	assert.False(t, DetectCapabilities("HeadlessCHROME/120").SupportsNotificationActions)
	assert.True(t, DetectCapabilities(safariUA).SupportsNotificationActions)
	assert.True(t, DetectCapabilities("").SupportsNotificationActions)
}

func TestDeepLink(t *testing.T) {
	p := samplePayload()
	assert.Equal(t, "https://chat.example.com/raven_mobile/channel/general", DeepLink(p))

	p.BaseURL = "https://chat.example.com/"
	assert.Equal(t, "https://chat.example.com/raven_mobile/channel/general", DeepLink(p))

	p.ChannelID = ""
	assert.Equal(t, "https://chat.example.com/raven_mobile", DeepLink(p))
}

func TestBuildOptions_Defaults(t *testing.T) {
	h, _, _ := newTestHandler(chromeUA, nil)

	opts := h.BuildOptions(model.PushPayload{Title: "only a title"}, false)

	assert.Equal(t, "", opts.Body)
	assert.Empty(t, opts.Icon)
	assert.Empty(t, opts.Image)
	assert.Nil(t, opts.Timestamp)
	assert.Empty(t, opts.Tag)
	assert.False(t, opts.Silent)
}

func TestBuildOptions_Fields(t *testing.T) {
	h, _, _ := newTestHandler(chromeUA, nil)

	p := samplePayload()
	p.NotificationIcon = "https://chat.example.com/files/alice.png"
	p.MessageType = model.MessageTypeImage
	p.Content = "https://x/y.png"
	p.Creation = "1718000000000"

	opts := h.BuildOptions(p, false)

	assert.Equal(t, "hello there", opts.Body)
	assert.Equal(t, "https://chat.example.com/files/alice.png", opts.Icon)
	assert.Equal(t, "https://x/y.png", opts.Image)
	require.NotNil(t, opts.Timestamp)
	assert.Equal(t, int64(1718000000000), *opts.Timestamp)
	assert.Equal(t, "general", opts.Tag)
}

func TestBuildOptions_ImageOnlyForImageMessages(t *testing.T) {
	h, _, _ := newTestHandler(chromeUA, nil)

	p := samplePayload()
	p.MessageType = "Text"
	p.Content = "https://x/y.png"

	assert.Empty(t, h.BuildOptions(p, false).Image)
}

func TestBuildOptions_UnparseableCreationIsIgnored(t *testing.T) {
	h, _, _ := newTestHandler(chromeUA, nil)

	p := samplePayload()
	p.Creation = "yesterday"
	assert.Nil(t, h.BuildOptions(p, false).Timestamp)

	p.Creation = "2024-06-10 08:15:30.123456"
	assert.NotNil(t, h.BuildOptions(p, false).Timestamp)
}

func TestBuildOptions_PlatformBranch(t *testing.T) {
	url := "https://chat.example.com/raven_mobile/channel/general"

	chrome, _, _ := newTestHandler(chromeUA, nil)
	opts := chrome.BuildOptions(samplePayload(), false)
	require.NotNil(t, opts.Data)
	assert.Equal(t, url, opts.Data.URL)
	assert.Empty(t, opts.Actions)

	safari, _, _ := newTestHandler(safariUA, nil)
	opts = safari.BuildOptions(samplePayload(), false)
	assert.Nil(t, opts.Data)
	require.Len(t, opts.Actions, 1)
	assert.Equal(t, model.ActionView, opts.Actions[0].Title)
	assert.Equal(t, url, opts.Actions[0].Action)
}

func TestHandleBackgroundMessage_OtherUserIsAudible(t *testing.T) {
	ctx := context.Background()
	h, s, _ := newTestHandler(chromeUA, map[string]string{CurrentUserKey: "bob@example.com"})

	h.HandleBackgroundMessage(ctx, samplePayload())

	shown, err := s.GetNotifications(ctx, model.NotificationFilter{Tag: "general"})
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.False(t, shown[0].Options.Silent)
	assert.Equal(t, "Alice in #general", shown[0].Title)
	assert.Equal(t, "general", shown[0].Options.Tag)
}

func TestHandleBackgroundMessage_NoStoredUser(t *testing.T) {
	ctx := context.Background()
	h, s, _ := newTestHandler(chromeUA, nil)

	p := samplePayload()
	p.FromUser = ""
	h.HandleBackgroundMessage(ctx, p)

	shown, err := s.GetNotifications(ctx, model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.False(t, shown[0].Options.Silent)
}

func TestHandleBackgroundMessage_StorageErrorMeansNoUser(t *testing.T) {
	ctx := context.Background()
	s := shelf.New(nil)
	storage := &fakeStorage{err: errors.New("redis down")}
	h := NewHandler(storage, s, &fakeClients{}, DetectCapabilities(chromeUA), time.UTC, zap.NewNop())

	h.HandleBackgroundMessage(ctx, samplePayload())

	shown, err := s.GetNotifications(ctx, model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.False(t, shown[0].Options.Silent)
}

func TestHandleBackgroundMessage_SelfAuthoredClosesChannel(t *testing.T) {
	ctx := context.Background()
	h, s, _ := newTestHandler(safariUA, map[string]string{CurrentUserKey: "alice@example.com"})

	other, err := s.ShowNotification(ctx, "unrelated", model.NotificationOptions{Tag: "random"})
	require.NoError(t, err)
	_, err = s.ShowNotification(ctx, "earlier", model.NotificationOptions{Tag: "general"})
	require.NoError(t, err)

	h.HandleBackgroundMessage(ctx, samplePayload())

	general, err := s.GetNotifications(ctx, model.NotificationFilter{Tag: "general"})
	require.NoError(t, err)
	assert.Empty(t, general)

	rest, err := s.GetNotifications(ctx, model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, other.ID, rest[0].ID)
}

func TestHandleBackgroundMessage_SelfAuthoredWithoutChannelStaysShown(t *testing.T) {
	ctx := context.Background()
	h, s, _ := newTestHandler(chromeUA, map[string]string{CurrentUserKey: "alice@example.com"})

	p := samplePayload()
	p.ChannelID = ""
	h.HandleBackgroundMessage(ctx, p)

	shown, err := s.GetNotifications(ctx, model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.True(t, shown[0].Options.Silent)
}

func TestHandleBackgroundMessage_SilentForCurrentUser(t *testing.T) {
	ctx := context.Background()
	s := shelf.New(nil)
	rec := &recordingRegistration{Shelf: s}
	h := NewHandler(&fakeStorage{items: map[string]string{CurrentUserKey: "alice@example.com"}},
		rec, &fakeClients{}, DetectCapabilities(chromeUA), time.UTC, zap.NewNop())

	h.HandleBackgroundMessage(ctx, samplePayload())

	require.Len(t, rec.shown, 1)
	assert.True(t, rec.shown[0].Silent)
	assert.Equal(t, "general", rec.shown[0].Tag)
}

func TestHandleBackgroundMessage_ShowFailureSkipsCleanup(t *testing.T) {
	reg := &failingRegistration{}
	h := NewHandler(&fakeStorage{items: map[string]string{CurrentUserKey: "alice@example.com"}},
		reg, &fakeClients{}, DetectCapabilities(chromeUA), time.UTC, zap.NewNop())

	h.HandleBackgroundMessage(context.Background(), samplePayload())

	assert.Empty(t, reg.closed)
}

func TestHandleNotificationClick(t *testing.T) {
	ctx := context.Background()
	h, s, clients := newTestHandler(chromeUA, nil)

	h.HandleBackgroundMessage(ctx, samplePayload())
	shown, err := s.GetNotifications(ctx, model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, shown, 1)

	ev := &model.NotificationClickEvent{Notification: shown[0]}
	h.HandleNotificationClick(ctx, ev)

	assert.True(t, ev.PropagationStopped())
	assert.Equal(t, []string{"https://chat.example.com/raven_mobile/channel/general"}, clients.opened)
	assert.Equal(t, 0, s.Len())
}

func TestHandleNotificationClick_WithoutURL(t *testing.T) {
	ctx := context.Background()
	h, s, clients := newTestHandler(chromeUA, nil)

	n, err := s.ShowNotification(ctx, "no data", model.NotificationOptions{})
	require.NoError(t, err)

	h.HandleNotificationClick(ctx, &model.NotificationClickEvent{Notification: n})

	assert.Empty(t, clients.opened)
	assert.Equal(t, 0, s.Len())
}

// recordingRegistration records the options of every shown notification
type recordingRegistration struct {
	*shelf.Shelf
	shown []model.NotificationOptions
}

func (r *recordingRegistration) ShowNotification(ctx context.Context, title string, opts model.NotificationOptions) (*model.Notification, error) {
	r.shown = append(r.shown, opts)
	return r.Shelf.ShowNotification(ctx, title, opts)
}

func TestBuildOptions_CreationInSiteTimezone(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+30*60)
	h := NewHandler(&fakeStorage{}, shelf.New(nil), &fakeClients{}, DetectCapabilities(safariUA), kolkata, zap.NewNop())

	p := samplePayload()
	p.Creation = "2024-06-10 08:15:30"
	opts := h.BuildOptions(p, false)
	require.NotNil(t, opts.Timestamp)
	assert.Equal(t, time.Date(2024, 6, 10, 2, 45, 30, 0, time.UTC).UnixMilli(), *opts.Timestamp)

	// an explicit offset wins over the site timezone
	p.Creation = "2024-06-10T08:15:30Z"
	opts = h.BuildOptions(p, false)
	require.NotNil(t, opts.Timestamp)
	assert.Equal(t, time.Date(2024, 6, 10, 8, 15, 30, 0, time.UTC).UnixMilli(), *opts.Timestamp)
}
