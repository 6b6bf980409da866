package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/mailer"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/notify"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/geekodo/kudos-portal/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	byUsername map[string]*model.User
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return f.byUsername[username], nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByBotSecret(ctx context.Context, secret string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUsers) CountAll(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeUsers) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

type fakeNotifications struct {
	mu       sync.Mutex
	inserted []model.Notification
}

func (f *fakeNotifications) Insert(ctx context.Context, n model.Notification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, n)
	return int64(len(f.inserted)), nil
}

func (f *fakeNotifications) ListUnread(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	return nil, nil
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID int64) error { return nil }

func (f *fakeNotifications) all() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.inserted...)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (f *fakeMailer) Send(ctx context.Context, e mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeMailer) all() []mailer.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Email(nil), f.sent...)
}

type fakeActivityLog struct {
	mu   sync.Mutex
	rows []model.ActivityRecord
}

func (f *fakeActivityLog) Insert(ctx context.Context, rec model.ActivityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeActivityLog) List(ctx context.Context, _ repository.ActivityFilters, limit, offset int) ([]model.ActivityRecord, error) {
	return nil, nil
}

func (f *fakeActivityLog) all() []model.ActivityRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ActivityRecord(nil), f.rows...)
}

type testHarness struct {
	bus           *bus.Bus
	dispatcher    *Dispatcher
	notifications *fakeNotifications
	mailer        *fakeMailer
	activity      *fakeActivityLog
}

func newHarness(t *testing.T, users *fakeUsers) *testHarness {
	t.Helper()
	renderer, err := templates.NewRenderer()
	require.NoError(t, err)

	h := &testHarness{
		bus:           bus.New(zap.NewNop()),
		notifications: &fakeNotifications{},
		mailer:        &fakeMailer{},
		activity:      &fakeActivityLog{},
	}
	sink := notify.NewSink(h.notifications, h.mailer, renderer, "kudos@example.com", "Kudos", zap.NewNop())
	h.dispatcher = NewDispatcher(users, sink, h.activity, zap.NewNop())
	h.dispatcher.Start(h.bus)
	t.Cleanup(h.dispatcher.Stop)
	return h
}

func strptr(s string) *string { return &s }

func TestKudosEventFanout(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"otto": {ID: 7, Username: "otto", Email: strptr("otto@example.com")},
	}}
	h := newHarness(t, users)

	ev, err := model.NewKudosEvent("frida", "otto", "Teamwork", "thanks for the review",
		"https://kudos.example.com/kudos/abc123", time.Now())
	require.NoError(t, err)

	h.bus.Publish(bus.TopicActivity, ev)
	h.dispatcher.Wait()

	notifs := h.notifications.all()
	require.Len(t, notifs, 1)
	assert.Equal(t, int64(7), notifs[0].UserID)
	assert.Equal(t, model.EventKudos, notifs[0].Type)
	assert.Equal(t, "💚 You received kudos from frida!", notifs[0].Message)

	sent := h.mailer.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "💚 New Kudos from frida", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "Teamwork")

	logged := h.activity.all()
	require.Len(t, logged, 1)
	assert.Equal(t, model.EventKudos, logged[0].Kind)
	assert.Equal(t, "frida", logged[0].Actor)
	assert.Equal(t, "otto", logged[0].Recipient)
}

func TestBadgeEventFanout(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"otto": {ID: 7, Username: "otto", Email: strptr("otto@example.com")},
	}}
	h := newHarness(t, users)

	ev, err := model.NewBadgeEvent("otto", "first-kudos", "First Kudos",
		"Received a first kudos", "/badges/first-kudos.png",
		"https://kudos.example.com/badges/first-kudos", time.Now())
	require.NoError(t, err)

	h.bus.Publish(bus.TopicActivity, ev)
	h.dispatcher.Wait()

	notifs := h.notifications.all()
	require.Len(t, notifs, 1)
	assert.Equal(t, "🏅 Badge earned: First Kudos", notifs[0].Message)

	sent := h.mailer.all()
	require.Len(t, sent, 1)
	assert.Equal(t, `🏅 You earned the "First Kudos" badge`, sent[0].Subject)
}

func TestFollowEventFanout(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"otto": {ID: 7, Username: "otto", Email: strptr("otto@example.com")},
	}}
	h := newHarness(t, users)

	ev, err := model.NewFollowEvent("frida", "otto", "https://kudos.example.com/users/frida")
	require.NoError(t, err)

	h.bus.Publish(bus.TopicActivity, ev)
	h.dispatcher.Wait()

	notifs := h.notifications.all()
	require.Len(t, notifs, 1)
	assert.Equal(t, "⭐ frida started following your updates.", notifs[0].Message)
	assert.Equal(t, model.EventFollow, notifs[0].Type)

	sent := h.mailer.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "⭐ frida is now following you", sent[0].Subject)
}

func TestUnknownRecipientIsDropped(t *testing.T) {
	h := newHarness(t, &fakeUsers{byUsername: map[string]*model.User{}})

	ev, err := model.NewKudosEvent("frida", "ghost", "Teamwork", "",
		"https://kudos.example.com/kudos/abc123", time.Now())
	require.NoError(t, err)

	h.bus.Publish(bus.TopicActivity, ev)
	h.dispatcher.Wait()

	assert.Empty(t, h.notifications.all())
	assert.Empty(t, h.mailer.all())
	assert.Empty(t, h.activity.all())
}

func TestStopUnsubscribes(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"otto": {ID: 7, Username: "otto", Email: strptr("otto@example.com")},
	}}
	h := newHarness(t, users)
	h.dispatcher.Stop()

	ev, err := model.NewFollowEvent("frida", "otto", "")
	require.NoError(t, err)
	h.bus.Publish(bus.TopicActivity, ev)
	h.dispatcher.Wait()

	assert.Empty(t, h.notifications.all())
}
