package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/geekodo/kudos-portal/internal/mailer"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifications struct {
	inserted []model.Notification
	err      error
}

func (f *fakeNotifications) Insert(ctx context.Context, n model.Notification) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.inserted = append(f.inserted, n)
	return int64(len(f.inserted)), nil
}

func (f *fakeNotifications) ListUnread(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	return nil, nil
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID int64) error { return nil }

type fakeMailer struct {
	sent []mailer.Email
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, e mailer.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func strptr(s string) *string { return &s }

func newTestSink(t *testing.T, repo *fakeNotifications, m *fakeMailer) *Sink {
	t.Helper()
	renderer, err := templates.NewRenderer()
	require.NoError(t, err)
	return NewSink(repo, m, renderer, "kudos@example.com", "Kudos", zap.NewNop())
}

func kudosDelivery(user *model.User) Delivery {
	return Delivery{
		User:     user,
		Kind:     model.EventKudos,
		Message:  "frida sent you kudos 💚",
		Subject:  "frida sent you kudos 💚",
		Template: "kudos_email",
		Context: map[string]any{
			"subject":  "frida sent you kudos 💚",
			"fromUser": "frida",
			"category": "Teamwork",
			"message":  "thanks for the review",
			"shareUrl": "https://kudos.example.com/kudos/abc123",
		},
	}
}

func TestDeliverPersistsAndEmails(t *testing.T) {
	repo := &fakeNotifications{}
	m := &fakeMailer{}
	sink := newTestSink(t, repo, m)

	user := &model.User{ID: 7, Username: "otto", Email: strptr("otto@example.com")}
	err := sink.Deliver(context.Background(), kudosDelivery(user))
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, int64(7), repo.inserted[0].UserID)
	assert.Equal(t, model.EventKudos, repo.inserted[0].Type)
	assert.Equal(t, "frida sent you kudos 💚", repo.inserted[0].Message)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "kudos@example.com", m.sent[0].From)
	assert.Equal(t, "Kudos", m.sent[0].FromName)
	assert.Equal(t, []string{"otto@example.com"}, m.sent[0].To)
	assert.Equal(t, "frida sent you kudos 💚", m.sent[0].Subject)
	assert.Contains(t, m.sent[0].HTML, "frida")
}

func TestDeliverSkipsEmailWhenAddressMissing(t *testing.T) {
	repo := &fakeNotifications{}
	m := &fakeMailer{}
	sink := newTestSink(t, repo, m)

	user := &model.User{ID: 3, Username: "badger"}
	err := sink.Deliver(context.Background(), kudosDelivery(user))
	require.NoError(t, err)

	assert.Len(t, repo.inserted, 1, "notification row is still written")
	assert.Empty(t, m.sent)
}

func TestDeliverSwallowsEmailFailure(t *testing.T) {
	repo := &fakeNotifications{}
	m := &fakeMailer{err: errors.New("smtp: connection refused")}
	sink := newTestSink(t, repo, m)

	user := &model.User{ID: 1, Username: "otto", Email: strptr("otto@example.com")}
	err := sink.Deliver(context.Background(), kudosDelivery(user))
	require.NoError(t, err)
	assert.Len(t, repo.inserted, 1)
}

func TestDeliverPropagatesPersistenceFailure(t *testing.T) {
	repo := &fakeNotifications{err: errors.New("mysql is down")}
	m := &fakeMailer{}
	sink := newTestSink(t, repo, m)

	user := &model.User{ID: 1, Username: "otto", Email: strptr("otto@example.com")}
	err := sink.Deliver(context.Background(), kudosDelivery(user))
	require.Error(t, err)
	assert.Empty(t, m.sent, "email is never attempted when persistence fails")
}

func TestDeliverInAppOnlyWhenNoTemplate(t *testing.T) {
	repo := &fakeNotifications{}
	m := &fakeMailer{}
	sink := newTestSink(t, repo, m)

	user := &model.User{ID: 2, Username: "otto", Email: strptr("otto@example.com")}
	err := sink.Deliver(context.Background(), Delivery{
		User:    user,
		Kind:    model.EventInfo,
		Message: "welcome aboard",
	})
	require.NoError(t, err)
	assert.Len(t, repo.inserted, 1)
	assert.Empty(t, m.sent)
}

func TestDeliverRejectsNilUser(t *testing.T) {
	sink := newTestSink(t, &fakeNotifications{}, &fakeMailer{})
	err := sink.Deliver(context.Background(), Delivery{Kind: model.EventKudos})
	require.Error(t, err)
}
