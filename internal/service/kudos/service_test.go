package kudos

import (
	"context"
	"testing"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/jmoiron/sqlx"
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

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*model.User, error) { return nil, nil }

func (f *fakeUsers) GetByBotSecret(ctx context.Context, secret string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUsers) CountAll(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeUsers) CountSince(ctx context.Context, since time.Time) (int64, error) { return 0, nil }

type fakeCategories struct {
	byCode map[string]*model.KudosCategory
}

func (f *fakeCategories) List(ctx context.Context) ([]model.KudosCategory, error) { return nil, nil }

func (f *fakeCategories) GetByCode(ctx context.Context, code string) (*model.KudosCategory, error) {
	return f.byCode[code], nil
}

type fakeKudos struct {
	inserted   []model.Kudos
	recipients [][]int64
}

func (f *fakeKudos) Insert(ctx context.Context, tx *sqlx.Tx, k model.Kudos, recipientIDs []int64) (int64, error) {
	f.inserted = append(f.inserted, k)
	f.recipients = append(f.recipients, recipientIDs)
	return int64(len(f.inserted)), nil
}

func (f *fakeKudos) GetBySlug(ctx context.Context, slug string) (*model.KudosDetail, error) {
	for i, k := range f.inserted {
		if k.Slug == slug {
			d := model.KudosDetail{
				ID:        int64(i + 1),
				Slug:      slug,
				Picture:   k.Picture,
				CreatedAt: time.Now(),
			}
			if k.Message != nil {
				d.Message = *k.Message
			}
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeKudos) ListPage(ctx context.Context, filters repository.KudosFilters, limit, offset int) ([]model.KudosDetail, int64, error) {
	return nil, 0, nil
}

func (f *fakeKudos) ListReceivedBy(ctx context.Context, userID int64) ([]model.KudosDetail, error) {
	return nil, nil
}

func (f *fakeKudos) Recent(ctx context.Context, limit int) ([]model.KudosDetail, error) {
	return nil, nil
}

func (f *fakeKudos) Stats(ctx context.Context) (model.KudosStats, error) {
	return model.KudosStats{}, nil
}

func (f *fakeKudos) CountSince(ctx context.Context, since time.Time) (int64, error) { return 0, nil }

func (f *fakeKudos) LeaderboardSince(ctx context.Context, since time.Time, limit int) ([]model.LeaderboardEntry, error) {
	return nil, nil
}

func newService(users *fakeUsers, kudosRepo *fakeKudos) (*Service, *bus.Bus) {
	b := bus.New(zap.NewNop())
	cats := &fakeCategories{byCode: map[string]*model.KudosCategory{
		"teamwork": {ID: 1, Code: "teamwork", Label: "Teamwork", Icon: "🤝"},
	}}
	svc := New(users, cats, kudosRepo, b, "https://kudos.example.com", zap.NewNop())
	return svc, b
}

func TestGivePersistsAndPublishes(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"frida": {ID: 1, Username: "frida"},
		"otto":  {ID: 2, Username: "otto"},
	}}
	repo := &fakeKudos{}
	svc, b := newService(users, repo)

	var published []model.ActivityEvent
	b.Subscribe(bus.TopicActivity, func(ev model.ActivityEvent) {
		published = append(published, ev)
	})

	detail, err := svc.Give(context.Background(), users.byUsername["frida"], "otto", "teamwork", "nice work")
	require.NoError(t, err)
	require.NotNil(t, detail)

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, int64(1), repo.inserted[0].FromUserID)
	assert.Equal(t, "🤝", repo.inserted[0].Picture)
	assert.Equal(t, []int64{2}, repo.recipients[0])

	require.Len(t, published, 1)
	ev, ok := published[0].(model.KudosEvent)
	require.True(t, ok)
	assert.Equal(t, "frida", ev.From)
	assert.Equal(t, "otto", ev.To)
	assert.Equal(t, "Teamwork", ev.Category)
	assert.Equal(t, "https://kudos.example.com/kudos/"+detail.Slug, ev.Permalink)
}

func TestGiveRejectsUnknownRecipient(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"frida": {ID: 1, Username: "frida"},
	}}
	svc, _ := newService(users, &fakeKudos{})

	_, err := svc.Give(context.Background(), users.byUsername["frida"], "ghost", "teamwork", "")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestGiveRejectsSelfKudos(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"frida": {ID: 1, Username: "frida"},
	}}
	svc, _ := newService(users, &fakeKudos{})

	_, err := svc.Give(context.Background(), users.byUsername["frida"], "frida", "teamwork", "")
	assert.ErrorIs(t, err, ErrSelfKudos)
}

func TestGiveRejectsUnknownCategory(t *testing.T) {
	users := &fakeUsers{byUsername: map[string]*model.User{
		"frida": {ID: 1, Username: "frida"},
		"otto":  {ID: 2, Username: "otto"},
	}}
	svc, _ := newService(users, &fakeKudos{})

	_, err := svc.Give(context.Background(), users.byUsername["frida"], "otto", "bogus", "")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
