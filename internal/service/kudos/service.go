package kudos

import (
	"context"
	"errors"
	"fmt"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/geekodo/kudos-portal/internal/util"
	"go.uber.org/zap"
)

var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrSelfKudos         = errors.New("cannot send kudos to yourself")
)

// Service persists new kudos and publishes the activity event once the row
// has committed. The publish is fire-and-forget: pipeline failures never
// surface to the sender.
type Service struct {
	users      repository.UsersRepository
	categories repository.CategoriesRepository
	kudos      repository.KudosRepository
	bus        *bus.Bus
	baseURL    string
	log        *zap.Logger
}

func New(
	users repository.UsersRepository,
	categories repository.CategoriesRepository,
	kudosRepo repository.KudosRepository,
	b *bus.Bus,
	baseURL string,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:      users,
		categories: categories,
		kudos:      kudosRepo,
		bus:        b,
		baseURL:    baseURL,
		log:        log,
	}
}

// Give creates a kudos from sender to the named recipient.
func (s *Service) Give(ctx context.Context, sender *model.User, to, categoryCode, message string) (*model.KudosDetail, error) {
	toUser, err := s.users.GetByUsername(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("lookup recipient: %w", err)
	}
	if toUser == nil {
		return nil, ErrRecipientNotFound
	}
	if toUser.ID == sender.ID {
		return nil, ErrSelfKudos
	}

	cat, err := s.categories.GetByCode(ctx, categoryCode)
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	if cat == nil {
		return nil, ErrInvalidCategory
	}

	k := model.Kudos{
		Slug:       util.NewSlug(),
		FromUserID: sender.ID,
		CategoryID: cat.ID,
		Picture:    cat.Icon,
	}
	if message != "" {
		k.Message = &message
	}

	if _, err := s.kudos.Insert(ctx, nil, k, []int64{toUser.ID}); err != nil {
		return nil, fmt.Errorf("insert kudos: %w", err)
	}

	detail, err := s.kudos.GetBySlug(ctx, k.Slug)
	if err != nil {
		return nil, fmt.Errorf("reload kudos: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("kudos %s vanished after insert", k.Slug)
	}

	permalink := fmt.Sprintf("%s/kudos/%s", s.baseURL, k.Slug)
	ev, err := model.NewKudosEvent(sender.Username, toUser.Username, cat.Label, message, permalink, detail.CreatedAt)
	if err != nil {
		s.log.Warn("kudos event not published", zap.String("slug", k.Slug), zap.Error(err))
		return detail, nil
	}
	s.bus.Publish(bus.TopicActivity, ev)

	return detail, nil
}
