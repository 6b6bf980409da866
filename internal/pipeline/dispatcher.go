package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/metrics"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/notify"
	"github.com/geekodo/kudos-portal/internal/repository"
	"go.uber.org/zap"
)

// Dispatcher consumes activity events and fans each one out to the durable
// side effects: the in-app notification plus email via the sink, and the
// ClickHouse activity log. Live streaming and the bot feed are separate bus
// subscribers and never pass through here.
//
// Every event is processed on its own tracked goroutine so a slow SMTP
// round-trip never blocks the publishing request. Wait drains in-flight
// work on shutdown and in tests.
type Dispatcher struct {
	users    repository.UsersRepository
	sink     *notify.Sink
	activity repository.ActivityLogRepository // nil when ClickHouse is disabled
	log      *zap.Logger

	wg          sync.WaitGroup
	unsubscribe func()
}

func NewDispatcher(
	users repository.UsersRepository,
	sink *notify.Sink,
	activity repository.ActivityLogRepository,
	log *zap.Logger,
) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		users:    users,
		sink:     sink,
		activity: activity,
		log:      log,
	}
}

// Start subscribes the dispatcher to the activity topic.
func (d *Dispatcher) Start(b *bus.Bus) {
	d.unsubscribe = b.Subscribe(bus.TopicActivity, d.handle)
	d.log.Info("activity dispatcher started")
}

// Stop unsubscribes and drains in-flight deliveries.
func (d *Dispatcher) Stop() {
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.wg.Wait()
}

// Wait blocks until every delivery spawned so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) handle(ev model.ActivityEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.process(context.Background(), ev)
	}()
}

func (d *Dispatcher) process(ctx context.Context, ev model.ActivityEvent) {
	var err error
	switch e := ev.(type) {
	case model.KudosEvent:
		err = d.handleKudos(ctx, e)
	case model.BadgeEvent:
		err = d.handleBadge(ctx, e)
	case model.FollowEvent:
		err = d.handleFollow(ctx, e)
	default:
		d.log.Warn("unknown activity event", zap.String("kind", ev.Kind().String()))
		metrics.ActivityEventsTotal.WithLabelValues(ev.Kind().String(), "dropped").Inc()
		return
	}
	if err != nil {
		d.log.Error("activity delivery failed",
			zap.String("kind", ev.Kind().String()),
			zap.Error(err))
		metrics.ActivityEventsTotal.WithLabelValues(ev.Kind().String(), "failed").Inc()
	}
}

func (d *Dispatcher) handleKudos(ctx context.Context, e model.KudosEvent) error {
	user, err := d.users.GetByUsername(ctx, e.To)
	if err != nil {
		return err
	}
	if user == nil {
		d.log.Warn("kudos recipient not found", zap.String("username", e.To))
		metrics.ActivityEventsTotal.WithLabelValues(model.EventKudos.String(), "dropped").Inc()
		return nil
	}

	err = d.sink.Deliver(ctx, notify.Delivery{
		User:     user,
		Kind:     model.EventKudos,
		Message:  fmt.Sprintf("💚 You received kudos from %s!", e.From),
		Subject:  fmt.Sprintf("💚 New Kudos from %s", e.From),
		Template: "kudos_email",
		Context: map[string]any{
			"subject":   fmt.Sprintf("💚 New Kudos from %s", e.From),
			"fromUser":  e.From,
			"category":  e.Category,
			"message":   e.Message,
			"permalink": e.Permalink,
			"shareUrl":  e.Permalink,
		},
	})
	if err != nil {
		return err
	}

	d.recordActivity(ctx, model.ActivityRecord{
		Kind:      model.EventKudos,
		Actor:     e.From,
		Recipient: e.To,
		Subject:   e.Category,
		Permalink: e.Permalink,
		Ts:        e.CreatedAt,
	})
	metrics.ActivityEventsTotal.WithLabelValues(model.EventKudos.String(), "delivered").Inc()
	d.log.Info("kudos notification delivered", zap.String("to", e.To))
	return nil
}

func (d *Dispatcher) handleBadge(ctx context.Context, e model.BadgeEvent) error {
	user, err := d.users.GetByUsername(ctx, e.Username)
	if err != nil {
		return err
	}
	if user == nil {
		d.log.Warn("badge recipient not found", zap.String("username", e.Username))
		metrics.ActivityEventsTotal.WithLabelValues(model.EventBadge.String(), "dropped").Inc()
		return nil
	}

	subject := fmt.Sprintf("🏅 You earned the %q badge", e.BadgeTitle)
	err = d.sink.Deliver(ctx, notify.Delivery{
		User:     user,
		Kind:     model.EventBadge,
		Message:  fmt.Sprintf("🏅 Badge earned: %s", e.BadgeTitle),
		Subject:  subject,
		Template: "badge_email",
		Context: map[string]any{
			"subject":          subject,
			"username":         e.Username,
			"badgeTitle":       e.BadgeTitle,
			"badgeDescription": e.BadgeDescription,
			"badgePicture":     e.BadgePicture,
			"permalink":        e.Permalink,
			"shareUrl":         e.Permalink,
			"shareText":        fmt.Sprintf("I just earned the %q badge on the Kudos Portal! 🏅", e.BadgeTitle),
		},
	})
	if err != nil {
		return err
	}

	d.recordActivity(ctx, model.ActivityRecord{
		Kind:      model.EventBadge,
		Actor:     e.Username,
		Recipient: e.Username,
		Subject:   e.BadgeTitle,
		Permalink: e.Permalink,
		Ts:        e.GrantedAt,
	})
	metrics.ActivityEventsTotal.WithLabelValues(model.EventBadge.String(), "delivered").Inc()
	d.log.Info("badge notification delivered", zap.String("username", e.Username))
	return nil
}

func (d *Dispatcher) handleFollow(ctx context.Context, e model.FollowEvent) error {
	user, err := d.users.GetByUsername(ctx, e.TargetUser)
	if err != nil {
		return err
	}
	if user == nil {
		d.log.Warn("follow target not found", zap.String("username", e.TargetUser))
		metrics.ActivityEventsTotal.WithLabelValues(model.EventFollow.String(), "dropped").Inc()
		return nil
	}

	subject := fmt.Sprintf("⭐ %s is now following you", e.Follower)
	err = d.sink.Deliver(ctx, notify.Delivery{
		User:     user,
		Kind:     model.EventFollow,
		Message:  fmt.Sprintf("⭐ %s started following your updates.", e.Follower),
		Subject:  subject,
		Template: "follow_email",
		Context: map[string]any{
			"subject":    subject,
			"follower":   e.Follower,
			"targetUser": e.TargetUser,
			"permalink":  e.Permalink,
		},
	})
	if err != nil {
		return err
	}

	d.recordActivity(ctx, model.ActivityRecord{
		Kind:      model.EventFollow,
		Actor:     e.Follower,
		Recipient: e.TargetUser,
		Permalink: e.Permalink,
		Ts:        time.Now(),
	})
	metrics.ActivityEventsTotal.WithLabelValues(model.EventFollow.String(), "delivered").Inc()
	d.log.Info("follow notification delivered", zap.String("username", e.TargetUser))
	return nil
}

// recordActivity appends to the ClickHouse read model; failures are logged
// and never fail the delivery.
func (d *Dispatcher) recordActivity(ctx context.Context, rec model.ActivityRecord) {
	if d.activity == nil {
		return
	}
	if rec.Ts.IsZero() {
		rec.Ts = time.Now()
	}
	if err := d.activity.Insert(ctx, rec); err != nil {
		d.log.Warn("activity log append failed",
			zap.String("kind", rec.Kind.String()),
			zap.Error(err))
	}
}
