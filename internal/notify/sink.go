package notify

import (
	"context"
	"fmt"

	"github.com/geekodo/kudos-portal/internal/mailer"
	"github.com/geekodo/kudos-portal/internal/metrics"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/geekodo/kudos-portal/internal/templates"
	"go.uber.org/zap"
)

// Delivery is one per-recipient notification produced by the dispatcher.
type Delivery struct {
	User     *model.User
	Kind     model.EventKind
	Message  string // in-app notification text
	Subject  string // email subject line
	Template string // email template name; empty means in-app only
	Context  map[string]any
}

// Sink persists an in-app notification and then sends the matching email.
// The notification row is written first and its failure aborts the delivery;
// everything on the email side is best-effort and never propagates.
type Sink struct {
	notifications repository.NotificationsRepository
	mailer        mailer.Mailer
	renderer      *templates.Renderer
	fromAddr      string
	fromName      string
	log           *zap.Logger
}

func NewSink(
	notifications repository.NotificationsRepository,
	m mailer.Mailer,
	renderer *templates.Renderer,
	fromAddr, fromName string,
	log *zap.Logger,
) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{
		notifications: notifications,
		mailer:        m,
		renderer:      renderer,
		fromAddr:      fromAddr,
		fromName:      fromName,
		log:           log,
	}
}

func (s *Sink) Deliver(ctx context.Context, d Delivery) error {
	if d.User == nil {
		return fmt.Errorf("notify: delivery without a recipient")
	}

	if _, err := s.notifications.Insert(ctx, model.Notification{
		UserID:  d.User.ID,
		Message: d.Message,
		Type:    d.Kind,
	}); err != nil {
		return fmt.Errorf("insert notification for %s: %w", d.User.Username, err)
	}

	s.sendEmail(ctx, d)
	return nil
}

func (s *Sink) sendEmail(ctx context.Context, d Delivery) {
	if d.Template == "" {
		return
	}
	if d.User.Email == nil || *d.User.Email == "" {
		s.log.Debug("recipient has no email, skipping",
			zap.String("username", d.User.Username),
			zap.String("template", d.Template))
		metrics.EmailsTotal.WithLabelValues(d.Template, "skipped").Inc()
		return
	}

	html, err := s.renderer.Render(d.Template, d.Context)
	if err != nil {
		s.log.Warn("email render failed",
			zap.String("template", d.Template),
			zap.String("username", d.User.Username),
			zap.Error(err))
		metrics.EmailsTotal.WithLabelValues(d.Template, "failed").Inc()
		return
	}

	err = s.mailer.Send(ctx, mailer.Email{
		From:     s.fromAddr,
		FromName: s.fromName,
		To:       []string{*d.User.Email},
		Subject:  d.Subject,
		HTML:     html,
	})
	if err != nil {
		s.log.Warn("email send failed",
			zap.String("template", d.Template),
			zap.String("username", d.User.Username),
			zap.Error(err))
		metrics.EmailsTotal.WithLabelValues(d.Template, "failed").Inc()
		return
	}
	metrics.EmailsTotal.WithLabelValues(d.Template, "sent").Inc()
}
