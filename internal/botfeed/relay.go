package botfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geekodo/kudos-portal/internal/kafka"
	"github.com/geekodo/kudos-portal/internal/model"
	"go.uber.org/zap"
)

// Fetcher is implemented by kafka.Consumer.
type Fetcher interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Relay consumes the bot topic and posts one formatted chat line per event
// to an incoming webhook. Offsets are committed whether or not the webhook
// accepted the post.
type Relay struct {
	consumer   Fetcher
	webhookURL string
	client     *http.Client
	log        *zap.Logger
}

func NewRelay(consumer Fetcher, webhookURL string, timeout time.Duration, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Relay{
		consumer:   consumer,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Run loops until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("bot relay started", zap.String("webhook", r.webhookURL))
	for {
		msg, err := r.consumer.Fetch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if line, ok := FormatLine(msg.Value); ok {
			r.post(ctx, line)
		} else {
			r.log.Warn("bot relay skipping malformed message",
				zap.Int64("offset", msg.Offset))
		}

		if err := r.consumer.Commit(ctx, msg); err != nil {
			r.log.Warn("commit failed", zap.Error(err))
		}
	}
}

func (r *Relay) post(ctx context.Context, line string) {
	body, _ := json.Marshal(map[string]string{"text": line})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(body))
	if err != nil {
		r.log.Warn("webhook request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("webhook post failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		r.log.Warn("webhook rejected post", zap.Int("status", resp.StatusCode))
	}
}

// FormatLine turns an envelope payload into a single chat message.
func FormatLine(payload []byte) (string, bool) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Type == "" {
		return "", false
	}

	switch model.EventKind(env.Type) {
	case model.EventKudos:
		var e model.KudosEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return "", false
		}
		line := fmt.Sprintf("💚 *%s* sent kudos to *%s* — _%s_", e.From, e.To, e.Category)
		if e.Message != "" {
			line += fmt.Sprintf("\n> %s", e.Message)
		}
		line += fmt.Sprintf("\n🔗 %s", e.Permalink)
		return line, true

	case model.EventBadge:
		var e model.BadgeEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return "", false
		}
		line := fmt.Sprintf("🏅 *%s* earned the *%s* badge!", e.Username, e.BadgeTitle)
		if e.BadgeDescription != "" {
			line += fmt.Sprintf("\n_%s_", e.BadgeDescription)
		}
		line += fmt.Sprintf("\n🔗 %s", e.Permalink)
		return line, true

	case model.EventFollow:
		var e model.FollowEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return "", false
		}
		return fmt.Sprintf("⭐ *%s* is now following *%s*", e.Follower, e.TargetUser), true
	}

	return "", false
}
