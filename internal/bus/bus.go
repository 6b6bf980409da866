package bus

import (
	"sync"

	"github.com/geekodo/kudos-portal/internal/model"
	"go.uber.org/zap"
)

// TopicActivity is the single unified channel all producers publish to;
// consumers filter by event kind.
const TopicActivity = "activity"

// Listener receives an event synchronously during Publish. A listener that
// kicks off async work owns its own error reporting.
type Listener func(model.ActivityEvent)

type subscription struct {
	fn Listener
}

// Bus is an in-process publish/subscribe hub scoped to the lifetime of the
// server process. It is explicitly constructed and injected, never a
// package-level singleton.
type Bus struct {
	mu   sync.RWMutex
	log  *zap.Logger
	subs map[string][]*subscription
}

func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:  log,
		subs: make(map[string][]*subscription),
	}
}

// Subscribe registers fn for topic and returns a function that removes
// exactly that registration. There is no duplicate detection: subscribing
// the same function twice yields two invocations per publish.
func (b *Bus) Subscribe(topic string, fn Listener) (unsubscribe func()) {
	sub := &subscription{fn: fn}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s == sub {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes every listener currently registered for topic, in
// subscription order, and returns once all of them ran. A panicking listener
// is logged and must not prevent the remaining listeners from running.
func (b *Bus) Publish(topic string, ev model.ActivityEvent) {
	b.mu.RLock()
	list := b.subs[topic]
	snapshot := make([]*subscription, len(list))
	copy(snapshot, list)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		b.invoke(topic, sub.fn, ev)
	}
}

func (b *Bus) invoke(topic string, fn Listener, ev model.ActivityEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("bus listener panicked",
				zap.String("topic", topic),
				zap.String("kind", ev.Kind().String()),
				zap.Any("panic", r),
			)
		}
	}()
	fn(ev)
}
