package botfeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/model"
	"go.uber.org/zap"
)

// Envelope is the wire shape written to the bot topic; it mirrors the SSE
// frame so chat bots can consume either transport.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const writeTimeout = 5 * time.Second

// Producer is implemented by kafka.Producer.
type Producer interface {
	Write(ctx context.Context, key, value []byte) error
}

// Publisher bridges the in-process bus onto a Kafka topic for off-process
// bot consumers. Delivery is at-most-once: a failed write is logged and the
// event is gone.
type Publisher struct {
	producer Producer
	log      *zap.Logger

	wg          sync.WaitGroup
	unsubscribe func()
}

func NewPublisher(p Producer, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{producer: p, log: log}
}

func (p *Publisher) Start(b *bus.Bus) {
	p.unsubscribe = b.Subscribe(bus.TopicActivity, p.handle)
	p.log.Info("bot feed publisher started")
}

// Stop unsubscribes and drains in-flight writes.
func (p *Publisher) Stop() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	p.wg.Wait()
}

// Wait blocks until every write spawned so far has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

func (p *Publisher) handle(ev model.ActivityEvent) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.publish(ev)
	}()
}

func (p *Publisher) publish(ev model.ActivityEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("bot feed marshal failed",
			zap.String("kind", ev.Kind().String()),
			zap.Error(err))
		return
	}
	value, err := json.Marshal(Envelope{Type: ev.Kind().String(), Data: data})
	if err != nil {
		p.log.Warn("bot feed marshal failed",
			zap.String("kind", ev.Kind().String()),
			zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.producer.Write(ctx, []byte(ev.Kind().String()), value); err != nil {
		p.log.Warn("bot feed write failed",
			zap.String("kind", ev.Kind().String()),
			zap.Error(err))
	}
}
