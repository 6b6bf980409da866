package botfeed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducer struct {
	mu     sync.Mutex
	writes [][]byte
	err    error
}

func (f *fakeProducer) Write(ctx context.Context, key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, value)
	return nil
}

func (f *fakeProducer) all() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func TestPublisherWritesEnvelope(t *testing.T) {
	producer := &fakeProducer{}
	b := bus.New(zap.NewNop())
	p := NewPublisher(producer, zap.NewNop())
	p.Start(b)
	defer p.Stop()

	ev, err := model.NewKudosEvent("frida", "otto", "Teamwork", "nice work",
		"https://kudos.example.com/kudos/abc123", time.Now())
	require.NoError(t, err)

	b.Publish(bus.TopicActivity, ev)
	p.Wait()

	writes := producer.all()
	require.Len(t, writes, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal(writes[0], &env))
	assert.Equal(t, "kudos", env.Type)

	var decoded model.KudosEvent
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	assert.Equal(t, "frida", decoded.From)
	assert.Equal(t, "otto", decoded.To)
}

func TestPublisherSwallowsWriteFailure(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unreachable")}
	b := bus.New(zap.NewNop())
	p := NewPublisher(producer, zap.NewNop())
	p.Start(b)
	defer p.Stop()

	ev, err := model.NewFollowEvent("frida", "otto", "")
	require.NoError(t, err)

	b.Publish(bus.TopicActivity, ev)
	p.Wait()
	assert.Empty(t, producer.all())
}

func mustEnvelope(t *testing.T, kind string, ev any) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	payload, err := json.Marshal(Envelope{Type: kind, Data: data})
	require.NoError(t, err)
	return payload
}

func TestFormatLineKudos(t *testing.T) {
	ev, err := model.NewKudosEvent("frida", "otto", "Teamwork", "nice work",
		"https://kudos.example.com/kudos/abc123", time.Now())
	require.NoError(t, err)

	line, ok := FormatLine(mustEnvelope(t, "kudos", ev))
	require.True(t, ok)
	assert.Equal(t, "💚 *frida* sent kudos to *otto* — _Teamwork_\n> nice work\n🔗 https://kudos.example.com/kudos/abc123", line)
}

func TestFormatLineBadge(t *testing.T) {
	ev, err := model.NewBadgeEvent("otto", "first-kudos", "First Kudos",
		"Received a first kudos", "/badges/first-kudos.png",
		"https://kudos.example.com/badges/first-kudos", time.Now())
	require.NoError(t, err)

	line, ok := FormatLine(mustEnvelope(t, "badge", ev))
	require.True(t, ok)
	assert.Contains(t, line, "🏅 *otto* earned the *First Kudos* badge!")
	assert.Contains(t, line, "_Received a first kudos_")
}

func TestFormatLineFollow(t *testing.T) {
	ev, err := model.NewFollowEvent("frida", "otto", "")
	require.NoError(t, err)

	line, ok := FormatLine(mustEnvelope(t, "follow", ev))
	require.True(t, ok)
	assert.Equal(t, "⭐ *frida* is now following *otto*", line)
}

func TestFormatLineRejectsGarbage(t *testing.T) {
	_, ok := FormatLine([]byte(`not json`))
	assert.False(t, ok)

	_, ok = FormatLine([]byte(`{"type":"info","data":{}}`))
	assert.False(t, ok)
}
