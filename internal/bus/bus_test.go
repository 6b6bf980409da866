package bus

import (
	"testing"
	"time"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kudosEvent(t *testing.T) model.KudosEvent {
	t.Helper()
	ev, err := model.NewKudosEvent("alice", "bob", "Code", "thanks!", "https://x/kudo/abc", time.Now())
	require.NoError(t, err)
	return ev
}

func TestPublishInvokesListenersInSubscriptionOrder(t *testing.T) {
	b := New(nil)
	var order []int
	b.Subscribe(TopicActivity, func(model.ActivityEvent) { order = append(order, 1) })
	b.Subscribe(TopicActivity, func(model.ActivityEvent) { order = append(order, 2) })
	b.Subscribe(TopicActivity, func(model.ActivityEvent) { order = append(order, 3) })

	b.Publish(TopicActivity, kudosEvent(t))

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPanickingListenerDoesNotBlockOthers(t *testing.T) {
	b := New(nil)
	var second int
	b.Subscribe(TopicActivity, func(model.ActivityEvent) { panic("boom") })
	b.Subscribe(TopicActivity, func(model.ActivityEvent) { second++ })

	assert.NotPanics(t, func() { b.Publish(TopicActivity, kudosEvent(t)) })
	assert.Equal(t, 1, second, "second listener must still be invoked exactly once")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil)
	var got int
	unsub := b.Subscribe(TopicActivity, func(model.ActivityEvent) { got++ })

	b.Publish(TopicActivity, kudosEvent(t))
	unsub()
	b.Publish(TopicActivity, kudosEvent(t))

	assert.Equal(t, 1, got, "no events after unsubscribe returns")
}

func TestUnsubscribeRemovesExactlyOneRegistration(t *testing.T) {
	b := New(nil)
	var got int
	fn := func(model.ActivityEvent) { got++ }

	unsub1 := b.Subscribe(TopicActivity, fn)
	b.Subscribe(TopicActivity, fn) // same fn twice => two invocations per publish

	b.Publish(TopicActivity, kudosEvent(t))
	assert.Equal(t, 2, got)

	unsub1()
	b.Publish(TopicActivity, kudosEvent(t))
	assert.Equal(t, 3, got, "only the first registration is removed")
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New(nil)
	var got int
	unsub := b.Subscribe(TopicActivity, func(model.ActivityEvent) { got++ })
	other := b.Subscribe(TopicActivity, func(model.ActivityEvent) { got += 10 })
	_ = other

	unsub()
	unsub()
	b.Publish(TopicActivity, kudosEvent(t))
	assert.Equal(t, 10, got)
}

func TestTopicsAreIndependent(t *testing.T) {
	b := New(nil)
	var got int
	b.Subscribe("other", func(model.ActivityEvent) { got++ })

	b.Publish(TopicActivity, kudosEvent(t))
	assert.Zero(t, got)
}
