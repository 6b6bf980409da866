package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKudosEvent(t *testing.T) {
	ev, err := NewKudosEvent("alice", "bob", "Code & Engineering", "thanks!", "https://x/kudo/abc", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, EventKudos, ev.Kind())
	assert.Equal(t, "alice", ev.From)
	assert.Equal(t, "bob", ev.To)
	assert.False(t, ev.CreatedAt.IsZero(), "zero createdAt should default to now")

	_, err = NewKudosEvent("alice", "", "Code", "", "https://x/kudo/abc", time.Now())
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = NewKudosEvent("alice", "bob", "Code", "", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestNewKudosEventTrimsWhitespace(t *testing.T) {
	ev, err := NewKudosEvent(" alice ", " bob ", "Code", "", "https://x/kudo/abc", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "alice", ev.From)
	assert.Equal(t, "bob", ev.To)
}

func TestNewBadgeEvent(t *testing.T) {
	ev, err := NewBadgeEvent("bob", "hero", "Infrastructure Hero", "", "/badges/hero.png", "https://x/badge/hero", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, EventBadge, ev.Kind())
	assert.False(t, ev.GrantedAt.IsZero())

	_, err = NewBadgeEvent("", "hero", "Infrastructure Hero", "", "/badges/hero.png", "https://x/badge/hero", time.Now())
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = NewBadgeEvent("bob", "hero", "", "", "/badges/hero.png", "https://x/badge/hero", time.Now())
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestNewFollowEvent(t *testing.T) {
	ev, err := NewFollowEvent("alice", "bob", "")
	require.NoError(t, err)
	assert.Equal(t, EventFollow, ev.Kind())
	assert.Empty(t, ev.Permalink, "permalink is optional for follows")

	_, err = NewFollowEvent("alice", "", "")
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestEventKindValid(t *testing.T) {
	for _, k := range []EventKind{EventKudos, EventBadge, EventFollow, EventInfo} {
		assert.True(t, k.Valid(), k.String())
	}
	assert.False(t, EventKind("poke").Valid())
}
