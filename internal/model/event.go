package model

import (
	"errors"
	"strings"
	"time"
)

type EventKind string

const (
	EventKudos  EventKind = "kudos"
	EventBadge  EventKind = "badge"
	EventFollow EventKind = "follow"
	EventInfo   EventKind = "info"
)

func (k EventKind) String() string { return string(k) }

func (k EventKind) Valid() bool {
	return k == EventKudos || k == EventBadge || k == EventFollow || k == EventInfo
}

// ActivityEvent is the closed set of events routes publish on the bus.
// Events are ephemeral: they are copied by value to every subscriber and
// never persisted as their own record.
type ActivityEvent interface {
	Kind() EventKind
}

var ErrInvalidEvent = errors.New("invalid activity event")

// KudosEvent is raised after a kudos row has been committed.
type KudosEvent struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Category  string    `json:"category"`
	Message   string    `json:"message,omitempty"`
	Permalink string    `json:"permalink"`
	CreatedAt time.Time `json:"createdAt"`
}

func (KudosEvent) Kind() EventKind { return EventKudos }

// NewKudosEvent validates required fields up front so consumers never have
// to guess at payload shape. A zero createdAt defaults to now.
func NewKudosEvent(from, to, category, message, permalink string, createdAt time.Time) (KudosEvent, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" || strings.TrimSpace(category) == "" || strings.TrimSpace(permalink) == "" {
		return KudosEvent{}, ErrInvalidEvent
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return KudosEvent{
		From:      from,
		To:        to,
		Category:  category,
		Message:   message,
		Permalink: permalink,
		CreatedAt: createdAt,
	}, nil
}

// BadgeEvent is raised after a badge has been granted for the first time.
type BadgeEvent struct {
	Username         string    `json:"username"`
	BadgeSlug        string    `json:"badgeSlug"`
	BadgeTitle       string    `json:"badgeTitle"`
	BadgeDescription string    `json:"badgeDescription,omitempty"`
	BadgePicture     string    `json:"badgePicture"`
	Permalink        string    `json:"permalink"`
	GrantedAt        time.Time `json:"grantedAt"`
}

func (BadgeEvent) Kind() EventKind { return EventBadge }

func NewBadgeEvent(username, slug, title, description, picture, permalink string, grantedAt time.Time) (BadgeEvent, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(slug) == "" || strings.TrimSpace(title) == "" ||
		strings.TrimSpace(picture) == "" || strings.TrimSpace(permalink) == "" {
		return BadgeEvent{}, ErrInvalidEvent
	}
	if grantedAt.IsZero() {
		grantedAt = time.Now()
	}
	return BadgeEvent{
		Username:         username,
		BadgeSlug:        slug,
		BadgeTitle:       title,
		BadgeDescription: description,
		BadgePicture:     picture,
		Permalink:        permalink,
		GrantedAt:        grantedAt,
	}, nil
}

// FollowEvent is raised after a follow edge has been created.
type FollowEvent struct {
	Follower   string `json:"follower"`
	TargetUser string `json:"targetUser"`
	Permalink  string `json:"permalink,omitempty"`
}

func (FollowEvent) Kind() EventKind { return EventFollow }

func NewFollowEvent(follower, targetUser, permalink string) (FollowEvent, error) {
	follower = strings.TrimSpace(follower)
	targetUser = strings.TrimSpace(targetUser)
	if follower == "" || targetUser == "" {
		return FollowEvent{}, ErrInvalidEvent
	}
	return FollowEvent{Follower: follower, TargetUser: targetUser, Permalink: permalink}, nil
}
