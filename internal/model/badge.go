package model

import "time"

type Badge struct {
	ID          int64     `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Color       string    `db:"color" json:"color"`
	Picture     string    `db:"picture" json:"picture"`
	Link        string    `db:"link" json:"link"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// UserBadge is the grant edge; (user_id, badge_id) is unique.
type UserBadge struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	BadgeID   int64     `db:"badge_id"`
	GrantedAt time.Time `db:"granted_at"`
}

// BadgeGrant is a recently-earned badge with its holder resolved.
type BadgeGrant struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Picture     string     `json:"picture"`
	User        PublicUser `json:"user"`
	GrantedAt   time.Time  `json:"grantedAt"`
}
