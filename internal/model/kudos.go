package model

import "time"

// KudosCategory is a fixed set of recognition categories seeded at install time.
type KudosCategory struct {
	ID         int64  `db:"id" json:"id"`
	Code       string `db:"code" json:"code"`
	Label      string `db:"label" json:"label"`
	Icon       string `db:"icon" json:"icon"`
	DefaultMsg string `db:"default_msg" json:"defaultMsg"`
}

// Kudos is the DB entity persisted in the kudos table.
type Kudos struct {
	ID         int64     `db:"id"`
	Slug       string    `db:"slug"`
	FromUserID int64     `db:"from_user_id"`
	CategoryID int64     `db:"category_id"`
	Message    *string   `db:"message"`
	Picture    string    `db:"picture"`
	CreatedAt  time.Time `db:"created_at"`
}

// KudosDetail is the display projection with sender, recipients and category
// resolved, returned by list/get endpoints and the pulse dashboard.
type KudosDetail struct {
	ID         int64         `json:"id"`
	Slug       string        `json:"slug"`
	FromUser   PublicUser    `json:"fromUser"`
	Category   KudosCategory `json:"category"`
	Message    string        `json:"message,omitempty"`
	Picture    string        `json:"picture"`
	Recipients []PublicUser  `json:"recipients"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// KudosStats is the global summary for GET /api/kudos/stats.
type KudosStats struct {
	KudosCount      int64 `json:"kudosCount"`
	UniqueSenders   int64 `json:"uniqueSenders"`
	UniqueReceivers int64 `json:"uniqueReceivers"`
}

// LeaderboardEntry counts kudos received per user over a window.
type LeaderboardEntry struct {
	Username      string `db:"username" json:"username"`
	AvatarURL     string `db:"avatar_url" json:"avatarUrl"`
	KudosReceived int64  `db:"kudos_received" json:"kudosReceived"`
}
