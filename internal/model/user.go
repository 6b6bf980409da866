package model

import "time"

type Role string

const (
	RoleUser   Role = "USER"
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
	RoleBot    Role = "BOT"
)

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        *string   `db:"email"`         // nullable, gates email delivery
	PasswordHash *string   `db:"password_hash"` // nullable for bot/OIDC accounts
	Role         Role      `db:"role"`
	BotSecret    *string   `db:"bot_secret"` // only set for BOT accounts
	AvatarURL    string    `db:"avatar_url"`
	CreatedAt    time.Time `db:"created_at"`
}

// PublicUser is the sanitized projection returned by the API.
type PublicUser struct {
	Username  string `db:"username" json:"username"`
	AvatarURL string `db:"avatar_url" json:"avatarUrl"`
}

func (u User) Public() PublicUser {
	return PublicUser{Username: u.Username, AvatarURL: u.AvatarURL}
}
