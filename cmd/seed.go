package cmd

import (
	"fmt"
	"log"

	"github.com/geekodo/kudos-portal/internal/config"
	"github.com/geekodo/kudos-portal/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// defaults for local development only
const (
	seedPassword  = "kudos"
	seedBotSecret = "badger-dev-secret-000000000000"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo users, categories and badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Printf(">> Seeding demo data (password for all local accounts: %q)", seedPassword)

		if err := seedUsers(sqlDB); err != nil {
			return err
		}
		if err := seedCategories(sqlDB); err != nil {
			return err
		}
		if err := seedBadges(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedUser struct {
	Username  string
	Role      string
	AvatarURL string
	BotSecret *string
}

// seedUsers inserts deterministic demo accounts (idempotent).
func seedUsers(dbx *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	botSecret := seedBotSecret
	users := []seedUser{
		{Username: "ada", Role: "ADMIN", AvatarURL: "/avatars/ada.png"},
		{Username: "frida", Role: "MEMBER", AvatarURL: "/avatars/frida.png"},
		{Username: "otto", Role: "MEMBER", AvatarURL: "/avatars/otto.png"},
		{Username: "casper", Role: "USER", AvatarURL: "/avatars/casper.png"},
		{Username: "badger-bot", Role: "BOT", BotSecret: &botSecret},
	}

	const q = `
INSERT INTO users
    (username, email, password_hash, role, bot_secret, avatar_url, created_at)
VALUES
    (?, NULL, ?, ?, ?, ?, NOW())
ON DUPLICATE KEY UPDATE
    role       = VALUES(role),
    bot_secret = VALUES(bot_secret),
    avatar_url = VALUES(avatar_url)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range users {
		if _, err := tx.Exec(q, u.Username, string(hash), u.Role, u.BotSecret, u.AvatarURL); err != nil {
			return fmt.Errorf("insert user %q: %w", u.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit users: %w", err)
	}
	return nil
}

type seedCategory struct {
	Code       string
	Label      string
	Icon       string
	DefaultMsg string
}

func seedCategories(dbx *sqlx.DB) error {
	categories := []seedCategory{
		{"CODE", "Code & Engineering", "💻", "Your code makes this community stronger every day. 💪"},
		{"ARTWORK", "Artwork & Design", "🎨", "You bring color and creativity to the project. 🌈"},
		{"TRANSLATION", "Translations & Localization", "🌐", "Thanks for helping us speak every language! 💬"},
		{"MODERATION", "Community Moderation", "🛡️", "Your kindness keeps our community safe and welcoming."},
		{"ORGANIZING", "Event & Release Organizing", "📅", "You make our gatherings run like clockwork!"},
		{"INFRASTRUCTURE", "Infrastructure Heroes", "🦸", "You keep the lights on and the servers purring. ⚙️"},
		{"SUPPORT", "Support and User Assistance", "🧑‍💻", "Many thanks for helping me out! 🧑‍💻"},
	}

	const q = `
INSERT INTO kudos_categories (code, label, icon, default_msg)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    label       = VALUES(label),
    icon        = VALUES(icon),
    default_msg = VALUES(default_msg)
`
	for _, cat := range categories {
		if _, err := dbx.Exec(q, cat.Code, cat.Label, cat.Icon, cat.DefaultMsg); err != nil {
			return fmt.Errorf("insert category %q: %w", cat.Code, err)
		}
	}
	return nil
}

type seedBadge struct {
	Slug        string
	Title       string
	Description string
	Color       string
	Picture     string
}

func seedBadges(dbx *sqlx.DB) error {
	badges := []seedBadge{
		{"community-hero", "Community Hero", "Exceptional community support.", "#d0342c", "/badges/hero.svg"},
		{"artwork-hero", "Artwork Hero", "Design & branding leadership.", "#8f4899", "/badges/artwork.svg"},
		{"gave-10-kudos", "10 Kudos Given", "Shared 10 thank-yous.", "#e8c22e", "/badges/gave10.svg"},
		{"received-10-kudos", "10 Kudos Received", "Received 10 thank-yous.", "#e8c22e", "/badges/received10.svg"},
		{"first-kudos", "1 Kudos Received", "First thank-you received.", "#e8c22e", "/badges/received1.svg"},
	}

	const q = `
INSERT INTO badges (slug, title, description, color, picture, link, created_at)
VALUES (?, ?, ?, ?, ?, '', NOW())
ON DUPLICATE KEY UPDATE
    title       = VALUES(title),
    description = VALUES(description),
    color       = VALUES(color),
    picture     = VALUES(picture)
`
	for _, b := range badges {
		if _, err := dbx.Exec(q, b.Slug, b.Title, b.Description, b.Color, b.Picture); err != nil {
			return fmt.Errorf("insert badge %q: %w", b.Slug, err)
		}
	}
	return nil
}
