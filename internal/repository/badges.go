package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

const badgeColumns = `id, slug, title, description, color, picture, link, created_at`

type BadgesRepository interface {
	ListAll(ctx context.Context) ([]model.Badge, error)
	GetBySlug(ctx context.Context, slug string) (*model.Badge, error)
	Holders(ctx context.Context, badgeID int64) ([]model.PublicUser, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Badge, error)
	OwnedSet(ctx context.Context, userID int64) (map[int64]bool, error)
	// Grant awards the badge once; returns false when the user already holds it.
	Grant(ctx context.Context, userID, badgeID int64) (bool, error)
	RecentSince(ctx context.Context, since time.Time, limit int) ([]model.BadgeGrant, error)
	CountGrants(ctx context.Context) (int64, error)
	CountGrantsSince(ctx context.Context, since time.Time) (int64, error)
}

type BadgesRepositoryImpl struct {
	db *sqlx.DB
}

func NewBadgesRepository(db *sqlx.DB) *BadgesRepositoryImpl {
	return &BadgesRepositoryImpl{db: db}
}

var _ BadgesRepository = (*BadgesRepositoryImpl)(nil)

func (r *BadgesRepositoryImpl) ListAll(ctx context.Context) ([]model.Badge, error) {
	var rows []model.Badge
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+badgeColumns+` FROM badges ORDER BY title ASC
	`)
	return rows, err
}

func (r *BadgesRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*model.Badge, error) {
	var b model.Badge
	err := r.db.GetContext(ctx, &b, `
		SELECT `+badgeColumns+` FROM badges WHERE slug = ? LIMIT 1
	`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BadgesRepositoryImpl) Holders(ctx context.Context, badgeID int64) ([]model.PublicUser, error) {
	var rows []model.PublicUser
	err := r.db.SelectContext(ctx, &rows, `
		SELECT u.username, u.avatar_url
		  FROM user_badges ub
		  JOIN users u ON u.id = ub.user_id
		 WHERE ub.badge_id = ?
		 ORDER BY ub.granted_at DESC
	`, badgeID)
	return rows, err
}

func (r *BadgesRepositoryImpl) ListForUser(ctx context.Context, userID int64) ([]model.Badge, error) {
	var rows []model.Badge
	err := r.db.SelectContext(ctx, &rows, `
		SELECT b.id, b.slug, b.title, b.description, b.color, b.picture, b.link, b.created_at
		  FROM user_badges ub
		  JOIN badges b ON b.id = ub.badge_id
		 WHERE ub.user_id = ?
		 ORDER BY ub.granted_at DESC
	`, userID)
	return rows, err
}

func (r *BadgesRepositoryImpl) OwnedSet(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
		SELECT badge_id FROM user_badges WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	owned := make(map[int64]bool, len(ids))
	for _, id := range ids {
		owned[id] = true
	}
	return owned, nil
}

func (r *BadgesRepositoryImpl) Grant(ctx context.Context, userID, badgeID int64) (bool, error) {
	// no-op update on duplicate: affected=1 only for a fresh grant
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_badges (user_id, badge_id, granted_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE id = id
	`, userID, badgeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type badgeGrantRow struct {
	Slug        string    `db:"slug"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Color       string    `db:"color"`
	Picture     string    `db:"picture"`
	Username    string    `db:"username"`
	AvatarURL   string    `db:"avatar_url"`
	GrantedAt   time.Time `db:"granted_at"`
}

func (r *BadgesRepositoryImpl) RecentSince(ctx context.Context, since time.Time, limit int) ([]model.BadgeGrant, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var rows []badgeGrantRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT b.slug, b.title, b.description, b.color, b.picture,
		       u.username, u.avatar_url, ub.granted_at
		  FROM user_badges ub
		  JOIN badges b ON b.id = ub.badge_id
		  JOIN users u ON u.id = ub.user_id
		 WHERE ub.granted_at >= ?
		 ORDER BY ub.granted_at DESC
		 LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, err
	}
	grants := make([]model.BadgeGrant, len(rows))
	for i, row := range rows {
		grants[i] = model.BadgeGrant{
			Slug:        row.Slug,
			Title:       row.Title,
			Description: row.Description,
			Color:       row.Color,
			Picture:     row.Picture,
			User:        model.PublicUser{Username: row.Username, AvatarURL: row.AvatarURL},
			GrantedAt:   row.GrantedAt,
		}
	}
	return grants, nil
}

func (r *BadgesRepositoryImpl) CountGrants(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM user_badges`)
	return n, err
}

func (r *BadgesRepositoryImpl) CountGrantsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM user_badges WHERE granted_at >= ?`, since)
	return n, err
}
