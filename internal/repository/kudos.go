package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

// KudosFilters narrows list queries; nil fields are ignored.
type KudosFilters struct {
	CategoryID      *int64
	FromUserID      *int64
	RecipientUserID *int64
}

type KudosRepository interface {
	// Insert writes the kudos row and its recipient edges. If tx is nil an
	// internal transaction is opened and committed.
	Insert(ctx context.Context, tx *sqlx.Tx, k model.Kudos, recipientIDs []int64) (int64, error)
	ListPage(ctx context.Context, f KudosFilters, limit, offset int) ([]model.KudosDetail, int64, error)
	GetBySlug(ctx context.Context, slug string) (*model.KudosDetail, error)
	ListReceivedBy(ctx context.Context, userID int64) ([]model.KudosDetail, error)
	Recent(ctx context.Context, limit int) ([]model.KudosDetail, error)
	Stats(ctx context.Context) (model.KudosStats, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	LeaderboardSince(ctx context.Context, since time.Time, limit int) ([]model.LeaderboardEntry, error)
}

type KudosRepositoryImpl struct {
	db *sqlx.DB
}

func NewKudosRepository(db *sqlx.DB) *KudosRepositoryImpl {
	return &KudosRepositoryImpl{db: db}
}

var _ KudosRepository = (*KudosRepositoryImpl)(nil)

func (r *KudosRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

func (r *KudosRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, k model.Kudos, recipientIDs []int64) (int64, error) {
	var id int64
	err := r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO kudos (slug, from_user_id, category_id, message, picture, created_at)
			VALUES (?, ?, ?, ?, ?, NOW())
		`, k.Slug, k.FromUserID, k.CategoryID, k.Message, k.Picture)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for _, uid := range recipientIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO kudos_recipients (kudos_id, user_id) VALUES (?, ?)
			`, id, uid); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// kudosRow flattens the kudos/sender/category join.
type kudosRow struct {
	ID          int64     `db:"id"`
	Slug        string    `db:"slug"`
	Message     *string   `db:"message"`
	Picture     string    `db:"picture"`
	CreatedAt   time.Time `db:"created_at"`
	FromName    string    `db:"from_username"`
	FromAvatar  string    `db:"from_avatar"`
	CatID       int64     `db:"cat_id"`
	CatCode     string    `db:"cat_code"`
	CatLabel    string    `db:"cat_label"`
	CatIcon     string    `db:"cat_icon"`
	CatDefault  string    `db:"cat_default_msg"`
}

const kudosSelect = `
	SELECT k.id, k.slug, k.message, k.picture, k.created_at,
	       u.username AS from_username, u.avatar_url AS from_avatar,
	       c.id AS cat_id, c.code AS cat_code, c.label AS cat_label,
	       c.icon AS cat_icon, c.default_msg AS cat_default_msg
	  FROM kudos k
	  JOIN users u ON u.id = k.from_user_id
	  JOIN kudos_categories c ON c.id = k.category_id
`

func (row kudosRow) detail() model.KudosDetail {
	d := model.KudosDetail{
		ID:   row.ID,
		Slug: row.Slug,
		FromUser: model.PublicUser{
			Username:  row.FromName,
			AvatarURL: row.FromAvatar,
		},
		Category: model.KudosCategory{
			ID:         row.CatID,
			Code:       row.CatCode,
			Label:      row.CatLabel,
			Icon:       row.CatIcon,
			DefaultMsg: row.CatDefault,
		},
		Picture:   row.Picture,
		CreatedAt: row.CreatedAt,
	}
	if row.Message != nil {
		d.Message = *row.Message
	}
	return d
}

// attachRecipients fills in the recipient users for the given details, in one
// IN query keyed by kudos id.
func (r *KudosRepositoryImpl) attachRecipients(ctx context.Context, details []model.KudosDetail) ([]model.KudosDetail, error) {
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]int64, len(details))
	index := make(map[int64]int, len(details))
	for i, d := range details {
		ids[i] = d.ID
		index[d.ID] = i
	}

	query, args, err := sqlx.In(`
		SELECT kr.kudos_id, u.username, u.avatar_url
		  FROM kudos_recipients kr
		  JOIN users u ON u.id = kr.user_id
		 WHERE kr.kudos_id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var rows []struct {
		KudosID   int64  `db:"kudos_id"`
		Username  string `db:"username"`
		AvatarURL string `db:"avatar_url"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		i := index[row.KudosID]
		details[i].Recipients = append(details[i].Recipients, model.PublicUser{
			Username:  row.Username,
			AvatarURL: row.AvatarURL,
		})
	}
	return details, nil
}

func (r *KudosRepositoryImpl) list(ctx context.Context, where string, order string, args []any, limit, offset int) ([]model.KudosDetail, error) {
	q := kudosSelect + where + order
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	var rows []kudosRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	details := make([]model.KudosDetail, len(rows))
	for i, row := range rows {
		details[i] = row.detail()
	}
	return r.attachRecipients(ctx, details)
}

func (f KudosFilters) clause() (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if f.CategoryID != nil {
		where += " AND k.category_id = ?"
		args = append(args, *f.CategoryID)
	}
	if f.FromUserID != nil {
		where += " AND k.from_user_id = ?"
		args = append(args, *f.FromUserID)
	}
	if f.RecipientUserID != nil {
		where += " AND EXISTS (SELECT 1 FROM kudos_recipients kr WHERE kr.kudos_id = k.id AND kr.user_id = ?)"
		args = append(args, *f.RecipientUserID)
	}
	return where, args
}

func (r *KudosRepositoryImpl) ListPage(ctx context.Context, f KudosFilters, limit, offset int) ([]model.KudosDetail, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where, args := f.clause()

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM kudos k`+where, args...); err != nil {
		return nil, 0, err
	}

	details, err := r.list(ctx, where, " ORDER BY k.created_at DESC", args, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (r *KudosRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*model.KudosDetail, error) {
	var row kudosRow
	err := r.db.GetContext(ctx, &row, kudosSelect+" WHERE k.slug = ? LIMIT 1", slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	details, err := r.attachRecipients(ctx, []model.KudosDetail{row.detail()})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *KudosRepositoryImpl) ListReceivedBy(ctx context.Context, userID int64) ([]model.KudosDetail, error) {
	f := KudosFilters{RecipientUserID: &userID}
	where, args := f.clause()
	return r.list(ctx, where, " ORDER BY k.created_at DESC", args, 0, 0)
}

func (r *KudosRepositoryImpl) Recent(ctx context.Context, limit int) ([]model.KudosDetail, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.list(ctx, " WHERE 1=1", " ORDER BY k.created_at DESC", nil, limit, 0)
}

func (r *KudosRepositoryImpl) Stats(ctx context.Context) (model.KudosStats, error) {
	var s model.KudosStats
	err := r.db.GetContext(ctx, &s.KudosCount, `SELECT COUNT(*) FROM kudos`)
	if err != nil {
		return s, err
	}
	if err := r.db.GetContext(ctx, &s.UniqueSenders, `SELECT COUNT(DISTINCT from_user_id) FROM kudos`); err != nil {
		return s, err
	}
	if err := r.db.GetContext(ctx, &s.UniqueReceivers, `SELECT COUNT(DISTINCT user_id) FROM kudos_recipients`); err != nil {
		return s, err
	}
	return s, nil
}

func (r *KudosRepositoryImpl) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM kudos WHERE created_at >= ?`, since)
	return n, err
}

func (r *KudosRepositoryImpl) LeaderboardSince(ctx context.Context, since time.Time, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	const q = `
		SELECT u.username, u.avatar_url, COUNT(*) AS kudos_received
		  FROM kudos_recipients kr
		  JOIN kudos k ON k.id = kr.kudos_id
		  JOIN users u ON u.id = kr.user_id
		 WHERE k.created_at >= ?
		 GROUP BY u.id, u.username, u.avatar_url
		 ORDER BY kudos_received DESC
		 LIMIT ?
	`
	var rows []model.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &rows, q, since, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
