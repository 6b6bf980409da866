package repository

import (
	"context"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

// NotificationsRepository persists the in-app notification feed. Rows are
// append-mostly; the only mutation is flipping the read flag.
type NotificationsRepository interface {
	Insert(ctx context.Context, n model.Notification) (int64, error)
	ListUnread(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) error
}

type NotificationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationsRepository(db *sqlx.DB) *NotificationsRepositoryImpl {
	return &NotificationsRepositoryImpl{db: db}
}

var _ NotificationsRepository = (*NotificationsRepositoryImpl)(nil)

// Insert creates an unread notification row and returns its id.
func (r *NotificationsRepositoryImpl) Insert(ctx context.Context, n model.Notification) (int64, error) {
	const q = `
		INSERT INTO notifications (user_id, message, type, ` + "`read`" + `, created_at)
		VALUES (?, ?, ?, FALSE, NOW())
	`
	res, err := r.db.ExecContext(ctx, q, n.UserID, n.Message, n.Type.String())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *NotificationsRepositoryImpl) ListUnread(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	const q = `
		SELECT id, user_id, message, type, ` + "`read`" + `, created_at
		  FROM notifications
		 WHERE user_id = ? AND ` + "`read`" + ` = FALSE
		 ORDER BY created_at DESC
		 LIMIT ?
	`
	var rows []model.Notification
	if err := r.db.SelectContext(ctx, &rows, q, userID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *NotificationsRepositoryImpl) MarkAllRead(ctx context.Context, userID int64) error {
	const q = `UPDATE notifications SET ` + "`read`" + ` = TRUE WHERE user_id = ? AND ` + "`read`" + ` = FALSE`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}
