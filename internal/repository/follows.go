package repository

import (
	"context"
	"time"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

type FollowsRepository interface {
	// Insert creates the follow edge; returns false when it already exists.
	Insert(ctx context.Context, followerID, followingID int64) (bool, error)
	Delete(ctx context.Context, followerID, followingID int64) error
	Exists(ctx context.Context, followerID, followingID int64) (bool, error)
	Followers(ctx context.Context, userID int64) ([]model.PublicUser, error)
	Following(ctx context.Context, userID int64) ([]model.PublicUser, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type FollowsRepositoryImpl struct {
	db *sqlx.DB
}

func NewFollowsRepository(db *sqlx.DB) *FollowsRepositoryImpl {
	return &FollowsRepositoryImpl{db: db}
}

var _ FollowsRepository = (*FollowsRepositoryImpl)(nil)

func (r *FollowsRepositoryImpl) Insert(ctx context.Context, followerID, followingID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO follows (follower_id, following_id, created_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE id = id
	`, followerID, followingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *FollowsRepositoryImpl) Delete(ctx context.Context, followerID, followingID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = ? AND following_id = ?
	`, followerID, followingID)
	return err
}

func (r *FollowsRepositoryImpl) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM follows WHERE follower_id = ? AND following_id = ?
	`, followerID, followingID)
	return n > 0, err
}

func (r *FollowsRepositoryImpl) Followers(ctx context.Context, userID int64) ([]model.PublicUser, error) {
	var rows []model.PublicUser
	err := r.db.SelectContext(ctx, &rows, `
		SELECT u.username, u.avatar_url
		  FROM follows f
		  JOIN users u ON u.id = f.follower_id
		 WHERE f.following_id = ?
		 ORDER BY f.created_at DESC
	`, userID)
	return rows, err
}

func (r *FollowsRepositoryImpl) Following(ctx context.Context, userID int64) ([]model.PublicUser, error) {
	var rows []model.PublicUser
	err := r.db.SelectContext(ctx, &rows, `
		SELECT u.username, u.avatar_url
		  FROM follows f
		  JOIN users u ON u.id = f.following_id
		 WHERE f.follower_id = ?
		 ORDER BY f.created_at DESC
	`, userID)
	return rows, err
}

func (r *FollowsRepositoryImpl) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM follows WHERE created_at >= ?`, since)
	return n, err
}
