package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, password_hash, role, bot_secret, avatar_url, created_at`

type UsersRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByBotSecret(ctx context.Context, secret string) (*model.User, error)
	CountAll(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type UsersRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsersRepository(db *sqlx.DB) *UsersRepositoryImpl {
	return &UsersRepositoryImpl{db: db}
}

var _ UsersRepository = (*UsersRepositoryImpl)(nil)

func (r *UsersRepositoryImpl) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepositoryImpl) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE username = ? LIMIT 1
	`, username)
}

func (r *UsersRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE id = ? LIMIT 1
	`, id)
}

// GetByBotSecret authenticates automation accounts; only BOT rows carry a secret.
func (r *UsersRepositoryImpl) GetByBotSecret(ctx context.Context, secret string) (*model.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		  FROM users
		 WHERE role = 'BOT' AND bot_secret = ? LIMIT 1
	`, secret)
}

func (r *UsersRepositoryImpl) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (r *UsersRepositoryImpl) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE created_at >= ?`, since)
	return n, err
}
