package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

type CategoriesRepository interface {
	List(ctx context.Context) ([]model.KudosCategory, error)
	GetByCode(ctx context.Context, code string) (*model.KudosCategory, error)
}

type CategoriesRepositoryImpl struct {
	db *sqlx.DB
}

func NewCategoriesRepository(db *sqlx.DB) *CategoriesRepositoryImpl {
	return &CategoriesRepositoryImpl{db: db}
}

var _ CategoriesRepository = (*CategoriesRepositoryImpl)(nil)

func (r *CategoriesRepositoryImpl) List(ctx context.Context) ([]model.KudosCategory, error) {
	var rows []model.KudosCategory
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, code, label, icon, default_msg
		  FROM kudos_categories
		 ORDER BY label ASC
	`)
	return rows, err
}

func (r *CategoriesRepositoryImpl) GetByCode(ctx context.Context, code string) (*model.KudosCategory, error) {
	var c model.KudosCategory
	err := r.db.GetContext(ctx, &c, `
		SELECT id, code, label, icon, default_msg
		  FROM kudos_categories
		 WHERE code = ? LIMIT 1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
