package repository

import (
	"context"

	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

// ActivityFilters narrows the activity-log query; zero values are ignored.
type ActivityFilters struct {
	Kind      model.EventKind
	Actor     string
	Recipient string
}

// ActivityLogRepository is the append-only activity read model in ClickHouse.
type ActivityLogRepository interface {
	Insert(ctx context.Context, rec model.ActivityRecord) error
	List(ctx context.Context, f ActivityFilters, limit, offset int) ([]model.ActivityRecord, error)
}

type activityLogRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewActivityLogRepository(ch *sqlx.DB) ActivityLogRepository {
	return &activityLogRepository{ch: ch}
}

func (r *activityLogRepository) Insert(ctx context.Context, rec model.ActivityRecord) error {
	_, err := r.ch.ExecContext(ctx, `
		INSERT INTO kudos.activity_log (kind, actor, recipient, subject, permalink, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(rec.Kind), rec.Actor, rec.Recipient, rec.Subject, rec.Permalink, rec.Ts)
	return err
}

func (r *activityLogRepository) List(ctx context.Context, f ActivityFilters, limit, offset int) ([]model.ActivityRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT kind, actor, recipient, subject, permalink, ts
		FROM kudos.activity_log
		WHERE 1 = 1
	`
	var args []any

	if f.Kind != "" {
		q += " AND kind = ?"
		args = append(args, string(f.Kind))
	}
	if f.Actor != "" {
		q += " AND actor = ?"
		args = append(args, f.Actor)
	}
	if f.Recipient != "" {
		q += " AND recipient = ?"
		args = append(args, f.Recipient)
	}

	q += " ORDER BY ts DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.ActivityRecord
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
