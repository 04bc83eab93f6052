package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
)

type UsageEventRepository interface {
	Create(ctx context.Context, params model.CreateUsageEventParams) (*model.UsageEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type usageEventRepo struct {
	db sqlxDB
}

func NewUsageEventRepository(db *sqlx.DB) UsageEventRepository {
	return &usageEventRepo{db: db}
}

func (r *usageEventRepo) Create(ctx context.Context, params model.CreateUsageEventParams) (*model.UsageEvent, error) {
	var event model.UsageEvent
	err := r.db.GetContext(ctx, &event, `
		INSERT INTO usage_events (account_id, action, category, scope_key)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.AccountID, params.Action, params.Category, params.ScopeKey)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *usageEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM usage_events WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
