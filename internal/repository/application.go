package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
)

type ApplicationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Application, error)
	FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Application, error)
	CountByAccountID(ctx context.Context, accountID string) (int, error)
	Create(ctx context.Context, params model.CreateApplicationParams) (*model.Application, error)
	Update(ctx context.Context, id string, params model.UpdateApplicationParams) (*model.Application, error)
}

type applicationRepo struct {
	db sqlxDB
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.GetContext(ctx, &app, `
		SELECT * FROM applications WHERE id = $1
	`, id)
	return HandleNotFound(&app, err)
}

func (r *applicationRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.SelectContext(ctx, &apps, `
		SELECT * FROM applications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM applications WHERE account_id = $1
	`, accountID)
	return count, err
}

func (r *applicationRepo) Create(ctx context.Context, params model.CreateApplicationParams) (*model.Application, error) {
	var app model.Application
	err := r.db.GetContext(ctx, &app, `
		INSERT INTO applications (account_id, job_description, profile, cv_bullets, cover_letter)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.AccountID, params.JobDescription, params.Profile, params.CVBullets, params.CoverLetter)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) Update(ctx context.Context, id string, params model.UpdateApplicationParams) (*model.Application, error) {
	var app model.Application
	err := r.db.GetContext(ctx, &app, `
		UPDATE applications SET
			cv_bullets = COALESCE($2, cv_bullets),
			cover_letter = COALESCE($3, cover_letter),
			updated_at = $4
		WHERE id = $1
		RETURNING *
	`, id, params.CVBullets, params.CoverLetter, time.Now())
	return HandleNotFound(&app, err)
}
