package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Account, error)
	FindByExternalUserID(ctx context.Context, externalUserID string) (*model.Account, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	// DeductBalance atomically subtracts amount from the balance, but only if
	// the balance covers it. Returns the new balance, or nil when the balance
	// was insufficient. The single conditional UPDATE is what keeps
	// concurrent deductions from driving the balance negative.
	DeductBalance(ctx context.Context, id string, amount float64) (*float64, error)
	AddBalance(ctx context.Context, id string, amount float64) (float64, error)
	AddPurchasedCredits(ctx context.Context, id string, amount float64) (float64, error)
	IncrementRefineAllowance(ctx context.Context, id string, delta int) (int, error)
	// IncrementUsed bumps the lifetime free-tier usage counter for the given
	// category. Only refinement and reply have counters.
	IncrementUsed(ctx context.Context, id string, category model.ActionCategory) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts
		WHERE api_token_hash = $1 AND disabled_at IS NULL
	`, tokenHash)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByExternalUserID(ctx context.Context, externalUserID string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE external_user_id = $1
	`, externalUserID)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts (external_user_id, api_token_hash, credit_balance, total_purchased, refine_allowance, reply_allowance)
		VALUES ($1, $2, 0, 0, $3, $4)
		RETURNING *
	`, params.ExternalUserID, params.APITokenHash, params.RefineAllowance, params.ReplyAllowance)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) DeductBalance(ctx context.Context, id string, amount float64) (*float64, error) {
	var newBalance float64
	err := r.db.GetContext(ctx, &newBalance, `
		UPDATE accounts SET
			credit_balance = credit_balance - $2,
			updated_at = $3
		WHERE id = $1 AND credit_balance >= $2
		RETURNING credit_balance
	`, id, amount, time.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &newBalance, nil
}

func (r *accountRepo) AddBalance(ctx context.Context, id string, amount float64) (float64, error) {
	var newBalance float64
	err := r.db.GetContext(ctx, &newBalance, `
		UPDATE accounts SET
			credit_balance = credit_balance + $2,
			updated_at = $3
		WHERE id = $1
		RETURNING credit_balance
	`, id, amount, time.Now())
	return newBalance, err
}

func (r *accountRepo) AddPurchasedCredits(ctx context.Context, id string, amount float64) (float64, error) {
	var newBalance float64
	err := r.db.GetContext(ctx, &newBalance, `
		UPDATE accounts SET
			credit_balance = credit_balance + $2,
			total_purchased = total_purchased + $2,
			updated_at = $3
		WHERE id = $1
		RETURNING credit_balance
	`, id, amount, time.Now())
	return newBalance, err
}

func (r *accountRepo) IncrementRefineAllowance(ctx context.Context, id string, delta int) (int, error) {
	var allowance int
	err := r.db.GetContext(ctx, &allowance, `
		UPDATE accounts SET
			refine_allowance = refine_allowance + $2,
			updated_at = $3
		WHERE id = $1
		RETURNING refine_allowance
	`, id, delta, time.Now())
	return allowance, err
}

func (r *accountRepo) IncrementUsed(ctx context.Context, id string, category model.ActionCategory) error {
	var column string
	switch category {
	case model.CategoryRefinement:
		column = "refine_used"
	case model.CategoryReply:
		column = "reply_used"
	default:
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET `+column+` = `+column+` + 1, updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}
