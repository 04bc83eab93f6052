package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
)

type TransactionRepository interface {
	Create(ctx context.Context, params model.CreateTransactionParams) error
	FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.CreditTransaction, error)
	WithTx(tx *sqlx.Tx) TransactionRepository
}

type transactionRepo struct {
	db sqlxDB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) WithTx(tx *sqlx.Tx) TransactionRepository {
	return &transactionRepo{db: tx}
}

func (r *transactionRepo) Create(ctx context.Context, params model.CreateTransactionParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, account_id, kind, action, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, params.ID, params.AccountID, params.Kind, params.Action, params.Amount, params.BalanceAfter)
	return err
}

func (r *transactionRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.CreditTransaction, error) {
	var transactions []model.CreditTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM credit_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
