package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
)

type PurchaseOrderRepository interface {
	Create(ctx context.Context, id, accountID, paymentID string, credits float64) (*model.PurchaseOrder, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*model.PurchaseOrder, error)
	WithTx(tx *sqlx.Tx) PurchaseOrderRepository
}

type purchaseOrderRepo struct {
	db sqlxDB
}

func NewPurchaseOrderRepository(db *sqlx.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) WithTx(tx *sqlx.Tx) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: tx}
}

func (r *purchaseOrderRepo) Create(ctx context.Context, id, accountID, paymentID string, credits float64) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := r.db.GetContext(ctx, &order, `
		INSERT INTO purchase_orders (id, account_id, payment_id, credits, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, id, accountID, paymentID, credits, model.PurchaseOrderCompleted)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseOrderRepo) FindByPaymentID(ctx context.Context, paymentID string) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := r.db.GetContext(ctx, &order, `
		SELECT * FROM purchase_orders WHERE payment_id = $1
	`, paymentID)
	return HandleNotFound(&order, err)
}
