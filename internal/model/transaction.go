package model

import (
	"time"
)

type TransactionKind string

const (
	TransactionDeduct   TransactionKind = "deduct"
	TransactionRefund   TransactionKind = "refund"
	TransactionPurchase TransactionKind = "purchase"
)

// CreditTransaction is the audit trail for balance mutations. The account
// balance column is the source of truth; these rows exist for support and
// reconciliation.
type CreditTransaction struct {
	ID           string          `db:"id" json:"id"`
	AccountID    string          `db:"account_id" json:"accountId"`
	Kind         TransactionKind `db:"kind" json:"kind"`
	Action       *ActionType     `db:"action" json:"action,omitempty"`
	Amount       float64         `db:"amount" json:"amount"`
	BalanceAfter float64         `db:"balance_after" json:"balanceAfter"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

type CreateTransactionParams struct {
	ID           string
	AccountID    string
	Kind         TransactionKind
	Action       *ActionType
	Amount       float64
	BalanceAfter float64
}

type PurchaseOrderStatus string

const (
	PurchaseOrderCompleted PurchaseOrderStatus = "completed"
)

// PurchaseOrder records one credit grant from the payment provider. The
// provider payment id is unique, which makes webhook replays idempotent.
type PurchaseOrder struct {
	ID        string              `db:"id" json:"id"`
	AccountID string              `db:"account_id" json:"accountId"`
	PaymentID string              `db:"payment_id" json:"paymentId"`
	Credits   float64             `db:"credits" json:"credits"`
	Status    PurchaseOrderStatus `db:"status" json:"status"`
	CreatedAt time.Time           `db:"created_at" json:"createdAt"`
}
