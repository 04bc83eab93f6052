package model

import (
	"time"
)

type Account struct {
	ID              string     `db:"id" json:"id"`
	ExternalUserID  string     `db:"external_user_id" json:"externalUserId"`
	APITokenHash    string     `db:"api_token_hash" json:"-"`
	CreditBalance   float64    `db:"credit_balance" json:"creditBalance"`
	TotalPurchased  float64    `db:"total_purchased" json:"totalPurchased"`
	RefineAllowance int        `db:"refine_allowance" json:"refineAllowance"`
	RefineUsed      int        `db:"refine_used" json:"refineUsed"`
	ReplyAllowance  int        `db:"reply_allowance" json:"replyAllowance"`
	ReplyUsed       int        `db:"reply_used" json:"replyUsed"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
	DisabledAt      *time.Time `db:"disabled_at" json:"disabledAt,omitempty"`
}

type CreateAccountParams struct {
	ExternalUserID  string
	APITokenHash    string
	RefineAllowance int
	ReplyAllowance  int
}
