package model

import (
	"time"
)

// UsageEvent is an append-only record of one completed gated action. Nothing
// reads events back for accounting (rate limiting counts in Redis, the free
// tier on the account row), so aged events can be pruned freely.
type UsageEvent struct {
	ID        string         `db:"id" json:"id"`
	AccountID string         `db:"account_id" json:"accountId"`
	Action    ActionType     `db:"action" json:"action"`
	Category  ActionCategory `db:"category" json:"category"`
	ScopeKey  *string        `db:"scope_key" json:"scopeKey,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

type CreateUsageEventParams struct {
	AccountID string
	Action    ActionType
	Category  ActionCategory
	ScopeKey  *string
}
