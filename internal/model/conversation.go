package model

import (
	"time"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Conversation groups smart-reply exchanges for one account. The inbound
// email and the generated reply are appended as messages.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"accountId"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type Message struct {
	ID             string      `db:"id" json:"id"`
	ConversationID string      `db:"conversation_id" json:"conversationId"`
	Role           MessageRole `db:"role" json:"role"`
	Body           string      `db:"body" json:"body"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
}

type CreateMessageParams struct {
	ConversationID string
	Role           MessageRole
	Body           string
}
