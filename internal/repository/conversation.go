package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
)

type ConversationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Conversation, error)
	Create(ctx context.Context, accountID string, subject *string) (*model.Conversation, error)
	Touch(ctx context.Context, id string) error
	CreateMessage(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	FindMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
}

type conversationRepo struct {
	db sqlxDB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations WHERE id = $1
	`, id)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE account_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepo) Create(ctx context.Context, accountID string, subject *string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations (account_id, subject)
		VALUES ($1, $2)
		RETURNING *
	`, accountID, subject)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) Touch(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET updated_at = $2 WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *conversationRepo) CreateMessage(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (conversation_id, role, body)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.ConversationID, params.Role, params.Body)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *conversationRepo) FindMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
