package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/ai"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
)

// ConversationService owns recruiter-email conversations and the smart-reply
// generation that feeds them.
type ConversationService struct {
	gateway  *Gateway
	ai       *ai.Client
	convRepo repository.ConversationRepository
}

func NewConversationService(gateway *Gateway, aiClient *ai.Client, convRepo repository.ConversationRepository) *ConversationService {
	return &ConversationService{
		gateway:  gateway,
		ai:       aiClient,
		convRepo: convRepo,
	}
}

// ReplyResult is a generated smart reply plus the conversation it was
// appended to.
type ReplyResult struct {
	Conversation *model.Conversation
	Reply        string
}

// GenerateReply drafts a reply to an inbound recruiter email. With a
// conversation id the exchange is appended to that thread; without one a new
// conversation is started. The inbound email and the generated reply are
// persisted as messages only after the call succeeds.
func (s *ConversationService) GenerateReply(ctx context.Context, accountID string, conversationID *string, subject *string, emailBody string, tone ai.ReplyTone) (*ReplyResult, *Receipt, error) {
	var conv *model.Conversation
	var err error

	if conversationID != nil {
		conv, err = s.getOwned(ctx, accountID, *conversationID)
		if err != nil {
			return nil, nil, err
		}
	} else {
		conv, err = s.convRepo.Create(ctx, accountID, subject)
		if err != nil {
			return nil, nil, apperrors.Database(err)
		}
	}

	var reply string
	receipt, err := s.gateway.Run(ctx, accountID, model.ActionSmartReply, &conv.ID, func(ctx context.Context) error {
		var callErr error
		reply, callErr = s.ai.GenerateReply(ctx, emailBody, tone)
		return callErr
	})
	if err != nil {
		return nil, nil, err
	}

	s.appendExchange(ctx, conv.ID, emailBody, reply)

	return &ReplyResult{Conversation: conv, Reply: reply}, receipt, nil
}

// appendExchange persists the inbound email and generated reply. The reply
// has already been returned and paid for, so persistence failures are logged
// rather than surfaced.
func (s *ConversationService) appendExchange(ctx context.Context, conversationID, emailBody, reply string) {
	if _, err := s.convRepo.CreateMessage(ctx, model.CreateMessageParams{
		ConversationID: conversationID,
		Role:           model.MessageRoleUser,
		Body:           emailBody,
	}); err != nil {
		log.Error().Err(err).
			Str("conversationId", conversationID).
			Msg("failed to persist inbound message")
		return
	}

	if _, err := s.convRepo.CreateMessage(ctx, model.CreateMessageParams{
		ConversationID: conversationID,
		Role:           model.MessageRoleAssistant,
		Body:           reply,
	}); err != nil {
		log.Error().Err(err).
			Str("conversationId", conversationID).
			Msg("failed to persist generated reply")
		return
	}

	if err := s.convRepo.Touch(ctx, conversationID); err != nil {
		log.Warn().Err(err).
			Str("conversationId", conversationID).
			Msg("failed to touch conversation")
	}
}

// List returns the account's conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, accountID string, limit, offset int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	convs, err := s.convRepo.FindByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return convs, nil
}

// Messages returns the messages of one owned conversation in chronological
// order.
func (s *ConversationService) Messages(ctx context.Context, accountID, conversationID string, limit, offset int) ([]model.Message, error) {
	if _, err := s.getOwned(ctx, accountID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	msgs, err := s.convRepo.FindMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return msgs, nil
}

func (s *ConversationService) getOwned(ctx context.Context, accountID, conversationID string) (*model.Conversation, error) {
	conv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if conv == nil || conv.AccountID != accountID {
		return nil, apperrors.NotFound("Conversation")
	}
	return conv, nil
}
