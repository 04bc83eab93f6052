package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
	"github.com/tailorly/tailor-server-go/internal/service"
)

type mockAccountRepo struct {
	account *model.Account
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.account != nil && m.account.ID == id {
		copied := *m.account
		return &copied, nil
	}
	return nil, nil
}

func (m *mockAccountRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Account, error) {
	return nil, nil
}

func (m *mockAccountRepo) FindByExternalUserID(ctx context.Context, externalUserID string) (*model.Account, error) {
	if m.account != nil && m.account.ExternalUserID == externalUserID {
		copied := *m.account
		return &copied, nil
	}
	return nil, nil
}

func (m *mockAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	m.account = &model.Account{
		ID:              "acc-created",
		ExternalUserID:  params.ExternalUserID,
		APITokenHash:    params.APITokenHash,
		RefineAllowance: params.RefineAllowance,
		ReplyAllowance:  params.ReplyAllowance,
	}
	copied := *m.account
	return &copied, nil
}

func (m *mockAccountRepo) DeductBalance(ctx context.Context, id string, amount float64) (*float64, error) {
	if m.account == nil || m.account.ID != id || m.account.CreditBalance < amount {
		return nil, nil
	}
	m.account.CreditBalance -= amount
	balance := m.account.CreditBalance
	return &balance, nil
}

func (m *mockAccountRepo) AddBalance(ctx context.Context, id string, amount float64) (float64, error) {
	m.account.CreditBalance += amount
	return m.account.CreditBalance, nil
}

func (m *mockAccountRepo) AddPurchasedCredits(ctx context.Context, id string, amount float64) (float64, error) {
	m.account.CreditBalance += amount
	m.account.TotalPurchased += amount
	return m.account.CreditBalance, nil
}

func (m *mockAccountRepo) IncrementRefineAllowance(ctx context.Context, id string, delta int) (int, error) {
	m.account.RefineAllowance += delta
	return m.account.RefineAllowance, nil
}

func (m *mockAccountRepo) IncrementUsed(ctx context.Context, id string, category model.ActionCategory) error {
	switch category {
	case model.CategoryRefinement:
		m.account.RefineUsed++
	case model.CategoryReply:
		m.account.ReplyUsed++
	}
	return nil
}

func (m *mockAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return m
}

type mockApplicationRepo struct {
	apps   map[string]*model.Application
	nextID int
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*model.Application)}
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	if app, ok := m.apps[id]; ok {
		copied := *app
		return &copied, nil
	}
	return nil, nil
}

func (m *mockApplicationRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Application, error) {
	var out []model.Application
	for _, app := range m.apps {
		if app.AccountID == accountID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	apps, _ := m.FindByAccountID(ctx, accountID, 0, 0)
	return len(apps), nil
}

func (m *mockApplicationRepo) Create(ctx context.Context, params model.CreateApplicationParams) (*model.Application, error) {
	m.nextID++
	app := &model.Application{
		ID:             fmt.Sprintf("app-%d", m.nextID),
		AccountID:      params.AccountID,
		JobDescription: params.JobDescription,
		Profile:        params.Profile,
		CVBullets:      params.CVBullets,
		CoverLetter:    params.CoverLetter,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.apps[app.ID] = app
	copied := *app
	return &copied, nil
}

func (m *mockApplicationRepo) Update(ctx context.Context, id string, params model.UpdateApplicationParams) (*model.Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	if params.CVBullets != nil {
		app.CVBullets = params.CVBullets
	}
	if params.CoverLetter != nil {
		app.CoverLetter = params.CoverLetter
	}
	app.UpdatedAt = time.Now()
	copied := *app
	return &copied, nil
}

type mockConversationRepo struct {
	convs    map[string]*model.Conversation
	messages []model.CreateMessageParams
	nextID   int
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{convs: make(map[string]*model.Conversation)}
}

func (m *mockConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	if conv, ok := m.convs[id]; ok {
		copied := *conv
		return &copied, nil
	}
	return nil, nil
}

func (m *mockConversationRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, conv := range m.convs {
		if conv.AccountID == accountID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (m *mockConversationRepo) Create(ctx context.Context, accountID string, subject *string) (*model.Conversation, error) {
	m.nextID++
	conv := &model.Conversation{
		ID:        fmt.Sprintf("conv-%d", m.nextID),
		AccountID: accountID,
		Subject:   subject,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.convs[conv.ID] = conv
	copied := *conv
	return &copied, nil
}

func (m *mockConversationRepo) Touch(ctx context.Context, id string) error {
	if conv, ok := m.convs[id]; ok {
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (m *mockConversationRepo) CreateMessage(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	m.messages = append(m.messages, params)
	return &model.Message{
		ID:             fmt.Sprintf("msg-%d", len(m.messages)),
		ConversationID: params.ConversationID,
		Role:           params.Role,
		Body:           params.Body,
	}, nil
}

func (m *mockConversationRepo) FindMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	var out []model.Message
	for i, params := range m.messages {
		if params.ConversationID == conversationID {
			out = append(out, model.Message{
				ID:             fmt.Sprintf("msg-%d", i+1),
				ConversationID: params.ConversationID,
				Role:           params.Role,
				Body:           params.Body,
			})
		}
	}
	return out, nil
}

type mockUsageEventRepo struct {
	events []model.CreateUsageEventParams
}

func (m *mockUsageEventRepo) Create(ctx context.Context, params model.CreateUsageEventParams) (*model.UsageEvent, error) {
	m.events = append(m.events, params)
	return &model.UsageEvent{ID: "evt-1", AccountID: params.AccountID, Action: params.Action}, nil
}

func (m *mockUsageEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type mockTransactionRepo struct {
	records []model.CreateTransactionParams
}

func (m *mockTransactionRepo) Create(ctx context.Context, params model.CreateTransactionParams) error {
	m.records = append(m.records, params)
	return nil
}

func (m *mockTransactionRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.CreditTransaction, error) {
	return nil, nil
}

func (m *mockTransactionRepo) WithTx(tx *sqlx.Tx) repository.TransactionRepository {
	return m
}

// allowAllLimiter satisfies service.Limiter without touching Redis.
type allowAllLimiter struct {
	recordCalls int
}

func (l *allowAllLimiter) Check(ctx context.Context, accountID string, category model.ActionCategory) *service.Decision {
	return &service.Decision{Allowed: true}
}

func (l *allowAllLimiter) Record(ctx context.Context, accountID string, category model.ActionCategory) error {
	l.recordCalls++
	return nil
}
