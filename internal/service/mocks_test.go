package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
)

// mockAccountRepo keeps one account in memory and mutates it the way the
// real repository would.
type mockAccountRepo struct {
	account *model.Account

	deductErr             error
	addErr                error
	incrementAllowanceErr error
	incrementUsedErr      error

	incrementUsedCalls []model.ActionCategory
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.account != nil && m.account.ID == id {
		copied := *m.account
		return &copied, nil
	}
	return nil, nil
}

func (m *mockAccountRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Account, error) {
	if m.account != nil && m.account.APITokenHash == tokenHash && m.account.DisabledAt == nil {
		copied := *m.account
		return &copied, nil
	}
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
	if m.account != nil && m.account.ExternalUserID == params.ExternalUserID {
		return nil, errors.New("duplicate external user id")
	}
	m.account = &model.Account{
		ID:              "acc-created",
		ExternalUserID:  params.ExternalUserID,
		APITokenHash:    params.APITokenHash,
		RefineAllowance: params.RefineAllowance,
		ReplyAllowance:  params.ReplyAllowance,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	copied := *m.account
	return &copied, nil
}

func (m *mockAccountRepo) DeductBalance(ctx context.Context, id string, amount float64) (*float64, error) {
	if m.deductErr != nil {
		return nil, m.deductErr
	}
	if m.account == nil || m.account.ID != id || m.account.CreditBalance < amount {
		return nil, nil
	}
	m.account.CreditBalance -= amount
	balance := m.account.CreditBalance
	return &balance, nil
}

func (m *mockAccountRepo) AddBalance(ctx context.Context, id string, amount float64) (float64, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.account.CreditBalance += amount
	return m.account.CreditBalance, nil
}

func (m *mockAccountRepo) AddPurchasedCredits(ctx context.Context, id string, amount float64) (float64, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.account.CreditBalance += amount
	m.account.TotalPurchased += amount
	return m.account.CreditBalance, nil
}

func (m *mockAccountRepo) IncrementRefineAllowance(ctx context.Context, id string, delta int) (int, error) {
	if m.incrementAllowanceErr != nil {
		return 0, m.incrementAllowanceErr
	}
	m.account.RefineAllowance += delta
	return m.account.RefineAllowance, nil
}

func (m *mockAccountRepo) IncrementUsed(ctx context.Context, id string, category model.ActionCategory) error {
	if m.incrementUsedErr != nil {
		return m.incrementUsedErr
	}
	m.incrementUsedCalls = append(m.incrementUsedCalls, category)
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

type mockTransactionRepo struct {
	createErr error
	records   []model.CreateTransactionParams
}

func (m *mockTransactionRepo) Create(ctx context.Context, params model.CreateTransactionParams) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.records = append(m.records, params)
	return nil
}

func (m *mockTransactionRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.CreditTransaction, error) {
	var out []model.CreditTransaction
	for _, r := range m.records {
		if r.AccountID == accountID {
			out = append(out, model.CreditTransaction{
				ID:           r.ID,
				AccountID:    r.AccountID,
				Kind:         r.Kind,
				Action:       r.Action,
				Amount:       r.Amount,
				BalanceAfter: r.BalanceAfter,
			})
		}
	}
	return out, nil
}

func (m *mockTransactionRepo) WithTx(tx *sqlx.Tx) repository.TransactionRepository {
	return m
}

type mockUsageEventRepo struct {
	createErr error
	events    []model.CreateUsageEventParams
}

func (m *mockUsageEventRepo) Create(ctx context.Context, params model.CreateUsageEventParams) (*model.UsageEvent, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.events = append(m.events, params)
	return &model.UsageEvent{
		ID:        "evt-1",
		AccountID: params.AccountID,
		Action:    params.Action,
		Category:  params.Category,
		ScopeKey:  params.ScopeKey,
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockUsageEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// mockLimiter returns a canned decision and counts recordings.
type mockLimiter struct {
	decision    *Decision
	recordErr   error
	recordCalls int
}

func (m *mockLimiter) Check(ctx context.Context, accountID string, category model.ActionCategory) *Decision {
	if m.decision != nil {
		return m.decision
	}
	return &Decision{Allowed: true}
}

func (m *mockLimiter) Record(ctx context.Context, accountID string, category model.ActionCategory) error {
	m.recordCalls++
	return m.recordErr
}
