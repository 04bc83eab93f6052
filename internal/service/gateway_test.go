package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorly/tailor-server-go/internal/ai"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/model"
)

type gatewayFixture struct {
	gateway     *Gateway
	accountRepo *mockAccountRepo
	txRepo      *mockTransactionRepo
	usageRepo   *mockUsageEventRepo
	limiter     *mockLimiter
}

func newGatewayFixture(account *model.Account) *gatewayFixture {
	accountRepo := &mockAccountRepo{account: account}
	txRepo := &mockTransactionRepo{}
	usageRepo := &mockUsageEventRepo{}
	limiter := &mockLimiter{}
	ledger := newTestLedger(accountRepo, txRepo)

	return &gatewayFixture{
		gateway:     NewGateway(ledger, limiter, usageRepo, accountRepo),
		accountRepo: accountRepo,
		txRepo:      txRepo,
		usageRepo:   usageRepo,
		limiter:     limiter,
	}
}

func TestGatewayRun(t *testing.T) {
	ctx := context.Background()

	t.Run("successful paid action records usage and window entry", func(t *testing.T) {
		f := newGatewayFixture(testAccount(2.0))
		scopeKey := "app-1"

		called := false
		receipt, err := f.gateway.Run(ctx, "acc-1", model.ActionTailorFull, &scopeKey, func(ctx context.Context) error {
			called = true
			return nil
		})
		require.NoError(t, err)

		assert.True(t, called)
		assert.Equal(t, 1.0, receipt.CreditsRemaining)
		assert.False(t, receipt.WasFree)

		require.Len(t, f.usageRepo.events, 1)
		assert.Equal(t, model.ActionTailorFull, f.usageRepo.events[0].Action)
		assert.Equal(t, model.CategoryGeneration, f.usageRepo.events[0].Category)
		require.NotNil(t, f.usageRepo.events[0].ScopeKey)
		assert.Equal(t, "app-1", *f.usageRepo.events[0].ScopeKey)

		assert.Equal(t, 1, f.limiter.recordCalls)
		// Generation has no free-tier counter.
		assert.Empty(t, f.accountRepo.incrementUsedCalls)
	})

	t.Run("free action bumps the counter and reports post-action status", func(t *testing.T) {
		account := testAccount(2.0)
		account.RefineUsed = 4
		f := newGatewayFixture(account)

		receipt, err := f.gateway.Run(ctx, "acc-1", model.ActionRefineBullet, nil, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)

		assert.True(t, receipt.WasFree)
		require.NotNil(t, receipt.FreeTier)
		assert.Equal(t, 5, receipt.FreeTier.Used)
		assert.Equal(t, 0, receipt.FreeTier.Remaining)

		assert.Equal(t, []model.ActionCategory{model.CategoryRefinement}, f.accountRepo.incrementUsedCalls)
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)
	})

	t.Run("rate-limit denial blocks before any deduction", func(t *testing.T) {
		f := newGatewayFixture(testAccount(2.0))
		f.limiter.decision = &Decision{
			Allowed:    false,
			Limit:      30,
			Window:     "hour",
			RetryAfter: 90 * time.Second,
		}

		called := false
		_, err := f.gateway.Run(ctx, "acc-1", model.ActionTailorFull, nil, func(ctx context.Context) error {
			called = true
			return nil
		})
		require.Error(t, err)

		assert.False(t, called)
		assert.Equal(t, apperrors.ErrCodeRateLimitExceeded, apperrors.GetCode(err))
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)

		appErr, _ := apperrors.AsAppError(err)
		details := appErr.Details.(map[string]any)
		assert.Equal(t, int64(90), details["retryAfterSeconds"])
	})

	t.Run("failed paid call refunds and records nothing", func(t *testing.T) {
		f := newGatewayFixture(testAccount(2.0))

		_, err := f.gateway.Run(ctx, "acc-1", model.ActionTailorFull, nil, func(ctx context.Context) error {
			return fmt.Errorf("%w: connection refused", ai.ErrUnavailable)
		})
		require.Error(t, err)

		assert.Equal(t, apperrors.ErrCodeUpstreamUnavailable, apperrors.GetCode(err))
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)
		assert.Empty(t, f.usageRepo.events)
		assert.Zero(t, f.limiter.recordCalls)

		// Deduct and refund both left audit rows.
		require.Len(t, f.txRepo.records, 2)
		assert.Equal(t, model.TransactionDeduct, f.txRepo.records[0].Kind)
		assert.Equal(t, model.TransactionRefund, f.txRepo.records[1].Kind)
	})

	t.Run("unusable output maps to invalid-response", func(t *testing.T) {
		f := newGatewayFixture(testAccount(2.0))

		_, err := f.gateway.Run(ctx, "acc-1", model.ActionTailorFull, nil, func(ctx context.Context) error {
			return fmt.Errorf("%w: missing cover letter", ai.ErrInvalidResponse)
		})
		require.Error(t, err)

		assert.Equal(t, apperrors.ErrCodeUpstreamInvalidResponse, apperrors.GetCode(err))
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)
	})

	t.Run("failed free call does not refund", func(t *testing.T) {
		account := testAccount(2.0)
		account.RefineUsed = 0
		f := newGatewayFixture(account)

		_, err := f.gateway.Run(ctx, "acc-1", model.ActionRefineBullet, nil, func(ctx context.Context) error {
			return fmt.Errorf("%w: timeout", ai.ErrUnavailable)
		})
		require.Error(t, err)

		// No deduction happened, so no refund row either.
		assert.Empty(t, f.txRepo.records)
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)
		// The counter only moves on success.
		assert.Empty(t, f.accountRepo.incrementUsedCalls)
	})

	t.Run("insufficient credits surfaces before the call", func(t *testing.T) {
		f := newGatewayFixture(testAccount(0.1))

		called := false
		_, err := f.gateway.Run(ctx, "acc-1", model.ActionTailorFull, nil, func(ctx context.Context) error {
			called = true
			return nil
		})
		require.Error(t, err)

		assert.False(t, called)
		assert.Equal(t, apperrors.ErrCodeInsufficientCredits, apperrors.GetCode(err))
	})

	t.Run("unknown action is rejected up front", func(t *testing.T) {
		f := newGatewayFixture(testAccount(2.0))

		_, err := f.gateway.Run(ctx, "acc-1", model.ActionType("bogus"), nil, func(ctx context.Context) error {
			return nil
		})
		assert.Equal(t, apperrors.ErrCodeUnknownAction, apperrors.GetCode(err))
	})

	t.Run("usage event failure does not fail the action", func(t *testing.T) {
		f := newGatewayFixture(testAccount(2.0))
		f.usageRepo.createErr = assert.AnError

		receipt, err := f.gateway.Run(ctx, "acc-1", model.ActionTailorFull, nil, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, receipt.CreditsRemaining)
	})
}
