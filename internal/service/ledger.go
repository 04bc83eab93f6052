package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/config"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
)

// DeductResult is the outcome of a successful CheckAndDeduct.
type DeductResult struct {
	NewBalance float64
	Cost       float64
	WasFree    bool
	FreeTier   *FreeTierStatus
}

// LedgerService owns the spendable credit balance. All balance mutations go
// through here, and every storage failure is fatal to the operation: silently
// allowing an unpaid action or losing a refund would corrupt the ledger.
type LedgerService struct {
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository
	costs       config.CostTable
	freeTier    *FreeTierService
}

func NewLedgerService(
	accountRepo repository.AccountRepository,
	txRepo repository.TransactionRepository,
	costs config.CostTable,
	freeTier *FreeTierService,
) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		costs:       costs,
		freeTier:    freeTier,
	}
}

// CheckAndDeduct charges the account for one action. Free-tier-eligible
// actions consult the counter first; if the action is free no deduction
// happens and the current balance is returned unchanged. Otherwise the
// deduction is a single conditional UPDATE, so a concurrent request can never
// observe a negative balance.
func (s *LedgerService) CheckAndDeduct(ctx context.Context, accountID string, action model.ActionType) (*DeductResult, error) {
	cost, ok := s.costs.Cost(action)
	if !ok {
		return nil, apperrors.UnknownAction(string(action))
	}

	var freeStatus *FreeTierStatus
	if action.FreeTierEligible() {
		status, err := s.freeTier.Check(ctx, accountID, action.Category())
		if err != nil {
			return nil, err
		}
		freeStatus = status
		if status.IsFree() {
			account, err := s.accountRepo.FindByID(ctx, accountID)
			if err != nil {
				return nil, apperrors.Database(err)
			}
			if account == nil {
				return nil, apperrors.NotFound("Account")
			}
			return &DeductResult{
				NewBalance: account.CreditBalance,
				Cost:       0,
				WasFree:    true,
				FreeTier:   status,
			}, nil
		}
	}

	newBalance, err := s.accountRepo.DeductBalance(ctx, accountID, cost)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if newBalance == nil {
		available := 0.0
		if account, ferr := s.accountRepo.FindByID(ctx, accountID); ferr == nil && account != nil {
			available = account.CreditBalance
		}
		return nil, apperrors.InsufficientCredits(cost, available)
	}

	s.recordTransaction(ctx, accountID, model.TransactionDeduct, &action, -cost, *newBalance)

	log.Debug().
		Str("accountId", accountID).
		Str("action", string(action)).
		Float64("cost", cost).
		Float64("newBalance", *newBalance).
		Msg("credits deducted")

	return &DeductResult{
		NewBalance: *newBalance,
		Cost:       cost,
		WasFree:    false,
		FreeTier:   freeStatus,
	}, nil
}

// Refund adds the action's cost back after a failed paid call. Callers must
// invoke it at most once per deduction and never for free actions; the ledger
// does not deduplicate.
func (s *LedgerService) Refund(ctx context.Context, accountID string, action model.ActionType) error {
	cost, ok := s.costs.Cost(action)
	if !ok {
		return apperrors.UnknownAction(string(action))
	}

	newBalance, err := s.accountRepo.AddBalance(ctx, accountID, cost)
	if err != nil {
		return apperrors.Database(err)
	}

	s.recordTransaction(ctx, accountID, model.TransactionRefund, &action, cost, newBalance)

	log.Info().
		Str("accountId", accountID).
		Str("action", string(action)).
		Float64("amount", cost).
		Float64("newBalance", newBalance).
		Msg("credits refunded")

	return nil
}

// PackResult is the outcome of a refinement pack purchase.
type PackResult struct {
	NewBalance   float64
	NewAllowance int
}

// PurchaseRefinementPack trades credits for an extended refinement allowance.
// The deduction uses the same conditional update as action charges; if the
// allowance bump fails afterwards, the deduction is rolled back.
func (s *LedgerService) PurchaseRefinementPack(ctx context.Context, accountID string) (*PackResult, error) {
	policy := s.freeTier.Policy()

	newBalance, err := s.accountRepo.DeductBalance(ctx, accountID, policy.PackCost)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if newBalance == nil {
		available := 0.0
		if account, ferr := s.accountRepo.FindByID(ctx, accountID); ferr == nil && account != nil {
			available = account.CreditBalance
		}
		return nil, apperrors.InsufficientCredits(policy.PackCost, available)
	}

	allowance, err := s.accountRepo.IncrementRefineAllowance(ctx, accountID, policy.PackSize)
	if err != nil {
		if _, rerr := s.accountRepo.AddBalance(ctx, accountID, policy.PackCost); rerr != nil {
			log.Error().Err(rerr).
				Str("accountId", accountID).
				Float64("amount", policy.PackCost).
				Msg("failed to roll back pack deduction")
		}
		return nil, apperrors.Database(err)
	}

	s.recordTransaction(ctx, accountID, model.TransactionDeduct, nil, -policy.PackCost, *newBalance)

	log.Info().
		Str("accountId", accountID).
		Float64("cost", policy.PackCost).
		Int("newAllowance", allowance).
		Msg("refinement pack purchased")

	return &PackResult{
		NewBalance:   *newBalance,
		NewAllowance: allowance,
	}, nil
}

// GrantPurchasedCredits applies a credit purchase from the payment provider.
func (s *LedgerService) GrantPurchasedCredits(ctx context.Context, accountID string, credits float64) (float64, error) {
	newBalance, err := s.accountRepo.AddPurchasedCredits(ctx, accountID, credits)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	s.recordTransaction(ctx, accountID, model.TransactionPurchase, nil, credits, newBalance)
	return newBalance, nil
}

// ListTransactions returns the audit trail for an account.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]model.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	transactions, err := s.txRepo.FindByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return transactions, nil
}

// recordTransaction appends an audit row. The balance column is the source of
// truth, so a failed audit write is logged rather than surfaced.
func (s *LedgerService) recordTransaction(ctx context.Context, accountID string, kind model.TransactionKind, action *model.ActionType, amount, balanceAfter float64) {
	err := s.txRepo.Create(ctx, model.CreateTransactionParams{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Kind:         kind,
		Action:       action,
		Amount:       amount,
		BalanceAfter: balanceAfter,
	})
	if err != nil {
		log.Error().Err(err).
			Str("accountId", accountID).
			Str("kind", string(kind)).
			Float64("amount", amount).
			Msg("failed to record credit transaction")
	}
}
