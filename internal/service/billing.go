package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/config"
	"github.com/tailorly/tailor-server-go/internal/database"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
	"github.com/tailorly/tailor-server-go/internal/util"
)

// BillingService processes events from the billing provider's webhook.
// Both event kinds are idempotent: the provider retries deliveries, so a
// replayed event must not create a second account or grant credits twice.
type BillingService struct {
	db          *database.DB
	accountRepo repository.AccountRepository
	orderRepo   repository.PurchaseOrderRepository
	txRepo      repository.TransactionRepository
	policy      config.FreeTierPolicy
}

func NewBillingService(
	db *database.DB,
	accountRepo repository.AccountRepository,
	orderRepo repository.PurchaseOrderRepository,
	txRepo repository.TransactionRepository,
	policy config.FreeTierPolicy,
) *BillingService {
	return &BillingService{
		db:          db,
		accountRepo: accountRepo,
		orderRepo:   orderRepo,
		txRepo:      txRepo,
		policy:      policy,
	}
}

// ProvisionAccount creates an account for an external user, seeded with the
// default free-tier allowances. The API token arrives in plaintext from the
// provisioning system and only its hash is stored. Re-delivery of the same
// event returns the existing account unchanged.
func (s *BillingService) ProvisionAccount(ctx context.Context, externalUserID, apiToken string) (*model.Account, bool, error) {
	existing, err := s.accountRepo.FindByExternalUserID(ctx, externalUserID)
	if err != nil {
		return nil, false, apperrors.Database(err)
	}
	if existing != nil {
		log.Debug().
			Str("externalUserId", externalUserID).
			Str("accountId", existing.ID).
			Msg("provision replay, account already exists")
		return existing, false, nil
	}

	account, err := s.accountRepo.Create(ctx, model.CreateAccountParams{
		ExternalUserID:  externalUserID,
		APITokenHash:    util.HashToken(apiToken),
		RefineAllowance: s.policy.RefineAllowance,
		ReplyAllowance:  s.policy.ReplyAllowance,
	})
	if err != nil {
		// Lost a race with a concurrent delivery of the same event.
		if raced, ferr := s.accountRepo.FindByExternalUserID(ctx, externalUserID); ferr == nil && raced != nil {
			return raced, false, nil
		}
		return nil, false, apperrors.Database(err)
	}

	log.Info().
		Str("externalUserId", externalUserID).
		Str("accountId", account.ID).
		Msg("account provisioned")

	return account, true, nil
}

// CompletePurchase credits an account for a completed payment. The order row,
// the balance update, and the audit transaction commit atomically; the unique
// payment id makes replays a no-op.
func (s *BillingService) CompletePurchase(ctx context.Context, externalUserID, paymentID string, credits float64) (*model.PurchaseOrder, error) {
	if credits <= 0 {
		return nil, apperrors.InvalidInput("credits", "must be positive")
	}

	account, err := s.accountRepo.FindByExternalUserID(ctx, externalUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}

	var order *model.PurchaseOrder
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		orderRepo := s.orderRepo.WithTx(tx)

		existing, err := orderRepo.FindByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Debug().
				Str("paymentId", paymentID).
				Str("accountId", account.ID).
				Msg("purchase replay, payment already applied")
			order = existing
			return nil
		}

		created, err := orderRepo.Create(ctx, uuid.NewString(), account.ID, paymentID, credits)
		if err != nil {
			return err
		}

		newBalance, err := s.accountRepo.WithTx(tx).AddPurchasedCredits(ctx, account.ID, credits)
		if err != nil {
			return err
		}

		if err := s.txRepo.WithTx(tx).Create(ctx, model.CreateTransactionParams{
			ID:           uuid.NewString(),
			AccountID:    account.ID,
			Kind:         model.TransactionPurchase,
			Amount:       credits,
			BalanceAfter: newBalance,
		}); err != nil {
			return err
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("paymentId", paymentID).
		Float64("credits", credits).
		Msg("purchase applied")

	return order, nil
}
