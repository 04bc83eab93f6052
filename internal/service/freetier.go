package service

import (
	"context"

	"github.com/tailorly/tailor-server-go/internal/config"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
)

// FreeTierStatus reports where an account stands against its allowance for
// one category.
type FreeTierStatus struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

func (s FreeTierStatus) IsFree() bool {
	return s.Remaining > 0
}

// FreeTierService grants a fixed number of refinement- and reply-category
// actions before the ledger starts charging. Allowances are lifetime counts
// per account, not windowed, and are extended only by pack purchases.
type FreeTierService struct {
	accountRepo repository.AccountRepository
	policy      config.FreeTierPolicy
}

func NewFreeTierService(accountRepo repository.AccountRepository, policy config.FreeTierPolicy) *FreeTierService {
	return &FreeTierService{
		accountRepo: accountRepo,
		policy:      policy,
	}
}

func (s *FreeTierService) Policy() config.FreeTierPolicy {
	return s.policy
}

// Check reports whether the next action of the category is free for the
// account. Categories without an allowance are never free.
func (s *FreeTierService) Check(ctx context.Context, accountID string, category model.ActionCategory) (*FreeTierStatus, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return s.StatusFor(account, category), nil
}

// StatusFor derives the free-tier status from an already-loaded account row.
func (s *FreeTierService) StatusFor(account *model.Account, category model.ActionCategory) *FreeTierStatus {
	var used, total int
	switch category {
	case model.CategoryRefinement:
		used, total = account.RefineUsed, account.RefineAllowance
	case model.CategoryReply:
		used, total = account.ReplyUsed, account.ReplyAllowance
	default:
		return &FreeTierStatus{}
	}

	remaining := total - used
	if remaining < 0 {
		remaining = 0
	}
	return &FreeTierStatus{
		Used:      used,
		Remaining: remaining,
		Total:     total,
	}
}
