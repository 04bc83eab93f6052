package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/ai"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
)

// Receipt summarizes the billing outcome of one gated action, returned to the
// caller alongside the domain result.
type Receipt struct {
	Action           model.ActionType
	CreditsRemaining float64
	WasFree          bool
	FreeTier         *FreeTierStatus
}

// Limiter is the rate-limiting surface the gateway needs.
type Limiter interface {
	Check(ctx context.Context, accountID string, category model.ActionCategory) *Decision
	Record(ctx context.Context, accountID string, category model.ActionCategory) error
}

// Gateway runs the mandatory sequence around every AI-backed operation:
// rate-limit check, credit deduction (free-tier aware), the upstream call,
// refund on failure, and usage recording on success. Deduct-before-call with
// refund-on-failure is the correctness core: the caller is never charged for
// a call that produced no usable output.
type Gateway struct {
	ledger      *LedgerService
	limiter     Limiter
	usageRepo   repository.UsageEventRepository
	accountRepo repository.AccountRepository
}

func NewGateway(
	ledger *LedgerService,
	limiter Limiter,
	usageRepo repository.UsageEventRepository,
	accountRepo repository.AccountRepository,
) *Gateway {
	return &Gateway{
		ledger:      ledger,
		limiter:     limiter,
		usageRepo:   usageRepo,
		accountRepo: accountRepo,
	}
}

// Run executes call under the gating sequence for the given account and
// action. scopeKey optionally ties the usage event to a domain object
// (application or conversation id) for auditing.
//
// Error mapping: a denied window returns RATE_LIMIT_EXCEEDED, a short balance
// returns INSUFFICIENT_CREDITS, an upstream transport failure returns
// UPSTREAM_UNAVAILABLE, and well-formed-but-unusable output returns
// UPSTREAM_INVALID_RESPONSE. In the two upstream cases a paid deduction has
// already been refunded before the error is returned.
func (g *Gateway) Run(
	ctx context.Context,
	accountID string,
	action model.ActionType,
	scopeKey *string,
	call func(ctx context.Context) error,
) (*Receipt, error) {
	if !action.Valid() {
		return nil, apperrors.UnknownAction(string(action))
	}

	decision := g.limiter.Check(ctx, accountID, action.Category())
	if !decision.Allowed {
		return nil, apperrors.RateLimited(decision.Limit, decision.Window, int64(decision.RetryAfter.Seconds()))
	}

	deduction, err := g.ledger.CheckAndDeduct(ctx, accountID, action)
	if err != nil {
		return nil, err
	}

	if err := call(ctx); err != nil {
		if !deduction.WasFree {
			if refundErr := g.ledger.Refund(ctx, accountID, action); refundErr != nil {
				// The user has paid for nothing; this needs operator
				// attention, but the caller still sees the upstream failure.
				log.Error().Err(refundErr).
					Str("accountId", accountID).
					Str("action", string(action)).
					Msg("refund after failed call did not apply")
			}
		}
		if errors.Is(err, ai.ErrInvalidResponse) {
			return nil, apperrors.UpstreamInvalidResponse(err)
		}
		return nil, apperrors.UpstreamUnavailable(err)
	}

	g.recordUsage(ctx, accountID, action, scopeKey, deduction.WasFree)

	receipt := &Receipt{
		Action:           action,
		CreditsRemaining: deduction.NewBalance,
		WasFree:          deduction.WasFree,
		FreeTier:         deduction.FreeTier,
	}
	if deduction.WasFree && deduction.FreeTier != nil {
		// Report the state after this action, not before it.
		receipt.FreeTier = &FreeTierStatus{
			Used:      deduction.FreeTier.Used + 1,
			Remaining: deduction.FreeTier.Remaining - 1,
			Total:     deduction.FreeTier.Total,
		}
	}

	return receipt, nil
}

// recordUsage appends the usage event, bumps the free-tier counter, and adds
// the rate-limit window entry. These run strictly after success; failures
// here only under-count, so they are logged rather than surfaced.
func (g *Gateway) recordUsage(ctx context.Context, accountID string, action model.ActionType, scopeKey *string, wasFree bool) {
	category := action.Category()

	if _, err := g.usageRepo.Create(ctx, model.CreateUsageEventParams{
		AccountID: accountID,
		Action:    action,
		Category:  category,
		ScopeKey:  scopeKey,
	}); err != nil {
		log.Error().Err(err).
			Str("accountId", accountID).
			Str("action", string(action)).
			Msg("failed to record usage event")
	}

	if action.FreeTierEligible() {
		if err := g.accountRepo.IncrementUsed(ctx, accountID, category); err != nil {
			log.Error().Err(err).
				Str("accountId", accountID).
				Str("category", string(category)).
				Msg("failed to increment free-tier counter")
		}
	}

	if err := g.limiter.Record(ctx, accountID, category); err != nil {
		log.Warn().Err(err).
			Str("accountId", accountID).
			Str("category", string(category)).
			Msg("failed to record rate-limit window entry")
	}

	log.Info().
		Str("accountId", accountID).
		Str("action", string(action)).
		Bool("wasFree", wasFree).
		Msg("gated action completed")
}
