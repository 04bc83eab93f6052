package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/ai"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/repository"
)

// ApplicationService owns tailored job applications and runs the AI-backed
// operations that produce their content. Every AI call goes through the
// gateway, so rate limiting, credit deduction, and refund-on-failure apply
// uniformly.
type ApplicationService struct {
	gateway *Gateway
	ai      *ai.Client
	appRepo repository.ApplicationRepository
}

func NewApplicationService(gateway *Gateway, aiClient *ai.Client, appRepo repository.ApplicationRepository) *ApplicationService {
	return &ApplicationService{
		gateway: gateway,
		ai:      aiClient,
		appRepo: appRepo,
	}
}

func actionForTailorMode(mode ai.TailorMode) model.ActionType {
	switch mode {
	case ai.TailorModeCV:
		return model.ActionTailorCV
	case ai.TailorModeCover:
		return model.ActionTailorCover
	default:
		return model.ActionTailorFull
	}
}

// Tailor creates an application from the supplied inputs and fills it with
// generated content. The row is created before the AI call so the usage event
// can reference it; if the call fails the inputs survive as a draft and the
// caller keeps their credits.
func (s *ApplicationService) Tailor(ctx context.Context, accountID, jobDescription, profile string, mode ai.TailorMode) (*model.Application, *Receipt, error) {
	app, err := s.appRepo.Create(ctx, model.CreateApplicationParams{
		AccountID:      accountID,
		JobDescription: jobDescription,
		Profile:        profile,
	})
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}

	var result *ai.TailorResult
	receipt, err := s.gateway.Run(ctx, accountID, actionForTailorMode(mode), &app.ID, func(ctx context.Context) error {
		var callErr error
		result, callErr = s.ai.TailorApplication(ctx, jobDescription, profile, mode)
		return callErr
	})
	if err != nil {
		return nil, nil, err
	}

	params := model.UpdateApplicationParams{}
	if len(result.CVBullets) > 0 {
		raw, merr := json.Marshal(result.CVBullets)
		if merr != nil {
			return nil, nil, apperrors.Internal("failed to encode cv bullets").WithCause(merr)
		}
		bullets := json.RawMessage(raw)
		params.CVBullets = &bullets
	}
	if result.CoverLetter != "" {
		params.CoverLetter = &result.CoverLetter
	}

	updated, err := s.appRepo.Update(ctx, app.ID, params)
	if err != nil {
		// Credits are spent and the output exists; losing the persist is an
		// operator problem, not a billing one.
		log.Error().Err(err).
			Str("applicationId", app.ID).
			Msg("failed to persist tailoring output")
		return nil, nil, apperrors.Database(err)
	}

	return updated, receipt, nil
}

// RefineBullet rewrites a single CV bullet under one edit instruction. The
// bullet text comes from the caller rather than stored state, so edits work
// on drafts the user has already modified client-side. applicationID, when
// given, scopes the usage event after an ownership check.
func (s *ApplicationService) RefineBullet(ctx context.Context, accountID string, applicationID *string, bullet string, instruction ai.BulletInstruction) (string, *Receipt, error) {
	if applicationID != nil {
		if _, err := s.getOwned(ctx, accountID, *applicationID); err != nil {
			return "", nil, err
		}
	}

	var refined string
	receipt, err := s.gateway.Run(ctx, accountID, model.ActionRefineBullet, applicationID, func(ctx context.Context) error {
		var callErr error
		refined, callErr = s.ai.RefineBullet(ctx, bullet, instruction)
		return callErr
	})
	if err != nil {
		return "", nil, err
	}

	return refined, receipt, nil
}

// ShortenCoverLetter compresses the stored cover letter of an application and
// persists the result.
func (s *ApplicationService) ShortenCoverLetter(ctx context.Context, accountID, applicationID string) (*model.Application, *Receipt, error) {
	app, err := s.getOwned(ctx, accountID, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if app.CoverLetter == nil || *app.CoverLetter == "" {
		return nil, nil, apperrors.ValidationError("Application has no cover letter to shorten")
	}

	var shortened string
	receipt, err := s.gateway.Run(ctx, accountID, model.ActionCoverShorten, &applicationID, func(ctx context.Context) error {
		var callErr error
		shortened, callErr = s.ai.ShortenCoverLetter(ctx, *app.CoverLetter)
		return callErr
	})
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.appRepo.Update(ctx, applicationID, model.UpdateApplicationParams{CoverLetter: &shortened})
	if err != nil {
		log.Error().Err(err).
			Str("applicationId", applicationID).
			Msg("failed to persist shortened cover letter")
		return nil, nil, apperrors.Database(err)
	}

	return updated, receipt, nil
}

// RegenerateCoverLetter writes a fresh cover letter from the application's
// stored job description and profile, replacing the current one.
func (s *ApplicationService) RegenerateCoverLetter(ctx context.Context, accountID, applicationID string) (*model.Application, *Receipt, error) {
	app, err := s.getOwned(ctx, accountID, applicationID)
	if err != nil {
		return nil, nil, err
	}

	var cover string
	receipt, err := s.gateway.Run(ctx, accountID, model.ActionCoverRegenerate, &applicationID, func(ctx context.Context) error {
		var callErr error
		cover, callErr = s.ai.RegenerateCoverLetter(ctx, app.JobDescription, app.Profile)
		return callErr
	})
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.appRepo.Update(ctx, applicationID, model.UpdateApplicationParams{CoverLetter: &cover})
	if err != nil {
		log.Error().Err(err).
			Str("applicationId", applicationID).
			Msg("failed to persist regenerated cover letter")
		return nil, nil, apperrors.Database(err)
	}

	return updated, receipt, nil
}

// Get returns one application owned by the account.
func (s *ApplicationService) Get(ctx context.Context, accountID, applicationID string) (*model.Application, error) {
	return s.getOwned(ctx, accountID, applicationID)
}

// List returns the account's applications, newest first.
func (s *ApplicationService) List(ctx context.Context, accountID string, limit, offset int) ([]model.Application, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	apps, err := s.appRepo.FindByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return apps, nil
}

// getOwned loads an application and verifies ownership. A foreign
// application reads as not found so ids cannot be probed.
func (s *ApplicationService) getOwned(ctx context.Context, accountID, applicationID string) (*model.Application, error) {
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if app == nil || app.AccountID != accountID {
		return nil, apperrors.NotFound("Application")
	}
	return app, nil
}
