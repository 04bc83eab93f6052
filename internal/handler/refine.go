package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tailorly/tailor-server-go/internal/ai"
	"github.com/tailorly/tailor-server-go/internal/config"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/middleware"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/service"
	"github.com/tailorly/tailor-server-go/internal/util"
)

type RefineHandler struct {
	appService *service.ApplicationService
}

func NewRefineHandler(appService *service.ApplicationService) *RefineHandler {
	return &RefineHandler{appService: appService}
}

func (h *RefineHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/bullet", h.RefineBullet)
	r.Post("/cover-letter/shorten", h.ShortenCoverLetter)
	r.Post("/cover-letter/regenerate", h.RegenerateCoverLetter)

	return r
}

// POST /v1/refine/bullet
func (h *RefineHandler) RefineBullet(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		ApplicationID *string `json:"applicationId"`
		Bullet        string  `json:"bullet"`
		Instruction   string  `json:"instruction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	bullet, err := util.ValidateTextField("bullet", req.Bullet, config.MinBulletLen, config.MaxBulletLen)
	if err != nil {
		writeError(w, err)
		return
	}

	if !util.IsValidEnum(req.Instruction, []string{string(ai.BulletShorten), string(ai.BulletAddMetrics), string(ai.BulletRephrase)}) {
		writeError(w, apperrors.InvalidInput("instruction", "must be one of shorten, metrics, rephrase"))
		return
	}
	instruction := ai.BulletInstruction(req.Instruction)
	if instruction == "" {
		instruction = ai.BulletRephrase
	}

	refined, receipt, err := h.appService.RefineBullet(r.Context(), account.ID, req.ApplicationID, bullet, instruction)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bullet":  refined,
		"billing": formatBilling(receipt),
	})
}

// POST /v1/refine/cover-letter/shorten
func (h *RefineHandler) ShortenCoverLetter(w http.ResponseWriter, r *http.Request) {
	h.coverLetterOp(w, r, h.appService.ShortenCoverLetter)
}

// POST /v1/refine/cover-letter/regenerate
func (h *RefineHandler) RegenerateCoverLetter(w http.ResponseWriter, r *http.Request) {
	h.coverLetterOp(w, r, h.appService.RegenerateCoverLetter)
}

func (h *RefineHandler) coverLetterOp(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, accountID, applicationID string) (*model.Application, *service.Receipt, error),
) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		ApplicationID string `json:"applicationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if req.ApplicationID == "" {
		writeError(w, apperrors.MissingRequired("applicationId"))
		return
	}

	app, receipt, err := op(r.Context(), account.ID, req.ApplicationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"application": app,
		"billing":     formatBilling(receipt),
	})
}
