package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tailorly/tailor-server-go/internal/ai"
	"github.com/tailorly/tailor-server-go/internal/config"
	"github.com/tailorly/tailor-server-go/internal/middleware"
	"github.com/tailorly/tailor-server-go/internal/service"
	"github.com/tailorly/tailor-server-go/internal/util"
)

type TailorHandler struct {
	appService *service.ApplicationService
}

func NewTailorHandler(appService *service.ApplicationService) *TailorHandler {
	return &TailorHandler{appService: appService}
}

func (h *TailorHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.tailor(ai.TailorModeFull))
	r.Post("/cv", h.tailor(ai.TailorModeCV))
	r.Post("/cover-letter", h.tailor(ai.TailorModeCover))

	return r
}

// POST /v1/tailor
// POST /v1/tailor/cv
// POST /v1/tailor/cover-letter
func (h *TailorHandler) tailor(mode ai.TailorMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := middleware.GetAccount(r.Context())
		if account == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}

		var req struct {
			JobDescription string `json:"jobDescription"`
			Profile        string `json:"profile"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}

		jobDescription, err := util.ValidateTextField("jobDescription", req.JobDescription, config.MinJobDescriptionLen, config.MaxJobDescriptionLen)
		if err != nil {
			writeError(w, err)
			return
		}
		profile, err := util.ValidateTextField("profile", req.Profile, config.MinProfileLen, config.MaxProfileLen)
		if err != nil {
			writeError(w, err)
			return
		}

		app, receipt, err := h.appService.Tailor(r.Context(), account.ID, jobDescription, profile, mode)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"application": app,
			"billing":     formatBilling(receipt),
		})
	}
}
