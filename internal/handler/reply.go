package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tailorly/tailor-server-go/internal/ai"
	"github.com/tailorly/tailor-server-go/internal/config"
	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/middleware"
	"github.com/tailorly/tailor-server-go/internal/service"
	"github.com/tailorly/tailor-server-go/internal/util"
)

type ReplyHandler struct {
	convService *service.ConversationService
}

func NewReplyHandler(convService *service.ConversationService) *ReplyHandler {
	return &ReplyHandler{convService: convService}
}

func (h *ReplyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.GenerateReply)

	return r
}

// POST /v1/reply
func (h *ReplyHandler) GenerateReply(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		ConversationID *string `json:"conversationId"`
		Subject        *string `json:"subject"`
		EmailBody      string  `json:"emailBody"`
		Tone           string  `json:"tone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	emailBody, err := util.ValidateTextField("emailBody", req.EmailBody, config.MinEmailBodyLen, config.MaxEmailBodyLen)
	if err != nil {
		writeError(w, err)
		return
	}

	if !util.IsValidEnum(req.Tone, []string{string(ai.ToneFormal), string(ai.ToneFriendly), string(ai.ToneConcise)}) {
		writeError(w, apperrors.InvalidInput("tone", "must be one of formal, friendly, concise"))
		return
	}
	tone := ai.ReplyTone(req.Tone)
	if tone == "" {
		tone = ai.ToneFormal
	}

	result, receipt, err := h.convService.GenerateReply(r.Context(), account.ID, req.ConversationID, req.Subject, emailBody, tone)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": result.Conversation,
		"reply":        result.Reply,
		"billing":      formatBilling(receipt),
	})
}
