package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
	"github.com/tailorly/tailor-server-go/internal/service"
)

// WebhookHandler receives events from the billing provider. The signature
// middleware has already authenticated the delivery by the time these run.
type WebhookHandler struct {
	billing *service.BillingService
}

func NewWebhookHandler(billing *service.BillingService) *WebhookHandler {
	return &WebhookHandler{billing: billing}
}

// POST /webhooks/billing
func (h *WebhookHandler) Billing(w http.ResponseWriter, r *http.Request) {
	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	switch event.Type {
	case "account.provisioned":
		h.accountProvisioned(w, r, event.Data)
	case "purchase.completed":
		h.purchaseCompleted(w, r, event.Data)
	default:
		// Unknown event kinds are acknowledged so the provider stops
		// retrying them.
		log.Warn().Str("type", event.Type).Msg("ignoring unknown billing event")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (h *WebhookHandler) accountProvisioned(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var payload struct {
		ExternalUserID string `json:"externalUserId"`
		APIToken       string `json:"apiToken"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid event data"})
		return
	}
	if payload.ExternalUserID == "" || payload.APIToken == "" {
		writeError(w, apperrors.MissingRequired("externalUserId and apiToken"))
		return
	}

	account, created, err := h.billing.ProvisionAccount(r.Context(), payload.ExternalUserID, payload.APIToken)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"accountId": account.ID,
		"created":   created,
	})
}

func (h *WebhookHandler) purchaseCompleted(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var payload struct {
		ExternalUserID string  `json:"externalUserId"`
		PaymentID      string  `json:"paymentId"`
		Credits        float64 `json:"credits"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid event data"})
		return
	}
	if payload.ExternalUserID == "" || payload.PaymentID == "" {
		writeError(w, apperrors.MissingRequired("externalUserId and paymentId"))
		return
	}

	order, err := h.billing.CompletePurchase(r.Context(), payload.ExternalUserID, payload.PaymentID, payload.Credits)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orderId": order.ID,
		"status":  order.Status,
	})
}
