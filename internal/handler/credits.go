package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tailorly/tailor-server-go/internal/middleware"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/service"
)

type CreditsHandler struct {
	ledger   *service.LedgerService
	freeTier *service.FreeTierService
	limiter  *service.ActionLimiter
}

func NewCreditsHandler(ledger *service.LedgerService, freeTier *service.FreeTierService, limiter *service.ActionLimiter) *CreditsHandler {
	return &CreditsHandler{
		ledger:   ledger,
		freeTier: freeTier,
		limiter:  limiter,
	}
}

func (h *CreditsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Status)
	r.Get("/transactions", h.Transactions)
	r.Post("/packs", h.PurchasePack)

	return r
}

// GET /v1/credits
// Balance, free-tier standing, and current rate-limit usage in one call.
func (h *CreditsHandler) Status(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"creditBalance":  account.CreditBalance,
		"totalPurchased": account.TotalPurchased,
		"freeTier": map[string]any{
			"refinement": h.freeTier.StatusFor(account, model.CategoryRefinement),
			"reply":      h.freeTier.StatusFor(account, model.CategoryReply),
		},
		"rateLimits": h.limiter.Status(r.Context(), account.ID),
	})
}

// GET /v1/credits/transactions
func (h *CreditsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	pagination := ParsePagination(r)
	transactions, err := h.ledger.ListTransactions(r.Context(), account.ID, pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"limit":        pagination.Limit,
		"offset":       pagination.Offset,
	})
}

// POST /v1/credits/packs
// Trades credits for an extended refinement allowance.
func (h *CreditsHandler) PurchasePack(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	result, err := h.ledger.PurchaseRefinementPack(r.Context(), account.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"creditBalance":   result.NewBalance,
		"refineAllowance": result.NewAllowance,
	})
}
