package handler

import (
	"net/http"

	"github.com/tailorly/tailor-server-go/internal/httputil"
	"github.com/tailorly/tailor-server-go/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// formatBilling renders the billing block attached to every successful
// AI-backed response.
func formatBilling(receipt *service.Receipt) map[string]any {
	billing := map[string]any{
		"creditsRemaining": receipt.CreditsRemaining,
		"wasFree":          receipt.WasFree,
	}
	if receipt.FreeTier != nil {
		billing["freeTier"] = receipt.FreeTier
	}
	return billing
}
