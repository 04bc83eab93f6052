package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/util"
)

// BillingSignatureMiddleware authenticates webhook deliveries from the
// billing provider. The signature is an HMAC-SHA256 of the raw body; the body
// is restored for the handler after verification.
type BillingSignatureMiddleware struct {
	secret string
}

func NewBillingSignatureMiddleware(secret string) *BillingSignatureMiddleware {
	return &BillingSignatureMiddleware{secret: secret}
}

func (m *BillingSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			log.Warn().Msg("billing signature verification bypassed: BILLING_WEBHOOK_SECRET is not configured")
			next.ServeHTTP(w, r)
			return
		}

		signature := r.Header.Get("X-Billing-Signature")
		if signature == "" {
			log.Warn().Msg("billing signature middleware: missing signature header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing signature",
			})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("billing signature middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		computed := util.HmacSHA256(m.secret, string(body))
		if !util.ConstantTimeEqual(computed, signature) {
			log.Warn().Msg("billing signature middleware: invalid signature")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid signature",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
