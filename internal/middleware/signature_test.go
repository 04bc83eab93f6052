package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tailorly/tailor-server-go/internal/util"
)

func TestBillingSignatureMiddleware(t *testing.T) {
	secret := "webhook-secret"
	body := `{"type":"purchase.completed","data":{}}`

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Body must still be readable after verification.
		read, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, body, string(read))
		w.WriteHeader(http.StatusOK)
	})

	t.Run("accepts a valid signature", func(t *testing.T) {
		m := NewBillingSignatureMiddleware(secret)

		req := httptest.NewRequest("POST", "/webhooks/billing", strings.NewReader(body))
		req.Header.Set("X-Billing-Signature", util.HmacSHA256(secret, body))
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		m := NewBillingSignatureMiddleware(secret)

		req := httptest.NewRequest("POST", "/webhooks/billing", strings.NewReader(body))
		req.Header.Set("X-Billing-Signature", util.HmacSHA256(secret, `{"type":"other"}`))
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a missing signature header", func(t *testing.T) {
		m := NewBillingSignatureMiddleware(secret)

		req := httptest.NewRequest("POST", "/webhooks/billing", strings.NewReader(body))
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bypasses verification with empty secret", func(t *testing.T) {
		m := NewBillingSignatureMiddleware("")

		req := httptest.NewRequest("POST", "/webhooks/billing", strings.NewReader(body))
		rec := httptest.NewRecorder()

		m.Handler(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBodyLimitMiddleware(t *testing.T) {
	t.Run("rejects oversized content length", func(t *testing.T) {
		m := NewBodyLimitMiddleware(16)

		req := httptest.NewRequest("POST", "/test", strings.NewReader(strings.Repeat("a", 64)))
		rec := httptest.NewRecorder()

		m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("passes small bodies through", func(t *testing.T) {
		m := NewBodyLimitMiddleware(1024)

		req := httptest.NewRequest("POST", "/test", strings.NewReader("ok"))
		rec := httptest.NewRecorder()

		m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
