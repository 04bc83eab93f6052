package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorly/tailor-server-go/internal/ai"
	"github.com/tailorly/tailor-server-go/internal/config"
	"github.com/tailorly/tailor-server-go/internal/middleware"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/service"
)

type tailorFixture struct {
	handler     *TailorHandler
	accountRepo *mockAccountRepo
	appRepo     *mockApplicationRepo
	usageRepo   *mockUsageEventRepo
	limiter     *allowAllLimiter
	aiServer    *httptest.Server
}

// newTailorFixture wires the real service stack over in-memory repositories
// and a stub AI endpoint.
func newTailorFixture(t *testing.T, aiHandler http.HandlerFunc) *tailorFixture {
	t.Helper()

	aiServer := httptest.NewServer(aiHandler)
	t.Cleanup(aiServer.Close)

	aiClient := ai.NewClient(ai.Config{
		BaseURL: aiServer.URL,
		APIKey:  "test",
		Model:   "test",
		Timeout: 5 * time.Second,
	})

	accountRepo := &mockAccountRepo{account: &model.Account{
		ID:              "acc-1",
		ExternalUserID:  "ext-1",
		CreditBalance:   2.0,
		RefineAllowance: 5,
		ReplyAllowance:  3,
	}}
	appRepo := newMockApplicationRepo()
	usageRepo := &mockUsageEventRepo{}
	txRepo := &mockTransactionRepo{}
	limiter := &allowAllLimiter{}

	freeTier := service.NewFreeTierService(accountRepo, config.DefaultFreeTierPolicy())
	ledger := service.NewLedgerService(accountRepo, txRepo, config.DefaultCostTable(), freeTier)
	gateway := service.NewGateway(ledger, limiter, usageRepo, accountRepo)
	appService := service.NewApplicationService(gateway, aiClient, appRepo)

	return &tailorFixture{
		handler:     NewTailorHandler(appService),
		accountRepo: accountRepo,
		appRepo:     appRepo,
		usageRepo:   usageRepo,
		limiter:     limiter,
		aiServer:    aiServer,
	}
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	account := &model.Account{ID: "acc-1", CreditBalance: 2.0}
	ctx := context.WithValue(req.Context(), middleware.AccountContextKey, account)
	return req.WithContext(ctx)
}

func validTailorBody() string {
	payload := map[string]string{
		"jobDescription": strings.Repeat("We are hiring a backend engineer. ", 5),
		"profile":        strings.Repeat("Five years of Go and Postgres experience. ", 5),
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestTailorHandler(t *testing.T) {
	aiSuccess := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"cvBullets\":[\"Built APIs\"],\"coverLetter\":\"Dear team\",\"summary\":\"ok\"}"}}]}`))
	}

	t.Run("tailors an application and bills one credit", func(t *testing.T) {
		f := newTailorFixture(t, aiSuccess)

		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, authedRequest("POST", "/", validTailorBody()))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Application model.Application `json:"application"`
			Billing     struct {
				CreditsRemaining float64 `json:"creditsRemaining"`
				WasFree          bool    `json:"wasFree"`
			} `json:"billing"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, 1.0, resp.Billing.CreditsRemaining)
		assert.False(t, resp.Billing.WasFree)
		require.NotNil(t, resp.Application.CoverLetter)
		assert.Equal(t, "Dear team", *resp.Application.CoverLetter)
		require.NotNil(t, resp.Application.CVBullets)

		require.Len(t, f.usageRepo.events, 1)
		assert.Equal(t, model.ActionTailorFull, f.usageRepo.events[0].Action)
		assert.Equal(t, 1, f.limiter.recordCalls)
	})

	t.Run("short job description is rejected before billing", func(t *testing.T) {
		f := newTailorFixture(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("AI endpoint should not be reached")
		})

		body := `{"jobDescription":"too short","profile":"` + strings.Repeat("x", 100) + `"}`
		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, authedRequest("POST", "/", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)
	})

	t.Run("insufficient credits yields 402", func(t *testing.T) {
		f := newTailorFixture(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("AI endpoint should not be reached")
		})
		f.accountRepo.account.CreditBalance = 0.1

		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, authedRequest("POST", "/", validTailorBody()))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Contains(t, rec.Body.String(), "INSUFFICIENT_CREDITS")
	})

	t.Run("upstream failure refunds and yields 503", func(t *testing.T) {
		f := newTailorFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, authedRequest("POST", "/", validTailorBody()))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)
		assert.Empty(t, f.usageRepo.events)
	})

	t.Run("cv mode stores bullets only", func(t *testing.T) {
		f := newTailorFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[{"message":{"content":"{\"cvBullets\":[\"Shipped v2\"]}"}}]}`))
		})

		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, authedRequest("POST", "/cv", validTailorBody()))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Application model.Application `json:"application"`
			Billing     struct {
				CreditsRemaining float64 `json:"creditsRemaining"`
			} `json:"billing"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Nil(t, resp.Application.CoverLetter)
		assert.Equal(t, 1.25, resp.Billing.CreditsRemaining)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		f := newTailorFixture(t, aiSuccess)

		req := httptest.NewRequest("POST", "/", strings.NewReader(validTailorBody()))
		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
