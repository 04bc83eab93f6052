package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorly/tailor-server-go/internal/ai"
	"github.com/tailorly/tailor-server-go/internal/config"
	"github.com/tailorly/tailor-server-go/internal/model"
	"github.com/tailorly/tailor-server-go/internal/service"
)

type refineFixture struct {
	handler     *RefineHandler
	accountRepo *mockAccountRepo
	usageRepo   *mockUsageEventRepo
}

func newRefineFixture(t *testing.T, aiHandler http.HandlerFunc) *refineFixture {
	t.Helper()

	aiServer := httptest.NewServer(aiHandler)
	t.Cleanup(aiServer.Close)

	aiClient := ai.NewClient(ai.Config{
		BaseURL: aiServer.URL,
		APIKey:  "test",
		Model:   "test",
		Timeout: 5 * time.Second,
	})

	// No free allowance so refinements hit the paid path.
	accountRepo := &mockAccountRepo{account: &model.Account{
		ID:            "acc-1",
		CreditBalance: 2.0,
	}}
	usageRepo := &mockUsageEventRepo{}

	freeTier := service.NewFreeTierService(accountRepo, config.DefaultFreeTierPolicy())
	ledger := service.NewLedgerService(accountRepo, &mockTransactionRepo{}, config.DefaultCostTable(), freeTier)
	gateway := service.NewGateway(ledger, &allowAllLimiter{}, usageRepo, accountRepo)
	appService := service.NewApplicationService(gateway, aiClient, newMockApplicationRepo())

	return &refineFixture{
		handler:     NewRefineHandler(appService),
		accountRepo: accountRepo,
		usageRepo:   usageRepo,
	}
}

func TestRefineBulletHandler(t *testing.T) {
	t.Run("unknown instruction is rejected before billing", func(t *testing.T) {
		f := newRefineFixture(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("AI endpoint should not be reached")
		})

		body := `{"bullet":"Maintained internal services","instruction":"embellish"}`
		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, authedRequest("POST", "/bullet", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
		assert.Equal(t, 2.0, f.accountRepo.account.CreditBalance)
		assert.Empty(t, f.usageRepo.events)
	})

	t.Run("missing instruction defaults to rephrase", func(t *testing.T) {
		f := newRefineFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[{"message":{"content":"{\"bullet\":\"Kept internal services running\"}"}}]}`))
		})

		body := `{"bullet":"Maintained internal services"}`
		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, authedRequest("POST", "/bullet", body))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Kept internal services running")
		assert.Equal(t, 1.75, f.accountRepo.account.CreditBalance)

		require.Len(t, f.usageRepo.events, 1)
		assert.Equal(t, model.ActionRefineBullet, f.usageRepo.events[0].Action)
	})
}
