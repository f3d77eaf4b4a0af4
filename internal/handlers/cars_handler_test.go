package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arabadanismani/backend/internal/auth"
	"github.com/arabadanismani/backend/internal/generator"
	"github.com/arabadanismani/backend/internal/metrics"
	"github.com/arabadanismani/backend/internal/ratelimit"
	"github.com/arabadanismani/backend/internal/services"
)

const (
	testSecret  = "handler-secret"
	preferences = `{"usage":"şehir içi","family_size":4,"fuel_type":"hibrit","gearbox":"otomatik","userId":"ignored"}`
)

type testServer struct {
	handler   http.Handler
	ledger    *services.MemoryLedger
	upstream  *httptest.Server
	reply     atomic.Value
	callCount atomic.Int32
}

func newTestServer(t *testing.T, initialGrant int) *testServer {
	t.Helper()

	ts := &testServer{ledger: services.NewMemoryLedger(initialGrant)}
	ts.reply.Store(`[{"model":"Toyota Corolla","why":"Ekonomik","segment":"C-Sedan"}]`)

	ts.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.callCount.Add(1)
		content, _ := json.Marshal(ts.reply.Load().(string))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + string(content) + `}}]}`))
	}))
	t.Cleanup(ts.upstream.Close)

	m := metrics.New()
	gen := generator.NewOpenAIClient("sk-test", "gpt-4.1-mini", generator.WithBaseURL(ts.upstream.URL))
	recommendations := services.NewRecommendationService(ts.ledger, gen, services.RecommendationOptions{
		Timeout:                 5 * time.Second,
		RefundOnUpstreamFailure: true,
		Metrics:                 m,
	})
	purchases := services.NewPurchaseService(ts.ledger, services.NewCatalog(map[string]int{"credits_5": 5}), nil, m)

	ts.handler = NewRouter(RouterConfig{
		Cars:     NewCarsHandler(recommendations, purchases, ts.ledger),
		Verifier: auth.NewHMACVerifier(testSecret),
		Limiter:  ratelimit.NewMemoryLimiter(ratelimit.DefaultPolicy),
		Metrics:  m,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := auth.IssueHMACToken(testSecret, userID, "", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) services.ErrorResponse {
	t.Helper()
	var body services.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 7)
	rec := ts.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecommend(t *testing.T) {
	t.Run("returns the array and debits one credit", func(t *testing.T) {
		ts := newTestServer(t, 7)
		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"model":"Toyota Corolla","why":"Ekonomik","segment":"C-Sedan"}]`, rec.Body.String())
		assert.Equal(t, "6", rec.Header().Get("X-Credits-Remaining"))

		balance, _ := ts.ledger.Balance("user-1")
		assert.Equal(t, 6, balance)
	})

	t.Run("wrapped answer is extracted", func(t *testing.T) {
		ts := newTestServer(t, 7)
		ts.reply.Store("Elbette:\n```json\n[{\"model\":\"Renault Clio\",\"why\":\"Az yakar\",\"segment\":\"B-Hatchback\"}]\n```")

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"model":"Renault Clio","why":"Az yakar","segment":"B-Hatchback"}]`, rec.Body.String())
	})

	t.Run("malformed answer refunds", func(t *testing.T) {
		ts := newTestServer(t, 7)
		ts.reply.Store("Üzgünüm, yardımcı olamam.")

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Invalid JSON from OpenAI", decodeError(t, rec).Error)

		balance, _ := ts.ledger.Balance("user-1")
		assert.Equal(t, 7, balance)
	})

	t.Run("upstream failure", func(t *testing.T) {
		ts := newTestServer(t, 7)
		ts.upstream.Close()

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Server error", decodeError(t, rec).Error)
	})

	t.Run("exhausted quota", func(t *testing.T) {
		ts := newTestServer(t, 0)

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "limit_exceeded", decodeError(t, rec).Error)
		assert.Equal(t, int32(0), ts.callCount.Load())
	})

	t.Run("missing token", func(t *testing.T) {
		ts := newTestServer(t, 7)

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "", preferences)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Error)
	})

	t.Run("21st request in a minute is throttled", func(t *testing.T) {
		ts := newTestServer(t, 100)

		for i := 0; i < 20; i++ {
			rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "too_many_requests", decodeError(t, rec).Error)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))

		balance, _ := ts.ledger.Balance("user-1")
		assert.Equal(t, 80, balance)
	})

	t.Run("throttling is by forwarded address", func(t *testing.T) {
		ts := newTestServer(t, 100)

		for i := 0; i < 21; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/cars/recommend", strings.NewReader(preferences))
			req.Header.Set("X-Real-IP", "198.51.100.7")
			ts.handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("oversized field is rejected", func(t *testing.T) {
		ts := newTestServer(t, 7)
		body := `{"usage":"` + strings.Repeat("a", 300) + `"}`

		rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_params", decodeError(t, rec).Error)
	})
}

func TestAddCredits(t *testing.T) {
	receipt := `{"platform":"android","packageName":"com.arabadanismani.app","productId":"credits_5","purchaseToken":"tok-1"}`

	t.Run("same receipt twice credits once", func(t *testing.T) {
		ts := newTestServer(t, 7)

		first := ts.do(t, http.MethodPost, "/api/cars/add-credits", "user-1", receipt)
		require.Equal(t, http.StatusOK, first.Code)
		assert.JSONEq(t, `{"ok":true,"alreadyProcessed":false,"total":12}`, first.Body.String())

		second := ts.do(t, http.MethodPost, "/api/cars/add-credits", "user-1", receipt)
		require.Equal(t, http.StatusOK, second.Code)
		assert.JSONEq(t, `{"ok":true,"alreadyProcessed":true,"total":12}`, second.Body.String())
	})

	t.Run("unknown product", func(t *testing.T) {
		ts := newTestServer(t, 7)
		body := strings.Replace(receipt, "credits_5", "credits_500", 1)

		rec := ts.do(t, http.MethodPost, "/api/cars/add-credits", "user-1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "unknown_product", decodeError(t, rec).Error)

		_, ok := ts.ledger.Balance("user-1")
		assert.False(t, ok)
	})

	t.Run("missing fields", func(t *testing.T) {
		ts := newTestServer(t, 7)

		rec := ts.do(t, http.MethodPost, "/api/cars/add-credits", "user-1", `{"platform":"android"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errResp := decodeError(t, rec)
		assert.Equal(t, "invalid_params", errResp.Error)
		assert.Contains(t, errResp.Details, "PurchaseToken")
	})

	t.Run("unknown fields", func(t *testing.T) {
		ts := newTestServer(t, 7)
		body := strings.Replace(receipt, `"platform"`, `"amount":999,"platform"`, 1)

		rec := ts.do(t, http.MethodPost, "/api/cars/add-credits", "user-1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad token is unauthorized", func(t *testing.T) {
		ts := newTestServer(t, 7)
		req := httptest.NewRequest(http.MethodPost, "/api/cars/add-credits", strings.NewReader(receipt))
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Error)
	})
}

func TestCredits(t *testing.T) {
	ts := newTestServer(t, 7)

	rec := ts.do(t, http.MethodGet, "/api/cars/credits", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"credits":7}`, rec.Body.String())
}

func TestMissingLedger(t *testing.T) {
	recommendations := services.NewRecommendationService(nil, nil, services.RecommendationOptions{})
	purchases := services.NewPurchaseService(nil, services.NewCatalog(map[string]int{"credits_5": 5}), nil, nil)
	handler := NewRouter(RouterConfig{
		Cars:     NewCarsHandler(recommendations, purchases, nil),
		Verifier: auth.NewHMACVerifier(testSecret),
	})
	ts := &testServer{handler: handler}

	rec := ts.do(t, http.MethodPost, "/api/cars/recommend", "user-1", preferences)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "firestore_not_initialized", decodeError(t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/cars/add-credits", "user-1",
		`{"platform":"ios","packageName":"app","productId":"credits_5","purchaseToken":"t"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server_error", decodeError(t, rec).Error)
}
