package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// --- GeneralMiddleware (API全般) のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2, // 2 req/sec
		GeneralBurst:    5, // バースト5
		LoanOpsRate:     1, // 未使用
		LoanOpsBurst:    10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handlerCallCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.RemoteAddr = "192.0.2.1:51000"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1, // 1 req/sec
		GeneralBurst:    2, // バースト2
		LoanOpsRate:     1,
		LoanOpsBurst:    10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// バースト分（2回）は通る
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.RemoteAddr = "192.0.2.2:51000"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	// 3回目はレート制限に引っかかる
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.RemoteAddr = "192.0.2.2:51000"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
	if w.Result().Header.Get("Retry-After") == "" {
		t.Error("429 response should have Retry-After header")
	}
}

func TestRateLimitMiddleware_SeparateLimitersPerClient(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		LoanOpsRate:     1,
		LoanOpsBurst:    1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 接続元Aがバーストを使い切る
	reqA := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	reqA.RemoteAddr = "192.0.2.10:51000"
	handler.ServeHTTP(httptest.NewRecorder(), reqA)

	reqA2 := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	reqA2.RemoteAddr = "192.0.2.10:51000"
	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, reqA2)
	if wA.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("client A second request: status = %d, want 429", wA.Result().StatusCode)
	}

	// 接続元Bは独立して通る
	reqB := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	reqB.RemoteAddr = "192.0.2.11:51000"
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, reqB)
	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("client B: status = %d, want 200", wB.Result().StatusCode)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

// --- LoanOpsMiddleware (貸出・返却操作) のテスト ---

func TestLoanOpsMiddleware_IndependentOfGeneralLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		LoanOpsRate:     1,
		LoanOpsBurst:    1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	loanOps := rl.LoanOpsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// API全般のバーストを使い切っても貸出操作の枠は残っている
	reqG := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	reqG.RemoteAddr = "192.0.2.20:51000"
	general.ServeHTTP(httptest.NewRecorder(), reqG)

	reqL := httptest.NewRequest(http.MethodPost, "/api/loans", nil)
	reqL.RemoteAddr = "192.0.2.20:51000"
	wL := httptest.NewRecorder()
	loanOps.ServeHTTP(wL, reqL)

	if wL.Result().StatusCode != http.StatusOK {
		t.Errorf("loan ops request: status = %d, want 200", wL.Result().StatusCode)
	}
	if rl.LoanOpsLimiterCount() != 1 {
		t.Errorf("loan ops limiter count = %d, want 1", rl.LoanOpsLimiterCount())
	}
}

func TestClientIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.30:51000"
	if got := clientIPFromRequest(req); got != "192.0.2.30" {
		t.Errorf("clientIPFromRequest = %q, want %q", got, "192.0.2.30")
	}

	// ポートなしのRemoteAddrはそのまま返る
	req.RemoteAddr = "192.0.2.31"
	if got := clientIPFromRequest(req); got != "192.0.2.31" {
		t.Errorf("clientIPFromRequest = %q, want %q", got, "192.0.2.31")
	}
}
