package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rickd5991-stack/jenny-bot/internal/booking"
	"github.com/rickd5991-stack/jenny-bot/internal/dialogue"
	"github.com/rickd5991-stack/jenny-bot/internal/http/handlers"
	httpmiddleware "github.com/rickd5991-stack/jenny-bot/internal/http/middleware"
	"github.com/rickd5991-stack/jenny-bot/internal/session"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

const testSecret = "admin-secret"

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	logger := logging.Discard()
	ledger := booking.NewMemoryLedger()
	engine := dialogue.NewEngine(dialogue.Config{
		Sessions: session.NewMemoryStore(time.Minute, logger),
		Ledger:   ledger,
		Logger:   logger,
	})
	cfg := &Config{
		Logger:          logger,
		Callbacks:       handlers.NewCallbackHandler(engine, 60, logger),
		AdminBookings:   handlers.NewAdminBookingsHandler(ledger, logger),
		AdminAuthSecret: testSecret,
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterHealthReportsBackendFailure(t *testing.T) {
	router := newTestRouter(t, func(c *Config) {
		c.HealthCheck = func(context.Context) error { return errors.New("redis unreachable") }
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func postCallback(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterCallbackRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := postCallback(router, "/ussd/callback", url.Values{"sessionId": {"u1"}, "phoneNumber": {"+254712345678"}})
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "CON ") {
		t.Fatalf("unexpected ussd response %d %q", rr.Code, rr.Body.String())
	}

	rr = postCallback(router, "/voice/callback", url.Values{"sessionId": {"v1"}, "callerNumber": {"+254712345678"}, "isActive": {"1"}})
	if ct := rr.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("expected xml response, got %q", ct)
	}

	rr = postCallback(router, "/callback", url.Values{"sessionId": {"l1"}, "duration": {"3"}})
	if !strings.Contains(rr.Body.String(), "<Response>") {
		t.Fatalf("expected legacy voice framing, got %q", rr.Body.String())
	}

	rr = postCallback(router, "/ussd/callback", url.Values{"text": {"book"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without sessionId, got %d", rr.Code)
	}
}

func TestRouterCallbackRateLimit(t *testing.T) {
	router := newTestRouter(t, func(c *Config) {
		c.CallbackLimiter = httpmiddleware.NewRateLimiter(0, 1)
	})

	form := url.Values{"sessionId": {"u1"}, "phoneNumber": {"+254712345678"}}
	if rr := postCallback(router, "/ussd/callback", form); rr.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr.Code)
	}
	if rr := postCallback(router, "/ussd/callback", form); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/bookings", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings/availability?slot=kesho", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"is_available":true`) {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestRouterMetricsOptional(t *testing.T) {
	router := newTestRouter(t, func(c *Config) {
		c.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("jenny_up 1\n"))
		})
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Body.String() != "jenny_up 1\n" {
		t.Fatalf("unexpected metrics body %q", rr.Body.String())
	}
}
