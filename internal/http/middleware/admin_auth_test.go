package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(secret, authHeader string) (*httptest.ResponseRecorder, bool) {
	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func signedAdminToken(t *testing.T, method jwt.SigningMethod, secret string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "ops"}
	if !expires.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAdminJWTRejects(t *testing.T) {
	future := time.Now().Add(5 * time.Minute)
	tests := []struct {
		name   string
		secret string
		header string
	}{
		{"missing secret", "", "Bearer " + signedAdminToken(t, jwt.SigningMethodHS256, "secret", future)},
		{"missing header", "secret", ""},
		{"not bearer", "secret", "Basic abc"},
		{"empty bearer", "secret", "Bearer "},
		{"wrong secret", "secret", "Bearer " + signedAdminToken(t, jwt.SigningMethodHS256, "wrong", future)},
		{"expired", "secret", "Bearer " + signedAdminToken(t, jwt.SigningMethodHS256, "secret", time.Now().Add(-time.Minute))},
		{"no expiry", "secret", "Bearer " + signedAdminToken(t, jwt.SigningMethodHS256, "secret", time.Time{})},
		{"other hmac alg", "secret", "Bearer " + signedAdminToken(t, jwt.SigningMethodHS512, "secret", future)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := serveAdmin(tt.secret, tt.header)
			if called {
				t.Fatal("handler should not be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+signedAdminToken(t, jwt.SigningMethodHS256, "secret", time.Now().Add(5*time.Minute)))
	rec := httptest.NewRecorder()

	called := false
	AdminJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected admin claims in context")
		}
		if claims.Subject != "ops" {
			t.Fatalf("unexpected subject %q", claims.Subject)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
