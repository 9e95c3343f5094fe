package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	cases := []struct {
		name        string
		allowed     []string
		origin      string
		wantOrigin  string
		wantCookies bool
	}{
		{name: "listed dashboard origin", allowed: []string{"https://portal.example"}, origin: "https://portal.example", wantOrigin: "https://portal.example", wantCookies: true},
		{name: "unknown origin", allowed: []string{"https://portal.example"}, origin: "https://evil.example"},
		{name: "wildcard drops credentials", allowed: []string{" ", "*"}, origin: "http://localhost:3000", wantOrigin: "*"},
		{name: "listed origin keeps credentials next to wildcard", allowed: []string{"*", "https://portal.example"}, origin: "https://portal.example", wantOrigin: "https://portal.example", wantCookies: true},
		{name: "no origin header", allowed: []string{"*"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := CORS(tc.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if !called {
				t.Fatalf("expected handler to be called")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tc.wantCookies {
				t.Fatalf("allow credentials = %v, want %v", got, tc.wantCookies)
			}
		})
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	called := false
	handler := CORS([]string{"https://portal.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodOptions, "/diet-plans/plan-1/status", nil)
	req.Header.Set("Origin", "https://portal.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if called {
		t.Fatalf("expected preflight not to reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("expected allow methods header")
	}
}
