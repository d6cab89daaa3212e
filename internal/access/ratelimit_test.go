package access

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterEnforcesBoundary(t *testing.T) {
	l := NewRateLimiter()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	const limit = 5
	for i := 0; i < limit; i++ {
		rr := httptest.NewRecorder()
		if !l.Allow(rr, req, "1.2.3.4:auth.login", limit, time.Minute) {
			t.Fatalf("hit %d should be within budget", i+1)
		}
	}
	rr := httptest.NewRecorder()
	if l.Allow(rr, req, "1.2.3.4:auth.login", limit, time.Minute) {
		t.Fatalf("hit %d should be rejected", limit+1)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	l := NewRateLimiter()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	for i := 0; i < 3; i++ {
		if !l.Allow(httptest.NewRecorder(), req, "1.2.3.4:auth.login", 3, time.Minute) {
			t.Fatalf("hit %d should pass", i+1)
		}
	}
	if l.Allow(httptest.NewRecorder(), req, "1.2.3.4:auth.login", 3, time.Minute) {
		t.Fatal("fourth hit on the same key should be rejected")
	}
	// A different IP and a different endpoint each count separately.
	if !l.Allow(httptest.NewRecorder(), req, "5.6.7.8:auth.login", 3, time.Minute) {
		t.Fatal("other IP must not share the budget")
	}
	if !l.Allow(httptest.NewRecorder(), req, "1.2.3.4:auth.register", 3, time.Minute) {
		t.Fatal("other endpoint must not share the budget")
	}
}

func TestAuthRateLimitBudgets(t *testing.T) {
	cases := []struct {
		endpoint EndpointID
		limit    int
	}{
		{EndpointAuthLogin, 10},
		{EndpointAuthRegister, 6},
		{EndpointAuthLogout, 20},
		{EndpointAuthMe, 20},
	}
	for _, tc := range cases {
		limit, window := AuthRateLimit(tc.endpoint)
		if limit != tc.limit {
			t.Fatalf("%s: limit = %d, want %d", tc.endpoint, limit, tc.limit)
		}
		if window != time.Minute {
			t.Fatalf("%s: window = %s, want 1m", tc.endpoint, window)
		}
	}
}
