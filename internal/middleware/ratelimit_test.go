package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitCapsPerIP(t *testing.T) {
	t.Parallel()
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/jobs", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := do("203.0.113.1:1000"); got != http.StatusCreated {
		t.Fatalf("first request = %d", got)
	}
	if got := do("203.0.113.1:1001"); got != http.StatusCreated {
		t.Fatalf("second request = %d", got)
	}
	if got := do("203.0.113.1:1002"); got != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", got)
	}
	// A different client is unaffected.
	if got := do("203.0.113.9:1000"); got != http.StatusCreated {
		t.Fatalf("other client = %d", got)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	t.Parallel()
	handler := RateLimit(1, 10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", nil)
	req.RemoteAddr = "203.0.113.1:1000"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rr.Code)
	}

	time.Sleep(15 * time.Millisecond)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("request after window = %d, want 200", rr.Code)
	}
}

func TestRateLimitKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{name: "forwarded ip", header: "203.0.113.1", remoteAddr: "198.51.100.10:1234", want: "203.0.113.1"},
		{name: "first of several", header: " 203.0.113.1 , 198.51.100.2 ", remoteAddr: "198.51.100.10:1234", want: "203.0.113.1"},
		{name: "garbage forwarded falls back", header: "invalid", remoteAddr: "198.51.100.10:1234", want: "198.51.100.10"},
		{name: "no header uses remote host", header: "", remoteAddr: "198.51.100.10:1234", want: "198.51.100.10"},
		{name: "ipv6 forwarded", header: "2001:db8::1", remoteAddr: net.JoinHostPort("2001:db8::2", "443"), want: "2001:db8::1"},
		{name: "remote without port", header: "invalid", remoteAddr: "203.0.113.1", want: "203.0.113.1"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := rateLimitKey(req); got != tc.want {
				t.Fatalf("rateLimitKey() = %q, want %q", got, tc.want)
			}
		})
	}
}
