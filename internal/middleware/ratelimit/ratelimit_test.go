package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimiterMiddleware(t *testing.T) {
	rl, err := NewLimiter("2-M")
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	limited := 0
	rl.OnLimit = func(*http.Request) { limited++ }

	h := rl.Middleware(func(r *http.Request) string { return r.RemoteAddr })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	send := func(method, addr string) int {
		r := httptest.NewRequest(method, "/payments", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	tests := []struct {
		name   string
		method string
		addr   string
		want   int
	}{
		{"first post", http.MethodPost, "a", http.StatusNoContent},
		{"second post", http.MethodPost, "a", http.StatusNoContent},
		{"third post is limited", http.MethodPost, "a", http.StatusTooManyRequests},
		{"get is never limited", http.MethodGet, "a", http.StatusNoContent},
		{"other client has its own budget", http.MethodPost, "b", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := send(tt.method, tt.addr); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}

	if rl.Hits() != 1 || limited != 1 {
		t.Errorf("hits = %d, callbacks = %d, want 1", rl.Hits(), limited)
	}
}

func TestNewLimiterRejectsBadRate(t *testing.T) {
	if _, err := NewLimiter("lots"); err == nil {
		t.Fatal("expected error")
	}
}
