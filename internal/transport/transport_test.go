package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(baseURL, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Retry = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	return c
}

func TestResolve(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"https://api.example.com", "/v1/chat", "https://api.example.com/v1/chat"},
		{"https://api.example.com/", "/v1/chat", "https://api.example.com/v1/chat"},
		{"https://api.example.com/proxy", "/v1/chat", "https://api.example.com/proxy/v1/chat"},
		{"https://api.example.com/proxy/", "v1/chat", "https://api.example.com/proxy/v1/chat"},
	}
	for _, c := range cases {
		cl, err := New(c.base, nil)
		if err != nil {
			t.Fatalf("New(%q): %v", c.base, err)
		}
		if got := cl.Resolve(c.path); got != c.want {
			t.Fatalf("Resolve(%q, %q) = %q, want %q", c.base, c.path, got, c.want)
		}
	}
}

func TestDoJSON(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("request id header missing")
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("user agent header missing")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, raw, err := c.DoJSON(context.Background(), http.MethodPost, "/v1/test", nil, map[string]any{"model": "m"})
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("body = %s", raw)
	}
	if gotBody["model"] != "m" {
		t.Fatalf("request body = %v", gotBody)
	}
}

func TestDoJSONRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, _, err := c.DoJSON(context.Background(), http.MethodPost, "/v1/test", nil, nil)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("hits = %d, want 3", hits.Load())
	}
}

func TestDoJSONDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, raw, err := c.DoJSON(context.Background(), http.MethodPost, "/v1/test", nil, nil)

	var se *HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want HTTPStatusError", err)
	}
	if se.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", se.StatusCode)
	}
	if string(raw) != `{"error":{"message":"bad"}}` {
		t.Fatalf("body = %s", raw)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d, want 1", hits.Load())
	}
}

func TestDoJSONExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, _, err := c.DoJSON(context.Background(), http.MethodPost, "/v1/test", nil, nil)

	var se *HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want 429 HTTPStatusError", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("hits = %d, want all attempts used", hits.Load())
	}
}

func TestDoStreamHandsBackLiveBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: one\n\ndata: [DONE]\n\n"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	resp, err := c.DoStream(context.Background(), http.MethodPost, "/v1/test", nil, nil)
	if err != nil {
		t.Fatalf("DoStream: %v", err)
	}
	defer resp.Body.Close()

	dec := NewSSEDecoder(resp.Body)
	got, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(got) != "one" {
		t.Fatalf("payload = %q, want one", got)
	}
}

func TestDoStreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"no key"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.DoStream(context.Background(), http.MethodPost, "/v1/test", nil, nil)

	var se *HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 HTTPStatusError", err)
	}
}

func TestShouldRetry(t *testing.T) {
	if shouldRetry(context.Canceled) {
		t.Fatal("canceled context marked retryable")
	}
	if shouldRetry(&HTTPStatusError{StatusCode: http.StatusBadRequest}) {
		t.Fatal("400 marked retryable")
	}
	if !shouldRetry(&HTTPStatusError{StatusCode: http.StatusBadGateway}) {
		t.Fatal("502 marked non-retryable")
	}
	if !shouldRetry(errors.New("connection reset")) {
		t.Fatal("network error marked non-retryable")
	}
}

func TestBackoffBounded(t *testing.T) {
	max := 2 * time.Second
	for attempt := 0; attempt < 10; attempt++ {
		d := backoff(250*time.Millisecond, max, attempt)
		if d <= 0 {
			t.Fatalf("backoff(%d) = %s, want positive", attempt, d)
		}
		// Jitter adds at most 10 percent above the cap.
		if d > max+max/5 {
			t.Fatalf("backoff(%d) = %s, exceeds cap", attempt, d)
		}
	}
}
