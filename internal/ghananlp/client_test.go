package ghananlp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type apiStub struct {
	mu       sync.Mutex
	requests []translateRequest
	keys     []string
	handle   func(call int, req translateRequest) (int, string)
	calls    atomic.Int32
}

func (s *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/languages" {
		status, body := s.handle(int(s.calls.Add(1)), translateRequest{})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}

	var req translateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.keys = append(s.keys, r.Header.Get(apiKeyHeader))
	s.mu.Unlock()

	status, body := s.handle(int(s.calls.Add(1)), req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *apiStub) seen() []translateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]translateRequest(nil), s.requests...)
}

func newTestClient(t *testing.T, stub *apiStub, mutate func(*Config)) *Client {
	t.Helper()

	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	cfg := Config{
		Endpoint:  server.URL + "/v1/",
		APIKey:    "test-key",
		Timeout:   time.Second,
		BaseDelay: time.Millisecond,
		Cooldown:  time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func TestTranslateDirectPair(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(int, translateRequest) (int, string) {
		return http.StatusOK, `"Mepɛ nsuo"`
	}}
	client := newTestClient(t, stub, nil)

	res, err := client.Translate(context.Background(), Request{Text: "I want water", SourceLang: "en", TargetLang: "twi"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !res.Recognized || res.Text != "Mepɛ nsuo" || res.Hops != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	seen := stub.seen()
	if len(seen) != 1 || seen[0].In != "I want water" || seen[0].Lang != "en-tw" {
		t.Fatalf("unexpected requests: %+v", seen)
	}
	if stub.keys[0] != "test-key" {
		t.Fatalf("expected subscription key header, got %q", stub.keys[0])
	}
}

func TestTranslatePivotsThroughEnglish(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(_ int, req translateRequest) (int, string) {
		switch req.Lang {
		case "tw-en":
			return http.StatusOK, `{"translation":"good morning"}`
		case "en-ee":
			return http.StatusOK, `{"data":{"translatedText":"ŋdi na wò"}}`
		}
		return http.StatusBadRequest, `{"message":"unsupported"}`
	}}
	client := newTestClient(t, stub, nil)

	res, err := client.Translate(context.Background(), Request{Text: "maakye", SourceLang: "tw", TargetLang: "ee"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if res.Text != "ŋdi na wò" || res.Hops != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	seen := stub.seen()
	if len(seen) != 2 || seen[0].Lang != "tw-en" || seen[1].Lang != "en-ee" || seen[1].In != "good morning" {
		t.Fatalf("unexpected hop sequence: %+v", seen)
	}
}

func TestTranslatePivotFailureFailsWholeCall(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(_ int, req translateRequest) (int, string) {
		if req.Lang == "tw-en" {
			return http.StatusOK, `"good morning"`
		}
		return http.StatusBadRequest, `{"message":"bad input"}`
	}}
	client := newTestClient(t, stub, nil)

	_, err := client.Translate(context.Background(), Request{Text: "maakye", SourceLang: "tw", TargetLang: "ee"})
	if Classify(err) != KindRejected {
		t.Fatalf("expected rejected second hop, got %v", err)
	}
}

func TestTranslateUnsupportedPair(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(int, translateRequest) (int, string) {
		t.Errorf("unexpected remote call")
		return http.StatusOK, `""`
	}}
	client := newTestClient(t, stub, nil)

	_, err := client.Translate(context.Background(), Request{Text: "bonjour", SourceLang: "fr", TargetLang: "tw"})
	if !errors.Is(err, ErrUnsupportedPair) {
		t.Fatalf("expected ErrUnsupportedPair, got %v", err)
	}
	if client.SupportsPair("fr", "tw") || !client.SupportsPair("gaa", "tw") {
		t.Fatalf("unexpected pair support")
	}
}

func TestTranslateRetryMatrix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"server error retried", http.StatusBadGateway, 4},
		{"request timeout retried", http.StatusRequestTimeout, 4},
		{"rate limit retried", http.StatusTooManyRequests, 4},
		{"bad request not retried", http.StatusBadRequest, 1},
		{"not found not retried", http.StatusNotFound, 1},
		{"unauthorized not retried", http.StatusUnauthorized, 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			stub := &apiStub{handle: func(int, translateRequest) (int, string) {
				return tc.status, `{"message":"nope"}`
			}}
			client := newTestClient(t, stub, nil)

			_, err := client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := stub.calls.Load(); got != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, got)
			}
		})
	}
}

func TestTranslateRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(call int, _ translateRequest) (int, string) {
		if call < 3 {
			return http.StatusServiceUnavailable, ``
		}
		return http.StatusOK, `{"result":"aburo"}`
	}}
	client := newTestClient(t, stub, nil)

	res, err := client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"})
	if err != nil || res.Text != "aburo" {
		t.Fatalf("expected recovery after retries, got %+v err=%v", res, err)
	}
	if got := stub.calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestTranslateRequestRetryOverride(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(int, translateRequest) (int, string) {
		return http.StatusInternalServerError, ``
	}}
	client := newTestClient(t, stub, nil)

	_, _ = client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw", MaxRetries: 1})
	if got := stub.calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts with one retry, got %d", got)
	}

	disabled := &apiStub{handle: func(int, translateRequest) (int, string) {
		return http.StatusInternalServerError, ``
	}}
	noRetries := newTestClient(t, disabled, func(cfg *Config) { cfg.MaxRetries = -1 })

	_, _ = noRetries.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw", MaxRetries: 1})
	if got := disabled.calls.Load(); got != 1 {
		t.Fatalf("expected a request budget not to re-enable disabled retries, got %d attempts", got)
	}
}

func TestTranslateAttemptTimeoutIsRetried(t *testing.T) {
	t.Parallel()

	var slow atomic.Bool
	slow.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slow.CompareAndSwap(true, false) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`"aburo"`))
	}))
	t.Cleanup(server.Close)

	client := New(Config{Endpoint: server.URL, APIKey: "k", BaseDelay: time.Millisecond})
	res, err := client.Translate(context.Background(), Request{
		Text:       "maize",
		SourceLang: "en",
		TargetLang: "tw",
		Timeout:    50 * time.Millisecond,
	})
	if err != nil || res.Text != "aburo" {
		t.Fatalf("expected retry after attempt timeout, got %+v err=%v", res, err)
	}
}

func TestTranslateAuthFailureDisablesPermanently(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(int, translateRequest) (int, string) {
		return http.StatusUnauthorized, `{"message":"invalid key"}`
	}}
	client := newTestClient(t, stub, nil)

	_, err := client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"})
	if Classify(err) != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
	if client.Available() {
		t.Fatalf("expected client to be disabled")
	}

	_, err = client.Translate(context.Background(), Request{Text: "cassava", SourceLang: "en", TargetLang: "tw"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable while disabled, got %v", err)
	}
	if got := stub.calls.Load(); got != 1 {
		t.Fatalf("expected no calls while disabled, got %d", got)
	}

	client.Reconfigure("new-key")
	if !client.Available() {
		t.Fatalf("expected reconfigure to re-enable the client")
	}
}

func TestTranslateRateLimitCooldown(t *testing.T) {
	t.Parallel()

	var limited atomic.Bool
	limited.Store(true)
	stub := &apiStub{handle: func(int, translateRequest) (int, string) {
		if limited.Load() {
			return http.StatusTooManyRequests, `{"message":"slow down"}`
		}
		return http.StatusOK, `"aburo"`
	}}
	client := newTestClient(t, stub, func(cfg *Config) {
		cfg.Cooldown = 100 * time.Millisecond
		cfg.MaxRetries = -1
	})

	_, err := client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"})
	if Classify(err) != KindRateLimited {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if client.Available() {
		t.Fatalf("expected client to cool down after rate limiting")
	}

	_, err = client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable during cooldown, got %v", err)
	}

	limited.Store(false)
	time.Sleep(150 * time.Millisecond)

	res, err := client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"})
	if err != nil || res.Text != "aburo" {
		t.Fatalf("expected recovery after cooldown, got %+v err=%v", res, err)
	}
	if !client.Available() {
		t.Fatalf("expected client to be available again, status=%+v", client.Status())
	}
}

func TestTranslateUnrecognizedShapeReturnsInput(t *testing.T) {
	t.Parallel()

	stub := &apiStub{handle: func(int, translateRequest) (int, string) {
		return http.StatusOK, `{"status":"ok","items":[1,2,3]}`
	}}
	client := newTestClient(t, stub, nil)

	res, err := client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"})
	if err != nil {
		t.Fatalf("unrecognized shape must not be an error: %v", err)
	}
	if res.Recognized || res.Text != "maize" {
		t.Fatalf("expected pass-through result, got %+v", res)
	}
}

func TestTranslateWithoutAPIKey(t *testing.T) {
	t.Parallel()

	client := New(Config{})
	if _, err := client.Translate(context.Background(), Request{Text: "maize", SourceLang: "en", TargetLang: "tw"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable without key, got %v", err)
	}
	if status := client.Status(); status.Configured || status.Available {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	ok := &apiStub{handle: func(int, translateRequest) (int, string) {
		return http.StatusOK, `{"languages":{"tw":"Twi"}}`
	}}
	if err := newTestClient(t, ok, nil).Probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}

	denied := &apiStub{handle: func(int, translateRequest) (int, string) {
		return http.StatusForbidden, `{"message":"forbidden"}`
	}}
	client := newTestClient(t, denied, nil)
	if err := client.Probe(context.Background()); Classify(err) != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
	if client.Available() {
		t.Fatalf("expected forbidden probe to disable the client")
	}
}
