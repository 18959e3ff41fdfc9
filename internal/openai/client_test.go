package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, APIKey: "test-key", Model: "gpt-4o"}, testLogger(), nil)
}

func TestGenerateReading(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"model": "gpt-4o-2024-08-06",
			"choices": [{"message": {"content": "Your reading."}}],
			"usage": {"prompt_tokens": 1000, "completion_tokens": 2000, "total_tokens": 3000}
		}`)
	})

	got, err := client.GenerateReading(context.Background(), "a prompt")
	if err != nil {
		t.Fatalf("GenerateReading: %v", err)
	}
	if got.Content != "Your reading." {
		t.Fatalf("unexpected content %q", got.Content)
	}
	if got.Usage.Model != "gpt-4o-2024-08-06" {
		t.Fatalf("unexpected model %q", got.Usage.Model)
	}
	if got.Usage.TotalTokens != 3000 {
		t.Fatalf("unexpected total tokens %d", got.Usage.TotalTokens)
	}
	want := 1000.0/1_000_000*2.50 + 2000.0/1_000_000*10.00
	if math.Abs(got.Usage.Cost-want) > 1e-9 {
		t.Fatalf("cost = %f, want %f", got.Usage.Cost, want)
	}
}

func TestGenerateReadingEmptyCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": [{"message": {"content": "   "}}], "usage": {}}`)
	})

	_, err := client.GenerateReading(context.Background(), "a prompt")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestGenerateReadingErrorClasses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"invalid key", http.StatusUnauthorized, `{"error": {"message": "Incorrect API key provided"}}`, ErrInvalidAPIKey},
		{"quota", http.StatusTooManyRequests, `{"error": {"code": "insufficient_quota"}}`, ErrQuotaExceeded},
		{"rate limit", http.StatusTooManyRequests, `{"error": {"message": "Rate limit reached"}}`, ErrRateLimited},
		{"model", http.StatusNotFound, `{"error": {"code": "model_not_found"}}`, ErrModelUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			_, err := client.GenerateReading(context.Background(), "a prompt")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEstimateCostTiers(t *testing.T) {
	cases := []struct {
		model string
		want  float64
	}{
		{"gpt-4o-mini", 1.0*0.15 + 1.0*0.60},
		{"gpt-4-turbo", 1.0*10.00 + 1.0*30.00},
		{"gpt-4o", 1.0*2.50 + 1.0*10.00},
	}
	for _, tc := range cases {
		got := EstimateCost(tc.model, 1_000_000, 1_000_000)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("EstimateCost(%s) = %f, want %f", tc.model, got, tc.want)
		}
	}
}
