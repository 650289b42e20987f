package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/greenloop/greenloop-backend/pkg/config"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

func gatewayConfig(url string) config.AIGatewayConfig {
	return config.AIGatewayConfig{
		URL:     url,
		APIKey:  "test-key",
		Model:   "google/gemini-2.5-flash",
		Timeout: 5 * time.Second,
	}
}

func TestGateway_CompleteSendsPromptAndImage(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"wasteType":"plastics","confidence":90}`}},
			},
		})
	}))
	defer server.Close()

	gateway, err := NewGateway(gatewayConfig(server.URL), http.DefaultClient)
	if err != nil {
		t.Fatalf("unexpected gateway error: %v", err)
	}

	content, err := gateway.Complete(context.Background(), "data:image/jpeg;base64,abc")
	if err != nil {
		t.Fatalf("unexpected complete error: %v", err)
	}
	if !strings.Contains(content, "plastics") {
		t.Fatalf("unexpected content %q", content)
	}

	if captured.Model != "google/gemini-2.5-flash" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected 2 messages got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" {
		t.Fatalf("expected system message first, got %q", captured.Messages[0].Role)
	}
	payload, err := json.Marshal(captured.Messages[1].Content)
	if err != nil {
		t.Fatalf("re-encode user content: %v", err)
	}
	if !strings.Contains(string(payload), "data:image/jpeg;base64,abc") {
		t.Fatalf("image data url missing from user message: %s", payload)
	}
}

func TestGateway_CompleteStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   pkgerrors.Code
	}{
		{"rate limited", http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{"credits depleted", http.StatusPaymentRequired, pkgerrors.CodeQuota},
		{"bad gateway", http.StatusBadGateway, pkgerrors.CodeDependency},
		{"bad request", http.StatusBadRequest, pkgerrors.CodeDependency},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			gateway, err := NewGateway(gatewayConfig(server.URL), http.DefaultClient)
			if err != nil {
				t.Fatalf("unexpected gateway error: %v", err)
			}

			_, err = gateway.Complete(context.Background(), "data:image/jpeg;base64,abc")
			if err == nil {
				t.Fatal("expected error")
			}
			if code := pkgerrors.As(err).Code(); code != tc.want {
				t.Fatalf("expected %s got %s", tc.want, code)
			}
		})
	}
}

func TestGateway_CompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	gateway, err := NewGateway(gatewayConfig(server.URL), http.DefaultClient)
	if err != nil {
		t.Fatalf("unexpected gateway error: %v", err)
	}

	_, err = gateway.Complete(context.Background(), "data:image/jpeg;base64,abc")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code got %s", code)
	}
}

func TestNewGateway_RequiresURLAndModel(t *testing.T) {
	if _, err := NewGateway(config.AIGatewayConfig{Model: "m"}, http.DefaultClient); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewGateway(config.AIGatewayConfig{URL: "http://x"}, http.DefaultClient); err == nil {
		t.Fatal("expected error for missing model")
	}
}
