package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"token-launchpad/internal/domain"
)

func testToken() *domain.Token {
	return &domain.Token{Mint: "mint-1", Name: "Test Coin", Symbol: "TEST"}
}

func TestClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			t.Errorf("expected path /v1/generate, got %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Mint != "mint-1" || req.Type != "shill" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "the curve only goes up"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	text, err := client.Generate(context.Background(), testToken(), domain.ContentTypeShill)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "the curve only goes up" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestClient_GenerateRejectsEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "   \n  "})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Generate(context.Background(), testToken(), domain.ContentTypeLore); err == nil {
		t.Fatal("expected error for whitespace-only text")
	}
}

func TestClient_GenerateTruncatesLongText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": strings.Repeat("x", 500)})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithMaxLength(100))
	text, err := client.Generate(context.Background(), testToken(), domain.ContentTypeProphecy)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(text) != 100 {
		t.Errorf("expected 100 runes, got %d", len(text))
	}
}

func TestClient_GenerateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Generate(context.Background(), testToken(), domain.ContentTypeMarket); err == nil {
		t.Fatal("expected error for 503")
	}
}
