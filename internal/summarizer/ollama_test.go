// File path: internal/summarizer/ollama_test.go
package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/activitylens/lens/internal/config"
)

func testConfig(url string) config.Config {
	cfg := config.DefaultConfig()
	cfg.OllamaURL = url
	cfg.RequestTimeout = 5 * time.Second
	cfg.DiscoveryTimeout = 2 * time.Second
	return cfg
}

func tagsHandler(models ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			Name string `json:"name"`
		}
		payload := struct {
			Models []model `json:"models"`
		}{}
		for _, name := range models {
			payload.Models = append(payload.Models, model{Name: name})
		}
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func TestDiscoverPrefersKnownModels(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("codellama:13b", "llama3.2:3b-instruct", "mistral:7b"))
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewOllamaClient(testConfig(server.URL))
	model, err := client.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if model != "llama3.2:3b" {
		t.Fatalf("selected %q, want llama3.2:3b", model)
	}
}

func TestDiscoverFallsBackToFirstModel(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("qwen2:7b", "phi3:mini"))
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewOllamaClient(testConfig(server.URL))
	model, err := client.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if model != "qwen2:7b" {
		t.Fatalf("selected %q, want qwen2:7b", model)
	}
}

func TestDiscoverEmptyOrUnreachableDisables(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler())
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewOllamaClient(testConfig(server.URL))
	model, err := client.Discover(context.Background())
	if err != nil || model != "" {
		t.Fatalf("empty tags: model=%q err=%v", model, err)
	}

	server.Close()
	unreachable := NewOllamaClient(testConfig(server.URL))
	model, err = unreachable.Discover(context.Background())
	if err != nil || model != "" {
		t.Fatalf("unreachable service: model=%q err=%v", model, err)
	}
}

func TestSummarizeSendsDeterministicOptions(t *testing.T) {
	var captured generateRequest
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("llama3.2:3b"))
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode generate request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  A summary.\n"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testConfig(server.URL)
	client := NewOllamaClient(cfg)
	if _, err := client.Discover(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}
	summary, err := client.Summarize(context.Background(), "Summarize this")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary != "A summary." {
		t.Fatalf("summary not trimmed: %q", summary)
	}
	if captured.Model != "llama3.2:3b" {
		t.Fatalf("model: %q", captured.Model)
	}
	if captured.Prompt != "Summarize this" {
		t.Fatalf("prompt: %q", captured.Prompt)
	}
	if captured.Stream {
		t.Fatal("streaming must be disabled")
	}
	if captured.Options.Temperature != 0 {
		t.Fatalf("temperature: %v", captured.Options.Temperature)
	}
	if captured.Options.NumCtx != cfg.NumCtx || captured.Options.NumPredict != cfg.NumPredict {
		t.Fatalf("options: %+v", captured.Options)
	}
}

func TestSummarizeReportsServerErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/tags", tagsHandler("llama3.2:3b"))
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewOllamaClient(testConfig(server.URL))
	if _, err := client.Discover(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}
	_, err := client.Summarize(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("error should carry status: %v", err)
	}
}

func TestSummarizeWithoutDiscoveryFails(t *testing.T) {
	client := NewOllamaClient(testConfig("http://localhost:1"))
	if _, err := client.Summarize(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error before discovery")
	}
}
