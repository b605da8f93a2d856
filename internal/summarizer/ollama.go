// File path: internal/summarizer/ollama.go
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/activitylens/lens/internal/common"
	"github.com/activitylens/lens/internal/config"
)

// preferredModels is the discovery preference order; the first available
// model containing one of these names wins.
var preferredModels = []string{"llama3.2:3b", "llama3.2", "llama3", "llama2", "mistral"}

// OllamaClient talks to a local Ollama service over its JSON HTTP API.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.Config

	mu    sync.RWMutex
	model string
}

func NewOllamaClient(cfg config.Config) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.OllamaURL, "/"),
		cfg:        cfg,
	}
}

func (c *OllamaClient) Name() string {
	return "ollama"
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type generateOptions struct {
	NumCtx      int     `json:"num_ctx"`
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Discover enumerates the service's models once and selects one by the
// preference order, falling back to the first available. An unreachable
// service or an empty model list yields an empty name, which disables the
// summarization stage; it is not an error.
func (c *OllamaClient) Discover(ctx context.Context) (string, error) {
	logger := common.Logger()
	discoverCtx, cancel := context.WithTimeout(ctx, c.cfg.DiscoveryTimeout)
	defer cancel()

	var tags tagsResponse
	if err := c.doRequest(discoverCtx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		logger.Warn("summarizer: ollama not reachable, summarization disabled", "error", err)
		return "", nil
	}
	available := make([]string, 0, len(tags.Models))
	for _, model := range tags.Models {
		if model.Name != "" {
			available = append(available, model.Name)
		}
	}
	if len(available) == 0 {
		logger.Warn("summarizer: ollama reports no models, summarization disabled")
		return "", nil
	}
	logger.Info("summarizer: available ollama models", "models", strings.Join(available, ","))

	selected := ""
	for _, preferred := range preferredModels {
		for _, name := range available {
			if strings.Contains(name, preferred) {
				selected = preferred
				break
			}
		}
		if selected != "" {
			break
		}
	}
	if selected == "" {
		selected = available[0]
	}
	c.mu.Lock()
	c.model = selected
	c.mu.Unlock()
	logger.Info("summarizer: selected ollama model", "model", selected)
	return selected, nil
}

// Summarize performs one generate call with deterministic decoding options.
// Non-2xx responses and transport errors are reported identically; the
// caller's retry policy treats them the same.
func (c *OllamaClient) Summarize(ctx context.Context, prompt string) (string, error) {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()
	if model == "" {
		return "", errors.New("no model selected")
	}
	req := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumCtx:      c.cfg.NumCtx,
			NumPredict:  c.cfg.NumPredict,
			Temperature: 0,
		},
	}
	var resp generateResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

func (c *OllamaClient) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c == nil {
		return errors.New("ollama client not configured")
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama %s %s failed: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
