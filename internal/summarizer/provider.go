// File path: internal/summarizer/provider.go
package summarizer

import (
	"context"
	"os"
	"strings"

	"github.com/activitylens/lens/internal/common"
	"github.com/activitylens/lens/internal/config"
)

// Provider is the external summarization collaborator. Discover runs once
// before the pipeline and selects a model; an empty model name disables the
// summarization stage for the run. Summarize performs one model call for a
// fully constructed prompt.
type Provider interface {
	Name() string
	Discover(ctx context.Context) (string, error)
	Summarize(ctx context.Context, prompt string) (string, error)
}

// NewProvider selects the provider from the environment: the OpenAI API when
// a key is configured, otherwise the local Ollama service.
func NewProvider(cfg config.Config) Provider {
	logger := common.Logger()
	if apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); apiKey != "" {
		logger.Info("summarizer: OpenAI provider selected")
		return NewOpenAIProvider(apiKey)
	}
	logger.Info("summarizer: Ollama provider selected", "url", cfg.OllamaURL)
	return NewOllamaClient(cfg)
}
