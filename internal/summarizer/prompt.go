// File path: internal/summarizer/prompt.go
package summarizer

import (
	"fmt"
	"os"
	"strings"

	"github.com/activitylens/lens/internal/common"
)

// DefaultTemplate is used when no prompt template file is configured or the
// configured file is absent.
const DefaultTemplate = "Summarize this text in 1-2 sentences: {text}"

// LoadTemplate reads the prompt template file, falling back to the built-in
// template when the file cannot be read.
func LoadTemplate(path string) string {
	if path == "" {
		return DefaultTemplate
	}
	data, err := os.ReadFile(path)
	if err != nil {
		common.Logger().Debug("summarizer: prompt template not found, using default", "path", path, "error", err)
		return DefaultTemplate
	}
	template := strings.TrimSpace(string(data))
	if template == "" {
		return DefaultTemplate
	}
	return template
}

// BuildPrompt assembles the full prompt from the template, the capture's
// contextual metadata, and the (already capped) screen text.
func BuildPrompt(template, appName, windowTitle, text string) string {
	context := fmt.Sprintf("Application: %s", appName)
	if windowTitle != "" {
		context += fmt.Sprintf("\nWindow Title: %s", windowTitle)
	}
	return fmt.Sprintf("%s:\n\n%s\n\nScreen Contents:\n%s", template, context, text)
}
