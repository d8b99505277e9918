package provider

import (
	"fmt"
	"net/http"
)

const (
	APIGemini = "gemini"
	APIOpenAI = "openai-completions"
)

// ProviderConfig mirrors config.BackendConfig to avoid circular imports.
type ProviderConfig struct {
	ID         string
	API        string
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// FromConfig creates a Provider from a config entry. The api field
// determines which wire format to use:
//   - "gemini"              -> Gemini API via the genai SDK
//   - "openai-completions"  -> OpenAI-compatible (Groq, OpenAI, Ollama, vLLM, etc.)
func FromConfig(cfg ProviderConfig) (Provider, error) {
	switch cfg.API {
	case APIGemini:
		var opts []GeminiOption
		if cfg.HTTPClient != nil {
			opts = append(opts, WithGeminiHTTPClient(cfg.HTTPClient))
		}
		return NewGeminiProvider(cfg.ID, cfg.BaseURL, cfg.APIKey, cfg.Model, opts...), nil
	case APIOpenAI, "":
		var opts []OpenAIOption
		if cfg.HTTPClient != nil {
			opts = append(opts, WithOpenAIHTTPClient(cfg.HTTPClient))
		}
		return NewOpenAIProvider(cfg.ID, cfg.BaseURL, cfg.APIKey, cfg.Model, opts...), nil
	default:
		return nil, fmt.Errorf("unknown api type %q for provider %q (supported: %s, %s)",
			cfg.API, cfg.ID, APIGemini, APIOpenAI)
	}
}
