package adk

import (
	"context"
	"fmt"
)

// ProviderSpec selects and configures a provider.
type ProviderSpec struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
}

// Providers lists the supported provider names.
var Providers = []string{"openai", "gemini", "anthropic"}

func NewProvider(ctx context.Context, spec ProviderSpec) (LLMProvider, error) {
	switch spec.Name {
	case "gemini":
		return NewGeminiProvider(ctx, spec.APIKey, spec.Model)
	case "openai":
		return NewOpenAIProvider(spec.APIKey, spec.Model, spec.BaseURL), nil
	case "anthropic":
		return NewAnthropicProvider(spec.APIKey, spec.Model, spec.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", spec.Name)
	}
}

// CloseProvider releases provider resources when the provider holds any.
func CloseProvider(p LLMProvider) {
	if closer, ok := p.(interface{ Close() }); ok {
		closer.Close()
	}
}
