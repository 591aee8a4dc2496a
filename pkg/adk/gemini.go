package adk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider talks to the Gemini API through the official SDK client.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

func NewGeminiProvider(ctx context.Context, apiKey string, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiProvider{client: client, modelName: modelName}, nil
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

// ListModels returns the models that can serve generateContent, without the
// "models/" prefix.
func (g *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	it := g.client.ListModels(ctx)
	var names []string
	for {
		info, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		if !supportsGenerate(info) {
			continue
		}
		names = append(names, strings.TrimPrefix(info.Name, "models/"))
	}
	return names, nil
}

func supportsGenerate(info *genai.ModelInfo) bool {
	for _, m := range info.SupportedGenerationMethods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

// Generate runs a single-turn request. A fresh model handle is built per call
// so concurrent workers never share a mutable system instruction.
func (g *GeminiProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0)

	var system []genai.Part
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, genai.Text(msg.Content))
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no user content to send")
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil {
			return "", fmt.Errorf("response withheld: block reason %v", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("no response candidates")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("empty candidate (finish reason %v)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response text")
	}
	return sb.String(), nil
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}
