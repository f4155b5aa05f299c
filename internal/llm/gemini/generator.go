package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/arcanaland/tarotreading/internal/llm"
)

// DefaultModel is the model the reading prompt was tuned on.
const DefaultModel = "gemini-1.5-pro"

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

type listFunc func(ctx context.Context, config *genai.ListModelsConfig) (genai.Page[genai.Model], error)

// Generator calls the Gemini API through the genai SDK.
type Generator struct {
	generate generateFunc
	list     listFunc
	model    string
}

// NewGenerator builds a Gemini-backed generator. An empty model selects
// DefaultModel.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Generator{
		generate: client.Models.GenerateContent,
		list:     client.Models.List,
		model:    resolveModel(model),
	}, nil
}

// Model returns the model name requests are sent to.
func (g *Generator) Model() string {
	return g.model
}

// Generate sends one prompt and returns the first non-empty text part.
func (g *Generator) Generate(ctx context.Context, prompt string, params llm.Params) (string, error) {
	if g.generate == nil {
		return "", fmt.Errorf("%w: gemini generator is not initialized", llm.ErrGeneration)
	}

	resp, err := g.generate(ctx, g.model, genai.Text(prompt), generationConfig(params))
	if err != nil {
		return "", classify(err)
	}
	return extractText(resp)
}

// ListModels lists the models visible to the API key.
func (g *Generator) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	if g.list == nil {
		return nil, fmt.Errorf("%w: gemini generator is not initialized", llm.ErrGeneration)
	}

	page, err := g.list(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}

	models := make([]llm.ModelInfo, 0, len(page.Items))
	for _, m := range page.Items {
		if m == nil {
			continue
		}
		models = append(models, llm.ModelInfo{
			Name:                       m.Name,
			DisplayName:                m.DisplayName,
			Description:                m.Description,
			SupportedGenerationMethods: m.SupportedActions,
		})
	}
	return models, nil
}

func resolveModel(model string) string {
	if strings.TrimSpace(model) == "" {
		return DefaultModel
	}
	return strings.TrimSpace(model)
}

func generationConfig(p llm.Params) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.Temperature),
		TopK:            genai.Ptr(float32(p.TopK)),
		TopP:            genai.Ptr(p.TopP),
		MaxOutputTokens: p.MaxOutputTokens,
		CandidateCount:  1,
	}
}

// extractText joins the text parts of the first candidate that has any.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", llm.ErrEmptyReply
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			b.WriteString(part.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text, nil
		}
	}
	return "", llm.ErrEmptyReply
}

// classify maps SDK errors onto the llm sentinels. Only HTTP 503 (status
// UNAVAILABLE) counts as transient.
func classify(err error) error {
	if code, status, ok := apiErrorCode(err); ok {
		if code == http.StatusServiceUnavailable || status == "UNAVAILABLE" {
			return fmt.Errorf("%w: %w", llm.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %w", llm.ErrGeneration, err)
}

func apiErrorCode(err error) (int, string, bool) {
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Status, true
	}
	var val genai.APIError
	if errors.As(err, &val) {
		return val.Code, val.Status, true
	}
	return 0, "", false
}
