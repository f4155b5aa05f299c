package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/arcanaland/tarotreading/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openaigo.GPT4oMini

// chatClient is the part of the go-openai client the generator needs.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openaigo.ChatCompletionRequest) (openaigo.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openaigo.ModelsList, error)
}

// Generator calls an OpenAI-compatible chat completion API.
type Generator struct {
	client chatClient
	model  string
}

// NewGenerator builds an OpenAI-backed generator. baseURL may point at any
// OpenAI-compatible endpoint; empty keeps the library default.
func NewGenerator(apiKey, model, baseURL string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	cfg := openaigo.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	return &Generator{
		client: openaigo.NewClientWithConfig(cfg),
		model:  strings.TrimSpace(model),
	}, nil
}

// Model returns the model name requests are sent to.
func (g *Generator) Model() string {
	return g.model
}

// Generate sends the prompt as a single user message. TopK has no
// equivalent in the chat API and is ignored.
func (g *Generator) Generate(ctx context.Context, prompt string, params llm.Params) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("%w: openai generator is not initialized", llm.ErrGeneration)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: g.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: params.Temperature,
		TopP:        params.TopP,
		MaxTokens:   int(params.MaxOutputTokens),
	})
	if err != nil {
		return "", classify(err)
	}

	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", llm.ErrEmptyReply
}

// ListModels lists the models the endpoint offers.
func (g *Generator) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	if g.client == nil {
		return nil, fmt.Errorf("%w: openai generator is not initialized", llm.ErrGeneration)
	}

	list, err := g.client.ListModels(ctx)
	if err != nil {
		return nil, classify(err)
	}

	models := make([]llm.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, llm.ModelInfo{
			Name:                       m.ID,
			DisplayName:                m.ID,
			Description:                "owned by " + m.OwnedBy,
			SupportedGenerationMethods: []string{"chat.completions"},
		})
	}
	return models, nil
}

// classify treats HTTP 503 as the only transient failure.
func classify(err error) error {
	if statusCode(err) == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %w", llm.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %w", llm.ErrGeneration, err)
}

func statusCode(err error) int {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
