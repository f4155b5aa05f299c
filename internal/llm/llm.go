package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks a transient "service unavailable" reply. It is
	// the only failure the interpretation requester retries.
	ErrUnavailable = errors.New("llm: service unavailable")
	// ErrGeneration marks any other generation failure.
	ErrGeneration = errors.New("llm: generation failed")
	// ErrEmptyReply is returned when the model produced no text.
	ErrEmptyReply = errors.New("llm: empty reply")
)

// Params are sampling knobs passed through to the model.
type Params struct {
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultParams matches the tuning the reading prompt was written for.
func DefaultParams() Params {
	return Params{
		Temperature:     0.9,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 2048,
	}
}

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

// ModelInfo describes a model offered by a provider.
type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// ModelLister lists the models a provider offers.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Provider is a generator that can also list its models.
type Provider interface {
	Generator
	ModelLister
}
