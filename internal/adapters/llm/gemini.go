package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

const DefaultGeminiModel = "gemini-2.0-flash-001"

// GeminiConfig selects between the Gemini API (APIKey) and Vertex AI
// (Project + Location).
type GeminiConfig struct {
	APIKey    string
	Project   string
	Location  string
	ModelName string
}

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a domain.Completer backed by Gemini.
// With Project set it talks to Vertex AI, otherwise to the Gemini API.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.Project != "":
		if cfg.Location == "" {
			return nil, fmt.Errorf("gemini: location is required with project %q", cfg.Project)
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		return nil, fmt.Errorf("gemini: either an API key or a GCP project must be set")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete implements domain.Completer. An empty answer is returned as ""
// without error; the caller decides what empty means.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: params.Temperature,
	}
	if params.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*params.MaxTokens)
	}
	if params.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	// Only the text; candidates and safety metadata are not needed.
	return res.Text(), nil
}
