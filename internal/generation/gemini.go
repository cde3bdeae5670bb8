package generation

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"sparkAPI/internal/catalog"
)

const DefaultGeminiModel = "gemini-1.5-pro"

// contentGenerator is the slice of *genai.Models the adapter needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements Generator against the Gemini API.
type GeminiGenerator struct {
	models contentGenerator
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, model), nil
}

func newGeminiGenerator(models contentGenerator, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{models: models, model: model}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (catalog.Challenge, error) {
	text, err := g.complete(ctx, challengePrompt(req))
	if err != nil {
		return catalog.Challenge{}, err
	}
	return parseChallenge(text, req.Category)
}

func (g *GeminiGenerator) GenerateBatch(ctx context.Context, req BatchRequest) ([]catalog.Challenge, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	text, err := g.complete(ctx, batchPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseBatch(text, req.Categories)
}

func (g *GeminiGenerator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	return text, nil
}
