package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	text   string
	err    error
	model  string
	prompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.text, genai.RoleModel)}},
	}, nil
}

func TestGeminiGenerate(t *testing.T) {
	models := &fakeModels{text: `{"title": "Gratitude Walk", "description": "{partner1} and {partner2} walk and share.", "category": "Emotional Connection", "difficulty": "medium"}`}
	g := newGeminiGenerator(models, "")

	ch, err := g.Generate(context.Background(), Request{Couple: ctxMarried, Category: "Emotional Connection"})
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiModel, models.model)
	assert.Contains(t, models.prompt, "Relationship status: married")
	assert.Contains(t, models.prompt, "deepen emotional intimacy")
	assert.Contains(t, models.prompt, "{partner1} and {partner2}")
	assert.NotContains(t, models.prompt, ctxMarried.Partner1Name)
	assert.NotContains(t, models.prompt, ctxMarried.Partner2Name)
	assert.Equal(t, "Gratitude Walk", ch.Title)
	assert.True(t, ch.IsGenerated())
}

func TestGeminiGenerateErrors(t *testing.T) {
	g := newGeminiGenerator(&fakeModels{err: errors.New("quota exceeded")}, "gemini-test")
	_, err := g.Generate(context.Background(), Request{Couple: ctxMarried})
	assert.ErrorContains(t, err, "quota exceeded")

	g = newGeminiGenerator(&fakeModels{text: ""}, "gemini-test")
	_, err = g.Generate(context.Background(), Request{Couple: ctxMarried})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGeminiGenerateBatch(t *testing.T) {
	models := &fakeModels{text: `[{"title": "A", "description": "a", "category": "Emotional Connection", "difficulty": "easy"}]`}
	g := newGeminiGenerator(models, "gemini-test")

	got, err := g.GenerateBatch(context.Background(), BatchRequest{Couple: ctxMarried, Count: 3, Categories: []string{"Emotional Connection"}})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, models.prompt, "Generate 3 unique relationship challenges")
	assert.NotContains(t, models.prompt, ctxMarried.Partner1Name)

	none, err := g.GenerateBatch(context.Background(), BatchRequest{Couple: ctxMarried})
	require.NoError(t, err)
	assert.Empty(t, none)
}
