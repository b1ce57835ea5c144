package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiTimeout = 30 * time.Second

// Gemini implements Engine using Google Gemini vision models.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini engine.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// RecognizeText transcribes the text in a PNG image.
func (g *Gemini) RecognizeText(ctx context.Context, image []byte) (string, error) {
	text, err := g.generate(ctx, image, textPrompt)
	if err != nil {
		return "", err
	}
	return stripMarkdownFence(text), nil
}

// CountFaces asks the model for a face count.
func (g *Gemini) CountFaces(ctx context.Context, image []byte) (int, error) {
	text, err := g.generate(ctx, image, facePrompt)
	if err != nil {
		return 0, err
	}
	count, err := parseFaceCount(text)
	if err != nil {
		return 0, fmt.Errorf("parsing face count: %w", err)
	}
	return count, nil
}

func (g *Gemini) generate(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	// genai.ImageData expects the format suffix, not the full MIME type.
	parts := []genai.Part{
		genai.ImageData("png", image),
		genai.Text(prompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var buf strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			buf.WriteString(string(text))
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
