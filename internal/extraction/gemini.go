package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-2.5-pro"

// Gemini implements the Oracle interface using Google Gemini
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a new Gemini Oracle instance
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required: %w", ErrConfiguration)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:    client,
		modelName: modelName,
	}, nil
}

// Generate sends the instruction followed by each part, in order
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	// Models carry generation settings, so build one per call
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(req.Temperature)

	parts := make([]genai.Part, 0, len(req.Parts)+1)
	parts = append(parts, genai.Text(req.Instruction))
	for _, p := range req.Parts {
		if p.IsImage() {
			// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
			parts = append(parts, genai.ImageData(p.Image.Format(), p.Image.Data))
			continue
		}
		parts = append(parts, genai.Text(p.Text))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return responseText.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
