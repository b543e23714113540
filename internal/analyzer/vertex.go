package analyzer

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// VertexProvider calls Gemini on Vertex AI. The system instruction and
// generation settings are fixed on the model when it is built.
type VertexProvider struct {
	model  contentGenerator
	client *genai.Client
}

func NewVertexProvider(ctx context.Context, projectID, location, modelName string, temperature float64) (*VertexProvider, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("NewVertexProvider: projectID and location cannot be empty")
	}

	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(temperature)),
	}

	return &VertexProvider{model: model, client: client}, nil
}

func (p *VertexProvider) Name() string {
	return "Vertex AI"
}

func (p *VertexProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}
	return responseText(resp), nil
}

func (p *VertexProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
