package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

type contentStreamer func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

// Model implements ports.GenerativeModel on the Gemini API.
type Model struct {
	name   string
	stream contentStreamer
}

// New creates a Gemini client for the given API key and model name.
func New(ctx context.Context, apiKey, name string) (*Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if name == "" {
		name = DefaultModel
	}
	return &Model{name: name, stream: client.Models.GenerateContentStream}, nil
}

// StreamCalls sends one streaming request and yields the function calls and
// text of every response chunk in arrival order. Transport failures surface
// once as *domain.ProviderError with the provider's message.
func (m *Model) StreamCalls(ctx context.Context, req domain.ModelRequest) iter.Seq2[domain.ModelChunk, error] {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(req.Temperature),
		Tools:             []*genai.Tool{{FunctionDeclarations: functionDeclarations()}},
	}
	contents := genai.Text(req.Prompt)

	return func(yield func(domain.ModelChunk, error) bool) {
		for resp, err := range m.stream(ctx, m.name, contents, config) {
			if err != nil {
				yield(domain.ModelChunk{}, &domain.ProviderError{Provider: "gemini", Err: err})
				return
			}
			chunk := toChunk(resp)
			if len(chunk.Calls) == 0 && chunk.Text == "" {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func toChunk(resp *genai.GenerateContentResponse) domain.ModelChunk {
	var chunk domain.ModelChunk
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return chunk
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if fc := part.FunctionCall; fc != nil {
			chunk.Calls = append(chunk.Calls, domain.FunctionCall{Name: fc.Name, Args: fc.Args})
		}
		chunk.Text += part.Text
	}
	return chunk
}
