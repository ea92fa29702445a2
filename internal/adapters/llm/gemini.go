package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/livingsystems/orient/internal/domain"
)

// Gemini implements domain.ChatBackend on Vertex AI.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, projectID, location, model string) (*Gemini, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("project and location are required for the Gemini backend")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func toContents(msgs []domain.ChatMessage) []*genai.Content {
	var contents []*genai.Content
	for _, m := range msgs {
		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

func (g *Gemini) config(req domain.ChatRequest) *genai.GenerateContentConfig {
	temp := float32(0.7)
	topP := float32(0.9)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   maxTokens,
	}
}

// Stream implements the streaming half of domain.ChatBackend. Exactly one
// terminal event is sent; the channel closes after it.
func (g *Gemini) Stream(ctx context.Context, req domain.ChatRequest) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent)

	go func() {
		defer close(out)

		// Terminal sends also need the ctx escape: a cancelled consumer
		// never drains the channel.
		send := func(ev domain.StreamEvent) {
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, toContents(req.Messages), g.config(req)) {
			if err != nil {
				send(domain.StreamEvent{Err: fmt.Errorf("gemini stream: %w", err)})
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case out <- domain.StreamEvent{Text: text}:
			case <-ctx.Done():
				return
			}
		}

		send(domain.StreamEvent{Done: true})
	}()

	return out
}

// Complete implements the non-streaming half used for dashboard and
// summary generation.
func (g *Gemini) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, toContents(req.Messages), g.config(req))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
