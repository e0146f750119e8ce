// Package enrich drafts short descriptions for catalog records that arrive
// without one. Strictly optional: ingestion never depends on it, and every
// failure degrades to an empty description.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ddanilov/poisk/internal/model"
)

// Describer generates a one-paragraph description for a record from its
// title, category and address context.
type Describer struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewDescriber creates a describer. The API key is required; callers that
// have none simply do not construct a describer.
func NewDescriber(apiKey, model string) (*Describer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("describer: API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Describer{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: 200,
	}, nil
}

const systemPrompt = `You write short, factual descriptions for a places
catalog. Given a place title and its category, produce one neutral Russian
paragraph (2-3 sentences). Never invent addresses, dates, prices or opening
hours. If you know nothing about the place beyond its name, describe what
the category implies.`

// Describe drafts a description for the record.
func (d *Describer) Describe(ctx context.Context, rec model.CatalogRecord) (string, error) {
	user := fmt.Sprintf("Title: %s\nCategory: %s", rec.Title, rec.Category)

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     d.model,
		MaxTokens: d.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("describe %q: %w", rec.Title, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
