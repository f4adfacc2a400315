package pin

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const titlePromptTemplate = "Create a concise and engaging title, consisting of " +
	"one or two words, for the given description: %s"

// ImageGenerator wraps the external generative services: one call for the
// image itself, one for a short title.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	GenerateTitle(ctx context.Context, prompt string) (string, error)
}

type openAIGenerator struct {
	client *openai.Client
}

func NewOpenAIGenerator(apiKey string) ImageGenerator {
	if apiKey == "" {
		return &openAIGenerator{}
	}
	return &openAIGenerator{client: openai.NewClient(apiKey)}
}

func (g *openAIGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", errors.New("openai api key not set")
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:  openai.CreateImageModelDallE3,
		N:      1,
		Prompt: prompt,
		Size:   openai.CreateImageSize1024x1024,
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("image generation returned no url")
	}
	return resp.Data[0].URL, nil
}

func (g *openAIGenerator) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", errors.New("openai api key not set")
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     openai.GPT3Dot5Turbo,
		MaxTokens: 10,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(titlePromptTemplate, prompt),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("title generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("title generation returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
