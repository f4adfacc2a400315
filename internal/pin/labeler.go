package pin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const labelPrompt = "List short descriptive labels for this image as a JSON array " +
	"of strings, most prominent subject first. Respond with the array only."

// Labeler asks an external vision service to describe image bytes.
// contentType is the image MIME type, e.g. "image/jpeg".
type Labeler interface {
	Label(ctx context.Context, image []byte, contentType string) ([]string, error)
}

type geminiLabeler struct {
	apiKey string
	model  string
	limit  int
}

func NewGeminiLabeler(apiKey, model string, limit int) Labeler {
	if limit <= 0 {
		limit = 10
	}
	return &geminiLabeler{apiKey: apiKey, model: model, limit: limit}
}

func (g *geminiLabeler) Label(ctx context.Context, image []byte, contentType string) ([]string, error) {
	if g.apiKey == "" {
		return nil, errors.New("gemini api key not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.ImageData(imageFormat(contentType), image), genai.Text(labelPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to label image: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.New("no candidates returned from vision model")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New("empty content returned from vision model")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	labels := parseLabels(sb.String(), g.limit)
	if len(labels) == 0 {
		return nil, errors.New("no labels in vision model response")
	}
	return labels, nil
}

// imageFormat maps a MIME type to the bare format hint the vision client
// expects ("image/jpeg" -> "jpeg").
func imageFormat(contentType string) string {
	format := strings.TrimPrefix(contentType, "image/")
	if format == "" {
		return "png"
	}
	return format
}

// parseLabels extracts the JSON string array from a model response, which
// may be wrapped in prose or a code fence. Labels are deduplicated in the
// order the service returned them and capped at limit.
func parseLabels(raw string, limit int) []string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}

	var parsed []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil
	}

	seen := make(map[string]bool, len(parsed))
	labels := make([]string, 0, len(parsed))
	for _, label := range parsed {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
		if len(labels) == limit {
			break
		}
	}
	return labels
}
