package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// geminiClient implements the Client interface on the Generative Language API.
type geminiClient struct {
	svc       *generativelanguage.Service
	model     string
	maxTokens int64
}

// newGeminiClient creates a Gemini client authenticated with an API key.
func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	svc, err := generativelanguage.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini service: %w", err)
	}

	return &geminiClient{svc: svc, model: model, maxTokens: int64(maxTokens)}, nil
}

// Complete sends a generateContent request.
func (c *geminiClient) Complete(ctx context.Context, req Request) (string, error) {
	parts := []*generativelanguage.Part{{Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, &generativelanguage.Part{InlineData: &generativelanguage.Blob{
			MimeType: req.Image.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}

	genReq := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{Role: "user", Parts: parts}},
		GenerationConfig: &generativelanguage.GenerationConfig{
			MaxOutputTokens: int64(pickInt(req.MaxTokens, int(c.maxTokens))),
		},
	}
	if req.JSON {
		genReq.GenerationConfig.ResponseMimeType = "application/json"
	}
	if req.System != "" {
		genReq.SystemInstruction = &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: req.System}},
		}
	}

	resp, err := c.svc.Models.GenerateContent(c.model, genReq).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", statusError("gemini", apiErr.Code, []byte(apiErr.Message))
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return text.String(), nil
}
