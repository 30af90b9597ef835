package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/service"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const geminiProvider = "gemini"

// GeminiClient sends documents to a Gemini model as inline data.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, dto.ErrExtractorNotConfigured
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: c, model: model}, nil
}

func (gc *GeminiClient) ExtractTables(ctx context.Context, req service.ExtractionRequest) (string, error) {
	model := gc.client.GenerativeModel(gc.model)

	resp, err := model.GenerateContent(ctx,
		genai.Text(req.Prompt),
		genai.Blob{MIMEType: req.MIMEType, Data: req.Data},
	)
	if err != nil {
		return "", upstreamError(geminiProvider, geminiStatus(err), err)
	}

	text := responseText(resp)
	if text == "" {
		return "", upstreamError(geminiProvider, 0, errors.New("empty response"))
	}
	return text, nil
}

func (gc *GeminiClient) Close() error {
	return gc.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func geminiStatus(err error) int {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return code
		}
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}
