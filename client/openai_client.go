package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/service"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const openAIProvider = "openai"

// OpenAIClient sends documents through chat completions. Images go as image
// parts, everything else as file parts.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, dto.ErrExtractorNotConfigured
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (oc *OpenAIClient) ExtractTables(ctx context.Context, req service.ExtractionRequest) (string, error) {
	resp, err := oc.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(oc.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(contentParts(req)),
		},
	})
	if err != nil {
		return "", upstreamError(openAIProvider, openAIStatus(err), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", upstreamError(openAIProvider, 0, errors.New("empty response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the HTTP client holds no per-instance resources.
func (oc *OpenAIClient) Close() error {
	return nil
}

func contentParts(req service.ExtractionRequest) []openai.ChatCompletionContentPartUnionParam {
	dataURI := fmt.Sprintf("data:%s;base64,%s", req.MIMEType, base64.StdEncoding.EncodeToString(req.Data))

	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(req.Prompt)}
	if strings.HasPrefix(req.MIMEType, "image/") {
		return append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURI,
		}))
	}

	filename := filepath.Base(req.Filename)
	if req.Filename == "" {
		filename = "document"
	}
	return append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
		FileData: openai.String(dataURI),
		Filename: openai.String(filename),
	}))
}

func openAIStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
