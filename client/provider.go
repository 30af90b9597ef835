package client

import (
	"context"
	"fmt"

	"github.com/lekhapal/shg-digitizer/config"
	"github.com/lekhapal/shg-digitizer/service"
)

// Provider is an extraction backend that holds resources until closed.
type Provider interface {
	service.Extractor
	Close() error
}

// NewProvider builds the extraction backend named by cfg.ExtractionProvider.
// It returns dto.ErrExtractorNotConfigured when the provider has no API key.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.ExtractionProvider {
	case geminiProvider:
		gc, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return gc, nil
	case openAIProvider:
		oc, err := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return oc, nil
	}
	return nil, fmt.Errorf("unknown extraction provider %q", cfg.ExtractionProvider)
}
