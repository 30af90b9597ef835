package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/utils"
	"go.uber.org/zap"
)

// ExtractionRequest is one call to a generative extraction provider.
type ExtractionRequest struct {
	Prompt   string
	Data     []byte
	MIMEType string
	Filename string
}

// Extractor sends a document to a generative model and returns the model's
// raw text answer.
type Extractor interface {
	ExtractTables(ctx context.Context, req ExtractionRequest) (string, error)
}

// TextHinter produces optional text appended to the extraction prompt.
// Implementations return "" for MIME types they do not handle.
type TextHinter interface {
	HintText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// ResultCache stores raw provider answers keyed by upload fingerprint.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ExtractionInput is a file routed to AI extraction.
type ExtractionInput struct {
	Data     []byte
	MIMEType string
	Filename string
	DocType  string
}

type ExtractionService struct {
	extractor Extractor
	cache     ResultCache
	hinters   []TextHinter
	timeout   time.Duration
	logger    *zap.Logger
}

// NewExtractionService wires the AI extraction path. extractor and cache may
// be nil: without an extractor every call fails as an upstream failure,
// without a cache every call reaches the provider.
func NewExtractionService(extractor Extractor, cache ResultCache, timeout time.Duration, logger *zap.Logger, hinters ...TextHinter) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractionService{
		extractor: extractor,
		cache:     cache,
		hinters:   hinters,
		timeout:   timeout,
		logger:    logger,
	}
}

// CacheKey fingerprints an upload for the result cache.
func CacheKey(data []byte, mimeType, docType string) string {
	sum := sha256.Sum256(data)
	return "extract:" + hex.EncodeToString(sum[:]) + ":" + mimeType + ":" + docType
}

// Extract runs the upload through the provider and normalizes the answer.
// A provider error wraps dto.ErrUpstreamAPIFailure; an undecodable answer is
// a *dto.ExtractionError.
func (s *ExtractionService) Extract(ctx context.Context, in ExtractionInput) ([]dto.Table, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: %w", dto.ErrUpstreamAPIFailure, dto.ErrExtractorNotConfigured)
	}

	key := CacheKey(in.Data, in.MIMEType, in.DocType)
	if raw, ok := s.cached(ctx, key); ok {
		if v, err := utils.ParseExtractionResponse(raw); err == nil {
			s.logger.Info("extraction cache hit", zap.String("filename", in.Filename))
			return utils.Normalize(v), nil
		}
	}

	req := ExtractionRequest{
		Prompt:   s.buildPrompt(ctx, in),
		Data:     in.Data,
		MIMEType: in.MIMEType,
		Filename: in.Filename,
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.extractor.ExtractTables(callCtx, req)
	if err != nil {
		s.logger.Warn("extraction call failed",
			zap.String("filename", in.Filename),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		if errors.Is(err, dto.ErrUpstreamAPIFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", dto.ErrUpstreamAPIFailure, err)
	}

	v, err := utils.ParseExtractionResponse(raw)
	if err != nil {
		s.logger.Warn("extraction response is not JSON",
			zap.String("filename", in.Filename),
			zap.Int("raw_length", len(raw)))
		return nil, err
	}

	tables := utils.Normalize(v)
	s.logger.Info("extraction completed",
		zap.String("filename", in.Filename),
		zap.String("mime_type", in.MIMEType),
		zap.Int("tables", len(tables)),
		zap.Duration("duration", time.Since(start)))

	s.store(ctx, key, raw)
	return tables, nil
}

func (s *ExtractionService) buildPrompt(ctx context.Context, in ExtractionInput) string {
	prompt := PromptFor(in.DocType, in.MIMEType)

	var hints []string
	for _, h := range s.hinters {
		hint, err := h.HintText(ctx, in.Data, in.MIMEType)
		if err != nil {
			s.logger.Debug("prompt hint skipped", zap.Error(err))
			continue
		}
		if hint != "" {
			hints = append(hints, hint)
		}
	}
	if len(hints) == 0 {
		return prompt
	}
	return prompt + "\n\n" + strings.Join(hints, "\n\n")
}

func (s *ExtractionService) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("extraction cache read failed", zap.Error(err))
		return "", false
	}
	return raw, ok
}

func (s *ExtractionService) store(ctx context.Context, key, raw string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw); err != nil {
		s.logger.Warn("extraction cache write failed", zap.Error(err))
	}
}
