package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lekhapal/shg-digitizer/cache"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	response string
	err      error
	calls    int
	last     ExtractionRequest
	deadline bool
}

func (f *fakeExtractor) ExtractTables(ctx context.Context, req ExtractionRequest) (string, error) {
	f.calls++
	f.last = req
	_, f.deadline = ctx.Deadline()
	return f.response, f.err
}

type fakeHinter struct {
	hint string
	err  error
}

func (h fakeHinter) HintText(context.Context, []byte, string) (string, error) {
	return h.hint, h.err
}

func TestExtractNormalizesFencedResponse(t *testing.T) {
	ext := &fakeExtractor{response: "```json\n{\"tables\":[{\"rows\":[{\"x\":\"1\"}]}]}\n```"}
	svc := NewExtractionService(ext, nil, time.Minute, nil)

	tables, err := svc.Extract(context.Background(), ExtractionInput{
		Data:     []byte("img"),
		MIMEType: "image/png",
		Filename: "page.png",
	})
	require.NoError(t, err)

	require.Len(t, tables, 1)
	assert.Equal(t, []string{"x"}, tables[0].Columns)
	assert.Equal(t, [][]string{{"1"}}, tables[0].Rows)
	assert.True(t, ext.deadline)
	assert.Equal(t, imagePrompt, ext.last.Prompt)
	assert.Equal(t, "image/png", ext.last.MIMEType)
}

func TestExtractInvalidJSONKeepsRawText(t *testing.T) {
	ext := &fakeExtractor{response: "I could not find any tables."}
	svc := NewExtractionService(ext, nil, 0, nil)

	_, err := svc.Extract(context.Background(), ExtractionInput{Data: []byte("x"), MIMEType: "application/pdf"})

	require.Error(t, err)
	var extractionErr *dto.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "I could not find any tables.", extractionErr.Raw)
	assert.True(t, errors.Is(err, dto.ErrInvalidExtractionResponse))
}

func TestExtractProviderFailure(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("connection reset")}
	svc := NewExtractionService(ext, nil, 0, nil)

	_, err := svc.Extract(context.Background(), ExtractionInput{Data: []byte("x"), MIMEType: "image/jpeg"})

	assert.True(t, errors.Is(err, dto.ErrUpstreamAPIFailure))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestExtractWithoutExtractor(t *testing.T) {
	svc := NewExtractionService(nil, nil, 0, nil)

	_, err := svc.Extract(context.Background(), ExtractionInput{Data: []byte("x"), MIMEType: "image/jpeg"})

	assert.True(t, errors.Is(err, dto.ErrUpstreamAPIFailure))
	assert.True(t, errors.Is(err, dto.ErrExtractorNotConfigured))
}

func TestExtractUsesCache(t *testing.T) {
	ext := &fakeExtractor{response: `[{"title":"Savings","columns":["a"],"rows":[["1"]]}]`}
	svc := NewExtractionService(ext, cache.NewMemoryCache(0, time.Hour), 0, nil)
	in := ExtractionInput{Data: []byte("scan"), MIMEType: "image/png", DocType: dto.DocTypeSavings}

	first, err := svc.Extract(context.Background(), in)
	require.NoError(t, err)
	second, err := svc.Extract(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, ext.calls)
	assert.Equal(t, first, second)

	in.DocType = dto.DocTypeReceipts
	_, err = svc.Extract(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, ext.calls)
}

func TestExtractDoesNotCacheInvalidResponses(t *testing.T) {
	ext := &fakeExtractor{response: "not json"}
	svc := NewExtractionService(ext, cache.NewMemoryCache(0, time.Hour), 0, nil)
	in := ExtractionInput{Data: []byte("scan"), MIMEType: "image/png"}

	_, _ = svc.Extract(context.Background(), in)
	_, _ = svc.Extract(context.Background(), in)

	assert.Equal(t, 2, ext.calls)
}

func TestExtractAppendsHints(t *testing.T) {
	ext := &fakeExtractor{response: `{"tables":[]}`}
	svc := NewExtractionService(ext, nil, 0, nil,
		fakeHinter{hint: "The PDF has 2 page(s)."},
		fakeHinter{err: errors.New("tesseract missing")},
		fakeHinter{},
	)

	_, err := svc.Extract(context.Background(), ExtractionInput{
		Data:     []byte("%PDF"),
		MIMEType: "application/pdf",
		DocType:  dto.DocTypeProfile,
	})
	require.NoError(t, err)

	assert.Equal(t, profilePrompt+"\n\nThe PDF has 2 page(s).", ext.last.Prompt)
}

func TestPromptFor(t *testing.T) {
	assert.Equal(t, profilePrompt, PromptFor(dto.DocTypeProfile, "image/png"))
	assert.Equal(t, memberLoanPrompt, PromptFor(dto.DocTypeMemberLoanRepayment, ""))
	assert.Equal(t, tableListPrompt, PromptFor(dto.DocTypeSavings, "image/png"))
	assert.Equal(t, tableListPrompt, PromptFor("Unknown register", "image/png"))
	assert.Equal(t, imagePrompt, PromptFor("", "image/jpeg"))
	assert.Equal(t, documentPrompt, PromptFor("", "application/pdf"))
}

func TestCacheKeyDependsOnAllParts(t *testing.T) {
	base := CacheKey([]byte("a"), "image/png", "Savings")

	assert.Equal(t, base, CacheKey([]byte("a"), "image/png", "Savings"))
	assert.NotEqual(t, base, CacheKey([]byte("b"), "image/png", "Savings"))
	assert.NotEqual(t, base, CacheKey([]byte("a"), "image/jpeg", "Savings"))
	assert.NotEqual(t, base, CacheKey([]byte("a"), "image/png", "Others"))
}
