package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// maxHintChars caps the text layer forwarded to the extraction prompt.
const maxHintChars = 4000

type PDFProcessor interface {
	ExtractText(pdfData []byte) (string, error)
	PageCount(pdfData []byte) (int, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// ExtractText returns the embedded text layer, one line per text row.
// Scanned registers usually have none and yield an empty string.
func (p *pdfProcessor) ExtractText(pdfData []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var textBuilder strings.Builder
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			textBuilder.WriteString(strings.Join(words, " "))
			textBuilder.WriteString("\n")
		}
	}
	return strings.TrimSpace(textBuilder.String()), nil
}

func (p *pdfProcessor) PageCount(pdfData []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdfData), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to count pdf pages: %w", err)
	}
	return n, nil
}

// PDFHinter turns a PDF's page count and text layer into a prompt hint.
type PDFHinter struct {
	processor PDFProcessor
}

func NewPDFHinter(processor PDFProcessor) *PDFHinter {
	return &PDFHinter{processor: processor}
}

func (h *PDFHinter) HintText(_ context.Context, data []byte, mimeType string) (string, error) {
	if mimeType != mimePDF {
		return "", nil
	}

	pages, err := h.processor.PageCount(data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The PDF has %d page(s). Extract tables from every page.", pages)

	text, err := h.processor.ExtractText(data)
	if err != nil {
		return b.String(), nil
	}
	if text != "" {
		b.WriteString("\nEmbedded text layer, for cross-checking the scan:\n")
		b.WriteString(truncateRunes(text, maxHintChars))
	}
	return b.String(), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
