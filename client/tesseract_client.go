package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// minHintConfidence is the average word confidence below which OCR text is
// considered noise and not forwarded as a hint.
const minHintConfidence = 40.0

type TesseractClient struct {
	dataPath  string
	languages []string
}

func NewTesseractClient(dataPath string, languages ...string) *TesseractClient {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractClient{
		dataPath:  dataPath,
		languages: languages,
	}
}

func (tc *TesseractClient) newEngine() (*gosseract.Client, error) {
	engine := gosseract.NewClient()
	if tc.dataPath != "" {
		engine.SetTessdataPrefix(tc.dataPath)
	}
	if err := engine.SetLanguage(tc.languages...); err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return engine, nil
}

// ExtractTextAndQuality runs OCR over an in-memory image and returns the
// text with the average word confidence (0-100).
func (tc *TesseractClient) ExtractTextAndQuality(image []byte) (string, float64, error) {
	engine, err := tc.newEngine()
	if err != nil {
		return "", 0, err
	}
	defer engine.Close()

	if err := engine.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := engine.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	boxes, err := engine.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return text, 0, nil
	}

	var totalConf float64
	for _, box := range boxes {
		totalConf += box.Confidence
	}
	avgConf := 0.0
	if len(boxes) > 0 {
		avgConf = totalConf / float64(len(boxes))
	}

	return text, avgConf, nil
}

// HintText returns local OCR text for image uploads so the extraction model
// can cross-check faint handwriting. Other MIME types yield no hint.
func (tc *TesseractClient) HintText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, conf, err := tc.ExtractTextAndQuality(data)
	if err != nil {
		return "", fmt.Errorf("OCR extraction failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" || conf < minHintConfidence {
		return "", nil
	}
	return fmt.Sprintf("Local OCR text (average confidence %.0f%%):\n%s", conf, text), nil
}
