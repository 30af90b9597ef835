package utils

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/lekhapal/shg-digitizer/dto"
)

var (
	openingFence = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	closingFence = regexp.MustCompile("\\s*```\\s*$")
)

// CleanExtractionResponse isolates the JSON payload of a model completion.
//
// Fenced code blocks are unwrapped first. If what remains is still not valid
// JSON, the text between the first '{' and the last '}' is taken. That slice
// only understands objects: an array embedded in prose comes back as the span
// from its first to its last element, which will not decode.
func CleanExtractionResponse(raw string) string {
	t := strings.TrimSpace(raw)

	if strings.HasPrefix(t, "```") {
		t = openingFence.ReplaceAllString(t, "")
		t = closingFence.ReplaceAllString(t, "")
		t = strings.TrimSpace(t)
	}

	if json.Valid([]byte(t)) {
		return t
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start != -1 && end > start {
		return t[start : end+1]
	}
	return t
}

// ParseExtractionResponse cleans a model completion and decodes it into the
// ordered value model accepted by Normalize.
func ParseExtractionResponse(raw string) (any, error) {
	cleaned := CleanExtractionResponse(raw)
	v, err := DecodeJSON([]byte(cleaned))
	if err != nil {
		return nil, &dto.ExtractionError{Raw: raw, Cleaned: cleaned, Err: err}
	}
	return v, nil
}
