package service

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lekhapal/shg-digitizer/dto"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"
)

// genericMIMEs are sniff results too vague to override what the client declared.
var genericMIMEs = []string{"application/octet-stream", "text/plain", "application/zip"}

// DetectMIME resolves the content type of an upload. The sniffed type wins
// when it is specific; otherwise the declared type, then the file extension.
func DetectMIME(data []byte, declared, filename string) string {
	if len(data) > 0 {
		sniffed := mimetype.Detect(data)
		if !isGenericMIME(sniffed) {
			return baseMIME(sniffed.String())
		}
	}

	if declared = baseMIME(declared); declared != "" && declared != "application/octet-stream" {
		return declared
	}

	return inferMimeType(filename)
}

func isGenericType(mt string) bool {
	for _, g := range genericMIMEs {
		if mt == g {
			return true
		}
	}
	return false
}

func isGenericMIME(m *mimetype.MIME) bool {
	for _, g := range genericMIMEs {
		if m.Is(g) {
			return true
		}
	}
	return false
}

// baseMIME lowercases a content type and strips its parameters.
func baseMIME(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// inferMimeType infers MIME type from file extension
func inferMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return mimeCSV
	case ".xlsx":
		return mimeXLSX
	case ".xls":
		return mimeXLS
	case ".pdf":
		return mimePDF
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".docx":
		return mimeDOCX
	}
	return ""
}

// Classify picks the parsing strategy for an upload from its resolved MIME
// type. The filename extension only decides when the type is unknown or
// generic, so a PNG named register.csv still goes to AI extraction.
func Classify(filename, mimeType string) (dto.FileCategory, error) {
	mt := baseMIME(mimeType)

	switch {
	case mt == mimeCSV:
		return dto.CategoryCSV, nil
	case mt == mimeXLSX || mt == mimeXLS:
		return dto.CategorySpreadsheet, nil
	case strings.HasPrefix(mt, "image/") || mt == mimePDF || mt == mimeDOCX:
		return dto.CategoryAIFallback, nil
	case mt != "" && !isGenericType(mt):
		return "", dto.ErrUnsupportedFileType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return dto.CategoryCSV, nil
	case ".xlsx", ".xls":
		return dto.CategorySpreadsheet, nil
	case ".docx":
		return dto.CategoryAIFallback, nil
	}
	return "", dto.ErrUnsupportedFileType
}
