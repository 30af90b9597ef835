package dto

import (
	"encoding/json"
	"strings"
)

// Base64UploadRequest is the JSON form of an upload. The payload may sit in
// any of data, file or base64, either as plain base64 or as a data URI.
type Base64UploadRequest struct {
	Data      string `json:"data"`
	File      string `json:"file"`
	Base64    string `json:"base64"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	DocType   string `json:"doc_type"`
	ShgID     string `json:"shg_id"`
	HeaderRow *bool  `json:"header_row"`
}

// Payload returns the first non-empty payload field.
func (r *Base64UploadRequest) Payload() string {
	for _, p := range []string{r.Data, r.File, r.Base64} {
		if strings.TrimSpace(p) != "" {
			return p
		}
	}
	return ""
}

// Validate performs basic validation on the request
func (r *Base64UploadRequest) Validate() error {
	if r.Payload() == "" {
		return ErrNoFile
	}
	return nil
}

// UploadInput is a decoded upload ready for the extraction pipeline.
type UploadInput struct {
	Filename     string
	DeclaredMIME string
	Data         []byte
	DocType      string
	ShgID        string
	HeaderRow    bool
}

// TableUpdateRequest is the body of PUT /table/:id. Rows and columns are kept
// raw so their shape can be checked before normalization.
type TableUpdateRequest struct {
	Title   *string         `json:"title"`
	Columns json.RawMessage `json:"columns"`
	Rows    json.RawMessage `json:"rows"`
}

// DocumentSaveRequest is the body of PUT /shgs/:shgId/documents/:docType.
type DocumentSaveRequest struct {
	Contents json.RawMessage `json:"contents"`
}

// DocumentEditRequest is the body of PATCH /shgs/:shgId/documents/:docType.
type DocumentEditRequest struct {
	Edits []TableEdit `json:"edits"`
}
