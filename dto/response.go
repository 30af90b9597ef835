package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string  `json:"error"`
	Detail  string  `json:"detail,omitempty"`
	Raw     string  `json:"raw,omitempty"`
	Cleaned string  `json:"cleaned,omitempty"`
	Tables  []Table `json:"tables,omitempty"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	TableID    string  `json:"tableId"`
	Tables     []Table `json:"tables"`
	DocumentID uint    `json:"documentId,omitempty"`
}

// DocumentResponse is a stored document with its contents re-normalized.
type DocumentResponse struct {
	ID       uint    `json:"id"`
	ShgID    string  `json:"shg_id"`
	DocType  string  `json:"doc_type"`
	Contents []Table `json:"contents"`
}
