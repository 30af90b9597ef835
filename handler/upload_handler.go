package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/service"
	"go.uber.org/zap"
)

type UploadHandler struct {
	uploadService    *service.UploadService
	maxUploadBytes   int64
	defaultHeaderRow bool
	logger           *zap.Logger
}

func NewUploadHandler(uploadService *service.UploadService, maxUploadBytes int64, defaultHeaderRow bool, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService:    uploadService,
		maxUploadBytes:   maxUploadBytes,
		defaultHeaderRow: defaultHeaderRow,
		logger:           logger,
	}
}

// Upload handles POST /upload. The file comes either as the multipart field
// "file" or as base64 inside a JSON body.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var (
		input *dto.UploadInput
		err   error
	)
	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/"):
		input, err = h.multipartInput(c)
	case contentType == "application/json":
		input, err = h.jsonInput(c)
	default:
		err = dto.ErrNoFile
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp, err := h.uploadService.Upload(c.Request.Context(), *input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UploadHandler) multipartInput(c *gin.Context) (*dto.UploadInput, error) {
	fileHeader, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, dto.ErrNoFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dto.ErrMalformedInput, err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open uploaded file: %w", dto.ErrMalformedInput, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file data: %w", dto.ErrMalformedInput, err)
	}
	if len(data) == 0 {
		return nil, dto.ErrNoFile
	}

	headerRow, err := h.headerRow(c.PostForm("header_row"))
	if err != nil {
		return nil, err
	}

	return &dto.UploadInput{
		Filename:     fileHeader.Filename,
		DeclaredMIME: fileHeader.Header.Get("Content-Type"),
		Data:         data,
		DocType:      strings.TrimSpace(c.PostForm("doc_type")),
		ShgID:        strings.TrimSpace(c.PostForm("shg_id")),
		HeaderRow:    headerRow,
	}, nil
}

func (h *UploadHandler) jsonInput(c *gin.Context) (*dto.UploadInput, error) {
	var req dto.Base64UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", dto.ErrMalformedInput, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, uriMIME, err := decodePayload(req.Payload())
	if err != nil {
		return nil, err
	}

	declared := req.Type
	if declared == "" {
		declared = uriMIME
	}
	headerRow := h.defaultHeaderRow
	if req.HeaderRow != nil {
		headerRow = *req.HeaderRow
	}

	return &dto.UploadInput{
		Filename:     req.Name,
		DeclaredMIME: declared,
		Data:         data,
		DocType:      strings.TrimSpace(req.DocType),
		ShgID:        strings.TrimSpace(req.ShgID),
		HeaderRow:    headerRow,
	}, nil
}

func (h *UploadHandler) headerRow(value string) (bool, error) {
	if value == "" {
		return h.defaultHeaderRow, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: header_row must be a boolean", dto.ErrMalformedInput)
	}
	return b, nil
}

// decodePayload accepts plain base64 or a data:<mime>;base64,<data> URI and
// returns the bytes with the URI's MIME type, if any.
func decodePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)

	mimeType := ""
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("%w: data URI without payload", dto.ErrMalformedInput)
		}
		meta := payload[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: data URI must be base64 encoded", dto.ErrMalformedInput)
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		payload = payload[comma+1:]
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil {
			if len(data) == 0 {
				return nil, "", dto.ErrNoFile
			}
			return data, mimeType, nil
		}
	}
	return nil, "", fmt.Errorf("%w: payload is not valid base64", dto.ErrMalformedInput)
}
