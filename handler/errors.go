package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lekhapal/shg-digitizer/dto"
	"go.uber.org/zap"
)

// errorStatuses is checked in order; the first sentinel the error matches
// decides the status code and the error label.
var errorStatuses = []struct {
	err    error
	status int
}{
	{dto.ErrNoFile, http.StatusBadRequest},
	{dto.ErrMalformedInput, http.StatusBadRequest},
	{dto.ErrUnsupportedFileType, http.StatusBadRequest},
	{dto.ErrIndexOutOfRange, http.StatusBadRequest},
	{dto.ErrNotFound, http.StatusNotFound},
	{dto.ErrNoTablesExtracted, http.StatusUnprocessableEntity},
	{dto.ErrUpstreamAPIFailure, http.StatusBadGateway},
	{dto.ErrInvalidExtractionResponse, http.StatusInternalServerError},
	{dto.ErrParseFailure, http.StatusInternalServerError},
	{dto.ErrPersistenceFailure, http.StatusInternalServerError},
}

// statusFor maps a pipeline error onto an HTTP status and a short label.
func statusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// respondError writes the structured error response for err.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, label := statusFor(err)
	sendError(c, logger, status, label, err)
}

// sendError sends a structured error response
func sendError(c *gin.Context, logger *zap.Logger, statusCode int, message string, err error) {
	resp := dto.ErrorResponse{Error: message}

	if err != nil {
		if detail := err.Error(); detail != message {
			resp.Detail = detail
		}

		var extractionErr *dto.ExtractionError
		if errors.As(err, &extractionErr) {
			resp.Raw = extractionErr.Raw
			resp.Cleaned = extractionErr.Cleaned
		}
		var persistErr *dto.PersistenceError
		if errors.As(err, &persistErr) {
			resp.Tables = persistErr.Tables
		}

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Int("status", statusCode),
			zap.Error(err),
		}
		if statusCode >= http.StatusInternalServerError {
			logger.Error(message, fields...)
		} else {
			logger.Info(message, fields...)
		}
	}

	c.AbortWithStatusJSON(statusCode, resp)
}
