package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/service"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// GetDocument handles GET /shgs/:shgId/documents/:docType
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	shgID, docType := documentKey(c)

	doc, err := h.documentService.GetDocument(c.Request.Context(), shgID, docType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// SaveDocument handles PUT /shgs/:shgId/documents/:docType
func (h *DocumentHandler) SaveDocument(c *gin.Context) {
	shgID, docType := documentKey(c)

	var req dto.DocumentSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: %w", dto.ErrMalformedInput, err))
		return
	}

	doc, err := h.documentService.SaveDocument(c.Request.Context(), shgID, docType, req.Contents)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// EditDocument handles PATCH /shgs/:shgId/documents/:docType
func (h *DocumentHandler) EditDocument(c *gin.Context) {
	shgID, docType := documentKey(c)

	var req dto.DocumentEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: %w", dto.ErrMalformedInput, err))
		return
	}

	doc, err := h.documentService.EditDocument(c.Request.Context(), shgID, docType, req.Edits)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ExportCSV handles GET /shgs/:shgId/documents/:docType/export/csv?table=N
func (h *DocumentHandler) ExportCSV(c *gin.Context) {
	shgID, docType := documentKey(c)

	index, err := strconv.Atoi(c.DefaultQuery("table", "0"))
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: table must be an integer", dto.ErrMalformedInput))
		return
	}

	out, filename, err := h.documentService.ExportDocumentCSV(c.Request.Context(), shgID, docType, index)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendCSV(c, filename, out)
}

func documentKey(c *gin.Context) (string, string) {
	return strings.TrimSpace(c.Param("shgId")), strings.TrimSpace(c.Param("docType"))
}
