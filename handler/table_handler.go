package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/service"
	"go.uber.org/zap"
)

type TableHandler struct {
	documentService *service.DocumentService
	logger          *zap.Logger
}

func NewTableHandler(documentService *service.DocumentService, logger *zap.Logger) *TableHandler {
	return &TableHandler{
		documentService: documentService,
		logger:          logger,
	}
}

// GetTable handles GET /table/:id
func (h *TableHandler) GetTable(c *gin.Context) {
	id, ok := h.tableID(c)
	if !ok {
		return
	}

	rec, err := h.documentService.GetTable(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateTable handles PUT /table/:id
func (h *TableHandler) UpdateTable(c *gin.Context) {
	id, ok := h.tableID(c)
	if !ok {
		return
	}

	var req dto.TableUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: %w", dto.ErrMalformedInput, err))
		return
	}

	rec, err := h.documentService.UpdateTable(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ExportCSV handles GET /table/:id/export/csv
func (h *TableHandler) ExportCSV(c *gin.Context) {
	id, ok := h.tableID(c)
	if !ok {
		return
	}

	out, filename, err := h.documentService.ExportTableCSV(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	sendCSV(c, filename, out)
}

func (h *TableHandler) tableID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		sendError(c, h.logger, http.StatusBadRequest, "invalid id", nil)
		return "", false
	}
	return id, true
}

func sendCSV(c *gin.Context, filename, body string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}
