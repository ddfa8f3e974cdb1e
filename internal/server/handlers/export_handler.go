package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/service/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler exposes the spreadsheet download endpoint.
type ExportHandler struct {
	svc    *export.Service
	logger *zap.Logger
}

// NewExportHandler constructs the HTTP handler adapter.
func NewExportHandler(svc *export.Service, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{svc: svc, logger: logger}
}

// Export streams an xlsx workbook of every quotation as an attachment.
// With nothing stored it answers 404 rather than an empty workbook.
func (h *ExportHandler) Export(c *gin.Context) {
	data, err := h.svc.ExportAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, export.ErrNoQuotations) {
			c.JSON(http.StatusNotFound, gin.H{"message": "no quotations to export"})
			return
		}
		h.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to generate spreadsheet"})
		return
	}

	filename := fmt.Sprintf("cotacoes_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
