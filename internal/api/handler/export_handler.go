package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/nayochev/schedule-arranger/internal/service"
	"github.com/nayochev/schedule-arranger/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportGrid 出欠表导出为 Excel
// GET /api/v1/schedules/:id/export.xlsx
func (h *ExportHandler) ExportGrid(c *gin.Context) {
	viewer, ok := MustGetViewer(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportGrid(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportCalendar 候选导出为 iCalendar
// GET /api/v1/schedules/:id/export.ics
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	viewer, ok := MustGetViewer(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeICS, buf.Bytes())
}

// attachment 设置下载响应头并写入内容
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	encodedFilename := url.PathEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrExportGenerateFail) {
		response.Error(c, http.StatusInternalServerError, 14001, "生成导出文件失败")
		return
	}
	handleScheduleError(c, err)
}
