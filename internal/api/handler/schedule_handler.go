package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nayochev/schedule-arranger/internal/dto"
	"github.com/nayochev/schedule-arranger/internal/service"
	pkgerrors "github.com/nayochev/schedule-arranger/pkg/errors"
	"github.com/nayochev/schedule-arranger/pkg/response"
)

// ScheduleHandler 日程模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListSchedules 我创建的日程
// GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.scheduleSvc.List(c.Request.Context(), &req, userID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateSchedule 创建日程
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	viewer, ok := MustGetViewer(c)
	if !ok {
		return
	}

	detail, err := h.scheduleSvc.Create(c.Request.Context(), &req, viewer)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.Created(c, detail)
}

// GetSchedule 日程详情与出欠表
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	viewer, ok := MustGetViewer(c)
	if !ok {
		return
	}

	detail, err := h.scheduleSvc.GetDetail(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, detail)
}

// UpdateSchedule 编辑日程
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// DeleteSchedule 删除日程
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleScheduleError 日程相关错误映射，导出与出欠接口共用
func handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 12001, "日程不存在")
	case errors.Is(err, service.ErrInvalidScheduleID):
		response.BadRequest(c, 12002, "日程ID格式无效")
	case errors.Is(err, service.ErrNotScheduleOwner):
		response.Forbidden(c, 12003, "只有日程创建者可以执行此操作")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12004, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
