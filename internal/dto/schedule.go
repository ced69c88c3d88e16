package dto

import "github.com/nayochev/schedule-arranger/internal/attendance"

// ── 日程模块请求 ──

// CreateScheduleRequest 创建日程
// Candidates 为换行分隔的候选文本，空行忽略
type CreateScheduleRequest struct {
	ScheduleName string `json:"schedule_name" binding:"required"`
	Memo         string `json:"memo"`
	Candidates   string `json:"candidates"`
}

// UpdateScheduleRequest 编辑日程；Candidates 中的候选追加到现有候选之后
type UpdateScheduleRequest struct {
	ScheduleName *string `json:"schedule_name"`
	Memo         *string `json:"memo"`
	Candidates   string  `json:"candidates"`
	Version      *int    `json:"version" binding:"omitempty,min=1"` // 提供时做乐观锁校验
}

// ScheduleListRequest 日程列表
type ScheduleListRequest struct {
	PaginationRequest
}

// ── 日程模块响应 ──

// ScheduleResponse 日程基本信息
type ScheduleResponse struct {
	ScheduleID   string        `json:"schedule_id"`
	ScheduleName string        `json:"schedule_name"`
	Memo         string        `json:"memo"`
	CreatedBy    int64         `json:"created_by"`
	Owner        *UserResponse `json:"owner,omitempty"`
	Version      int           `json:"version"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

// ScheduleDetailResponse 日程详情：基本信息 + 出欠表
type ScheduleDetailResponse struct {
	Schedule   ScheduleResponse                            `json:"schedule"`
	Candidates []attendance.Candidate                      `json:"candidates"`
	Users      []attendance.UserView                       `json:"users"`
	Grid       map[int64]map[int64]attendance.Availability `json:"grid"`
	Summary    []attendance.CandidateSummary               `json:"summary"`
}
