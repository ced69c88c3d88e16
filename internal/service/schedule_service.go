package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nayochev/schedule-arranger/internal/attendance"
	"github.com/nayochev/schedule-arranger/internal/dto"
	"github.com/nayochev/schedule-arranger/internal/model"
	"github.com/nayochev/schedule-arranger/internal/repository"
	pkgerrors "github.com/nayochev/schedule-arranger/pkg/errors"
	"github.com/nayochev/schedule-arranger/pkg/metrics"
)

// ── 日程模块业务错误 ──

var (
	ErrScheduleNotFound  = errors.New("日程不存在")
	ErrInvalidScheduleID = errors.New("日程ID格式无效")
	ErrNotScheduleOwner  = errors.New("只有日程创建者可以执行此操作")
)

// scheduleNameMaxLen 日程名最大字符数（按 rune 计）
const scheduleNameMaxLen = 255

// ScheduleService 日程业务接口
type ScheduleService interface {
	// Create 创建日程及候选，返回创建者视角的详情
	Create(ctx context.Context, req *dto.CreateScheduleRequest, caller attendance.User) (*dto.ScheduleDetailResponse, error)
	// List 列出 caller 创建的日程，按更新时间倒序
	List(ctx context.Context, req *dto.ScheduleListRequest, callerID int64) ([]dto.ScheduleResponse, int64, error)
	// GetDetail 日程详情 + viewer 视角的出欠表
	GetDetail(ctx context.Context, id string, viewer attendance.User) (*dto.ScheduleDetailResponse, error)
	// Update 编辑日程并追加候选（仅创建者）
	Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID int64) (*dto.ScheduleResponse, error)
	// Delete 删除日程（仅创建者）
	Delete(ctx context.Context, id string, callerID int64) error
}

type scheduleService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, metrics: m, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest, caller attendance.User) (*dto.ScheduleDetailResponse, error) {
	schedule := &model.Schedule{
		ScheduleID:   uuid.NewString(),
		ScheduleName: truncateRunes(req.ScheduleName, scheduleNameMaxLen),
		Memo:         req.Memo,
		CreatedBy:    caller.UserID,
	}
	schedule.Version = 1
	candidates := buildCandidates(req.Candidates)

	if err := s.repo.Schedule.CreateWithCandidates(ctx, schedule, candidates); err != nil {
		s.logger.Error("创建日程失败", zap.Error(err))
		return nil, err
	}
	s.metrics.IncScheduleCreated()

	s.logger.Info("日程已创建",
		zap.String("schedule_id", schedule.ScheduleID),
		zap.Int64("created_by", caller.UserID),
		zap.Int("candidates", len(candidates)),
	)

	return s.GetDetail(ctx, schedule.ScheduleID, caller)
}

// ────────────────────── List ──────────────────────

func (s *scheduleService) List(ctx context.Context, req *dto.ScheduleListRequest, callerID int64) ([]dto.ScheduleResponse, int64, error) {
	schedules, total, err := s.repo.Schedule.ListByOwner(ctx, callerID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出日程失败", zap.Int64("user_id", callerID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, toScheduleResponse(&schedules[i]))
	}
	return result, total, nil
}

// ────────────────────── GetDetail ──────────────────────

func (s *scheduleService) GetDetail(ctx context.Context, id string, viewer attendance.User) (*dto.ScheduleDetailResponse, error) {
	data, err := loadGrid(ctx, s.repo, s.metrics, id, viewer)
	if err != nil {
		if !errors.Is(err, ErrScheduleNotFound) && !errors.Is(err, ErrInvalidScheduleID) {
			s.logger.Error("读取出欠表失败", zap.String("schedule_id", id), zap.Error(err))
		}
		return nil, err
	}

	return &dto.ScheduleDetailResponse{
		Schedule:   toScheduleResponse(data.schedule),
		Candidates: data.grid.Candidates,
		Users:      data.grid.Users,
		Grid:       data.grid.Cells,
		Summary:    data.grid.Summary(),
	}, nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID int64) (*dto.ScheduleResponse, error) {
	schedule, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if req.Version != nil && *req.Version != schedule.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if req.ScheduleName != nil {
		schedule.ScheduleName = truncateRunes(*req.ScheduleName, scheduleNameMaxLen)
	}
	if req.Memo != nil {
		schedule.Memo = *req.Memo
	}

	if err := s.repo.Schedule.Update(ctx, schedule, buildCandidates(req.Candidates)); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新日程失败", zap.String("schedule_id", id), zap.Error(err))
		}
		return nil, err
	}

	resp := toScheduleResponse(schedule)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleService) Delete(ctx context.Context, id string, callerID int64) error {
	if _, err := s.getOwned(ctx, id, callerID); err != nil {
		return err
	}

	if err := s.repo.Schedule.Delete(ctx, id); err != nil {
		s.logger.Error("删除日程失败", zap.String("schedule_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("日程已删除", zap.String("schedule_id", id), zap.Int64("deleted_by", callerID))
	return nil
}

// ── 辅助函数 ──

// getOwned 读取日程并校验 caller 为创建者
func (s *scheduleService) getOwned(ctx context.Context, id string, callerID int64) (*model.Schedule, error) {
	if err := validateScheduleID(id); err != nil {
		return nil, err
	}

	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询日程失败", zap.String("schedule_id", id), zap.Error(err))
		return nil, err
	}
	if schedule.CreatedBy != callerID {
		return nil, ErrNotScheduleOwner
	}
	return schedule, nil
}

// parseCandidateNames 按行拆分候选文本：整体去首尾空白，逐行去空白，丢弃空行
func parseCandidateNames(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func buildCandidates(text string) []model.Candidate {
	names := parseCandidateNames(text)
	candidates := make([]model.Candidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, model.Candidate{CandidateName: name})
	}
	return candidates
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func toScheduleResponse(s *model.Schedule) dto.ScheduleResponse {
	resp := dto.ScheduleResponse{
		ScheduleID:   s.ScheduleID,
		ScheduleName: s.ScheduleName,
		Memo:         s.Memo,
		CreatedBy:    s.CreatedBy,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
	if s.Owner != nil {
		owner := toUserResponse(s.Owner)
		owner.CreatedAt = ""
		resp.Owner = &owner
	}
	return resp
}
