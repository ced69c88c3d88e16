package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/nayochev/schedule-arranger/internal/attendance"
	"github.com/nayochev/schedule-arranger/internal/model"
	"github.com/nayochev/schedule-arranger/internal/repository"
	"github.com/nayochev/schedule-arranger/pkg/metrics"
)

// gridData 一次读取得到的日程与出欠表
type gridData struct {
	schedule *model.Schedule
	grid     *attendance.Grid
}

// validateScheduleID schedule_id 必须是 UUID
func validateScheduleID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidScheduleID
	}
	return nil
}

// loadGrid 并发读取日程、候选、出欠三部分，全部完成后再汇总
// 任一读取失败即取消其余读取并返回首个错误
func loadGrid(ctx context.Context, repo *repository.Repository, m *metrics.Metrics, scheduleID string, viewer attendance.User) (*gridData, error) {
	if err := validateScheduleID(scheduleID); err != nil {
		return nil, err
	}

	var (
		schedule   *model.Schedule
		candidates []model.Candidate
		answers    []model.Availability
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := repo.Schedule.GetByID(gctx, scheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleNotFound
			}
			return fmt.Errorf("查询日程失败: %w", err)
		}
		schedule = s
		return nil
	})
	g.Go(func() error {
		list, err := repo.Candidate.ListBySchedule(gctx, scheduleID)
		if err != nil {
			return fmt.Errorf("查询候选失败: %w", err)
		}
		candidates = list
		return nil
	})
	g.Go(func() error {
		list, err := repo.Availability.ListBySchedule(gctx, scheduleID)
		if err != nil {
			return fmt.Errorf("查询出欠失败: %w", err)
		}
		answers = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grid, err := attendance.Aggregate(viewer, toEngineCandidates(candidates), toEngineAnswers(answers))
	if err != nil {
		return nil, err
	}
	m.ObserveGrid(len(grid.Users))

	return &gridData{schedule: schedule, grid: grid}, nil
}

func toEngineCandidates(list []model.Candidate) []attendance.Candidate {
	result := make([]attendance.Candidate, 0, len(list))
	for _, c := range list {
		result = append(result, attendance.Candidate{
			CandidateID:   c.CandidateID,
			CandidateName: c.CandidateName,
		})
	}
	return result
}

// toEngineAnswers 保留仓储层给出的顺序；未预加载的用户保持 nil，由引擎拒绝
func toEngineAnswers(list []model.Availability) []attendance.Answer {
	result := make([]attendance.Answer, 0, len(list))
	for _, a := range list {
		ans := attendance.Answer{
			UserID:       a.UserID,
			CandidateID:  a.CandidateID,
			Availability: attendance.Availability(a.Availability),
		}
		if a.User != nil {
			ans.User = &attendance.User{UserID: a.User.UserID, Username: a.User.Username}
		}
		result = append(result, ans)
	}
	return result
}
