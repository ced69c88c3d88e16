package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nayochev/schedule-arranger/internal/model"
	pkgerrors "github.com/nayochev/schedule-arranger/pkg/errors"
)

// ScheduleRepository 日程数据访问接口
type ScheduleRepository interface {
	// CreateWithCandidates 在同一事务中创建日程与候选，候选按切片顺序插入
	CreateWithCandidates(ctx context.Context, schedule *model.Schedule, candidates []model.Candidate) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	// ListByOwner 按 updated_at 降序列出用户创建的日程
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]model.Schedule, int64, error)
	// Update 乐观锁更新日程并追加候选
	Update(ctx context.Context, schedule *model.Schedule, newCandidates []model.Candidate) error
	// Delete 删除日程及其候选、出欠
	Delete(ctx context.Context, id string) error
}

// CandidateRepository 候选日程数据访问接口
type CandidateRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Candidate, error)
	// ListBySchedule 按 candidate_id 升序列出候选
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.Candidate, error)
}

// ── Schedule Repository 实现 ──

type scheduleRepo struct {
	db *gorm.DB
}

func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) CreateWithCandidates(ctx context.Context, schedule *model.Schedule, candidates []model.Candidate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "Candidates").Create(schedule).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}
		for i := range candidates {
			candidates[i].ScheduleID = schedule.ScheduleID
		}
		return tx.Create(&candidates).Error
	})
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]model.Schedule, int64, error) {
	var schedules []model.Schedule
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Schedule{}).Where("created_by = ?", ownerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Owner").
		Order("updated_at DESC, schedule_id ASC").
		Offset(offset).Limit(limit).
		Find(&schedules).Error; err != nil {
		return nil, 0, err
	}

	return schedules, total, nil
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *model.Schedule, newCandidates []model.Candidate) error {
	oldVersion := schedule.Version
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Schedule{}).
			Where("schedule_id = ? AND version = ?", schedule.ScheduleID, oldVersion).
			Updates(map[string]interface{}{
				"schedule_name": schedule.ScheduleName,
				"memo":          schedule.Memo,
				"updated_at":    now,
				"version":       oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		if len(newCandidates) == 0 {
			return nil
		}
		for i := range newCandidates {
			newCandidates[i].ScheduleID = schedule.ScheduleID
		}
		return tx.Create(&newCandidates).Error
	})
	if err != nil {
		return err
	}

	schedule.Version = oldVersion + 1
	schedule.UpdatedAt = now
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", id).Delete(&model.Availability{}).Error; err != nil {
			return err
		}
		if err := tx.Where("schedule_id = ?", id).Delete(&model.Candidate{}).Error; err != nil {
			return err
		}
		return tx.Where("schedule_id = ?", id).Delete(&model.Schedule{}).Error
	})
}

// ── Candidate Repository 实现 ──

type candidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) GetByID(ctx context.Context, id int64) (*model.Candidate, error) {
	var candidate model.Candidate
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", id).
		First(&candidate).Error
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (r *candidateRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Candidate, error) {
	var candidates []model.Candidate
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("candidate_id ASC").
		Find(&candidates).Error
	return candidates, err
}
