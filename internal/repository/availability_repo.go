package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nayochev/schedule-arranger/internal/model"
)

// AvailabilityRepository 出欠数据访问接口
type AvailabilityRepository interface {
	// Upsert 以 (schedule_id, user_id, candidate_id) 为键插入或覆盖 availability
	Upsert(ctx context.Context, a *model.Availability) error
	// ListBySchedule 列出日程的全部出欠，预加载用户
	// 排序约定：users.username 升序，其次 user_id、candidate_id 升序
	// 用户行缺失时保留该出欠且 User 为 nil，由汇总引擎报错
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.Availability, error)
	Get(ctx context.Context, scheduleID string, userID, candidateID int64) (*model.Availability, error)
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) Upsert(ctx context.Context, a *model.Availability) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "schedule_id"},
				{Name: "user_id"},
				{Name: "candidate_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"availability", "updated_at"}),
		}).
		Create(a).Error
}

func (r *availabilityRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Availability, error) {
	var list []model.Availability
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("LEFT JOIN users ON users.user_id = availabilities.user_id").
		Where("availabilities.schedule_id = ?", scheduleID).
		Order("users.username ASC, availabilities.user_id ASC, availabilities.candidate_id ASC").
		Find(&list).Error
	return list, err
}

func (r *availabilityRepo) Get(ctx context.Context, scheduleID string, userID, candidateID int64) (*model.Availability, error) {
	var a model.Availability
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND user_id = ? AND candidate_id = ?", scheduleID, userID, candidateID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
