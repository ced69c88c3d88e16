package model

import "time"

// Availability 出欠表，对应 availabilities
// 主键 (schedule_id, user_id, candidate_id)，重复提交覆盖 availability
type Availability struct {
	ScheduleID   string    `gorm:"type:uuid;primaryKey"             json:"schedule_id"`
	UserID       int64     `gorm:"primaryKey;autoIncrement:false"   json:"user_id"`
	CandidateID  int64     `gorm:"primaryKey;autoIncrement:false"   json:"candidate_id"`
	Availability int       `gorm:"type:smallint;not null;default:0" json:"availability"` // 0 欠席 | 1 未定 | 2 出席
	UpdatedAt    time.Time `gorm:"not null"                         json:"updated_at"`

	// belongs-to，外键为本表 UserID；不写 foreignKey 标签，两侧同名时标签会被解析成 has-one
	User *User `json:"user,omitempty"`
}

// TableName 指定表名
func (Availability) TableName() string { return "availabilities" }
