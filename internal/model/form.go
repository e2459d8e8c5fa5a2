package model

import (
	"errors"
	"time"
)

// 表单生命周期状态
const (
	FormStatusDraft     = "draft"
	FormStatusPublished = "published"
	FormStatusArchived  = "archived"
)

// FormModel 表单数据模型
// Data 为序列化后的 types.Form,常用查询字段冗余为索引列
type FormModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Status    string    `gorm:"type:varchar(32);not null;index"` // draft/published/archived
	Data      []byte    `gorm:"type:jsonb;not null"`             // 序列化后的 Form 对象
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (FormModel) TableName() string {
	return "forms"
}

// Validate 验证表单模型
func (fm *FormModel) Validate() error {
	if fm.ID == "" {
		return errors.New("form ID is required")
	}
	if fm.Title == "" {
		return errors.New("form title is required")
	}
	if fm.Status == "" {
		return errors.New("form status is required")
	}
	if len(fm.Data) == 0 {
		return errors.New("form data is required")
	}
	return nil
}
