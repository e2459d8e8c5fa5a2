package model

import (
	"errors"
	"time"
)

// ReviewHistoryModel 审核历史数据模型
// 每次工作流状态转换追加一行,从不更新或删除
type ReviewHistoryModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	SubmissionID string    `gorm:"type:varchar(64);not null;index"`
	FromStatus   string    `gorm:"type:varchar(32)"`
	ToStatus     string    `gorm:"type:varchar(32);not null"`
	Comments     string    `gorm:"type:text"`
	ReviewedBy   string    `gorm:"type:varchar(64);not null"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (ReviewHistoryModel) TableName() string {
	return "review_history"
}

// Validate 验证审核历史模型
func (rhm *ReviewHistoryModel) Validate() error {
	if rhm.ID == "" {
		return errors.New("history ID is required")
	}
	if rhm.SubmissionID == "" {
		return errors.New("submission ID is required")
	}
	if rhm.ToStatus == "" {
		return errors.New("to status is required")
	}
	if rhm.ReviewedBy == "" {
		return errors.New("reviewer is required")
	}
	return nil
}
