package model

import (
	"errors"
	"time"
)

// SubmissionModel 提交数据模型
// Data 为序列化后的 types.Submission(含回答、评分和活动日志),
// 状态、风险等级、评分百分比等冗余为索引列供 SQL 统计使用
type SubmissionModel struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)"`
	FormID          string    `gorm:"type:varchar(64);not null;index"`
	Status          string    `gorm:"type:varchar(32);not null;index"` // 提交状态
	ApprovalType    string    `gorm:"type:varchar(16)"`                // 仅 approved 时有值
	RiskLevel       string    `gorm:"type:varchar(16);index"`          // 未评分时为空
	ScorePercentage *int      `gorm:"type:int"`                        // 未评分时为 NULL
	SubmitterEmail  string    `gorm:"type:varchar(255);not null;index"`
	CompanyName     string    `gorm:"type:varchar(255);index"`
	SubmissionType  string    `gorm:"type:varchar(16);index"` // vendor/internal/external
	SubmittedAt     time.Time `gorm:"not null;index"`
	Data            []byte    `gorm:"type:jsonb;not null"` // 序列化后的 Submission 对象
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (SubmissionModel) TableName() string {
	return "submissions"
}

// Validate 验证提交模型
func (sm *SubmissionModel) Validate() error {
	if sm.ID == "" {
		return errors.New("submission ID is required")
	}
	if sm.FormID == "" {
		return errors.New("form ID is required")
	}
	if sm.Status == "" {
		return errors.New("submission status is required")
	}
	if sm.SubmitterEmail == "" {
		return errors.New("submitter email is required")
	}
	if len(sm.Data) == 0 {
		return errors.New("submission data is required")
	}
	return nil
}
