package repository

import (
	"fmt"

	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"gorm.io/gorm"
)

// ReviewHistoryRepository 审核历史仓储接口
// 历史只追加,从不更新或删除
type ReviewHistoryRepository interface {
	Append(history *model.ReviewHistoryModel) error
	AppendTx(tx *gorm.DB, history *model.ReviewHistoryModel) error
	FindBySubmissionID(submissionID string) ([]*model.ReviewHistoryModel, error)
}

// reviewHistoryRepository 审核历史仓储实现
type reviewHistoryRepository struct {
	db *gorm.DB
}

// NewReviewHistoryRepository 创建审核历史仓储
func NewReviewHistoryRepository(db *gorm.DB) ReviewHistoryRepository {
	return &reviewHistoryRepository{db: db}
}

// Append 追加一条审核历史
func (r *reviewHistoryRepository) Append(history *model.ReviewHistoryModel) error {
	return r.AppendTx(r.db, history)
}

// AppendTx 在给定事务内追加一条审核历史
func (r *reviewHistoryRepository) AppendTx(tx *gorm.DB, history *model.ReviewHistoryModel) error {
	if err := history.Validate(); err != nil {
		return fmt.Errorf("invalid review history: %w", err)
	}
	return tx.Create(history).Error
}

// FindBySubmissionID 查找某个提交的审核历史,按时间升序
func (r *reviewHistoryRepository) FindBySubmissionID(submissionID string) ([]*model.ReviewHistoryModel, error) {
	var histories []*model.ReviewHistoryModel
	err := r.db.Where("submission_id = ?", submissionID).Order("created_at ASC").Find(&histories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query review history: %w", err)
	}
	return histories, nil
}
