package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
	"gorm.io/gorm"
)

// SubmissionRepository 提交仓储接口
type SubmissionRepository interface {
	Save(sub *types.Submission) error
	SaveTx(tx *gorm.DB, sub *types.Submission) error
	FindByID(id string) (*types.Submission, error)
	FindByForm(formID string) ([]*types.Submission, error)
	FindByIDs(ids []string) ([]*types.Submission, error)
	FindAll() ([]*types.Submission, error)
	DeleteByIDs(ids []string) (int64, error)
}

// submissionRepository 提交仓储实现
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交仓储
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Save 保存提交记录(新建或更新)
func (r *submissionRepository) Save(sub *types.Submission) error {
	return r.SaveTx(r.db, sub)
}

// SaveTx 在给定事务内保存提交记录
// 服务层用它将提交更新和审核历史追加放进同一个事务
func (r *submissionRepository) SaveTx(tx *gorm.DB, sub *types.Submission) error {
	sm, err := ToSubmissionModel(sub)
	if err != nil {
		return err
	}
	if err := sm.Validate(); err != nil {
		return fmt.Errorf("invalid submission model: %w", err)
	}
	return tx.Save(sm).Error
}

// FindByID 根据 ID 查找提交记录
func (r *submissionRepository) FindByID(id string) (*types.Submission, error) {
	var sm model.SubmissionModel
	if err := r.db.Where("id = ?", id).First(&sm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFoundError("submission", id)
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return FromSubmissionModel(&sm)
}

// FindByForm 查找某个表单的所有提交,按提交时间升序
// 升序保证过滤/排序引擎在相等键上的稳定顺序可预期
func (r *submissionRepository) FindByForm(formID string) ([]*types.Submission, error) {
	var models []model.SubmissionModel
	if err := r.db.Where("form_id = ?", formID).Order("submitted_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	return fromSubmissionModels(models)
}

// FindByIDs 根据 ID 集合查找提交记录
// 缺失的 ID 不报错,由调用方(批量处理器)识别并记录为单条失败
func (r *submissionRepository) FindByIDs(ids []string) ([]*types.Submission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []model.SubmissionModel
	if err := r.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	return fromSubmissionModels(models)
}

// FindAll 查找所有提交记录
func (r *submissionRepository) FindAll() ([]*types.Submission, error) {
	var models []model.SubmissionModel
	if err := r.db.Order("submitted_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	return fromSubmissionModels(models)
}

// DeleteByIDs 按 ID 集合删除提交记录,返回删除行数
func (r *submissionRepository) DeleteByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&model.SubmissionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete submissions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// fromSubmissionModels 批量反序列化,跳过损坏的记录
func fromSubmissionModels(models []model.SubmissionModel) ([]*types.Submission, error) {
	subs := make([]*types.Submission, 0, len(models))
	for i := range models {
		sub, err := FromSubmissionModel(&models[i])
		if err != nil {
			continue // 跳过无法反序列化的提交
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// ToSubmissionModel 将提交记录序列化为数据模型
// 状态、风险等级、评分百分比冗余为索引列供统计查询使用
func ToSubmissionModel(sub *types.Submission) (*model.SubmissionModel, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}

	sm := &model.SubmissionModel{
		ID:             sub.ID,
		FormID:         sub.FormID,
		Status:         string(sub.Status),
		SubmitterEmail: sub.SubmitterEmail,
		CompanyName:    sub.CompanyName,
		SubmissionType: string(sub.SubmissionType),
		SubmittedAt:    sub.SubmittedAt,
		Data:           data,
	}
	if sub.ApprovalType != nil {
		sm.ApprovalType = string(*sub.ApprovalType)
	}
	if sub.Score != nil {
		sm.RiskLevel = string(sub.Score.RiskLevel)
		pct := sub.Score.Percentage
		sm.ScorePercentage = &pct
	}
	return sm, nil
}

// FromSubmissionModel 从数据模型反序列化提交记录
func FromSubmissionModel(sm *model.SubmissionModel) (*types.Submission, error) {
	var sub types.Submission
	if err := json.Unmarshal(sm.Data, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission %s: %w", sm.ID, err)
	}
	return &sub, nil
}
