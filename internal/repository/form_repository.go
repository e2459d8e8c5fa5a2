package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
	"gorm.io/gorm"
)

// FormRepository 表单仓储接口
type FormRepository interface {
	Save(form *types.Form, status string) error
	FindByID(id string) (*types.Form, string, error)
	FindAll() ([]*model.FormModel, error)
	UpdateStatus(id string, status string) error
	Delete(id string) error
}

// formRepository 表单仓储实现
type formRepository struct {
	db *gorm.DB
}

// NewFormRepository 创建表单仓储
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

// Save 保存表单(新建或更新)
func (r *formRepository) Save(form *types.Form, status string) error {
	fm, err := ToFormModel(form, status)
	if err != nil {
		return err
	}
	if err := fm.Validate(); err != nil {
		return fmt.Errorf("invalid form model: %w", err)
	}
	return r.db.Save(fm).Error
}

// FindByID 根据 ID 查找表单,返回表单定义和生命周期状态
func (r *formRepository) FindByID(id string) (*types.Form, string, error) {
	var fm model.FormModel
	if err := r.db.Where("id = ?", id).First(&fm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", types.NewNotFoundError("form", id)
		}
		return nil, "", fmt.Errorf("failed to find form: %w", err)
	}

	form, err := FromFormModel(&fm)
	if err != nil {
		return nil, "", err
	}
	return form, fm.Status, nil
}

// FindAll 查找所有表单
func (r *formRepository) FindAll() ([]*model.FormModel, error) {
	var forms []*model.FormModel
	err := r.db.Order("created_at DESC").Find(&forms).Error
	return forms, err
}

// UpdateStatus 更新表单生命周期状态
func (r *formRepository) UpdateStatus(id string, status string) error {
	result := r.db.Model(&model.FormModel{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update form status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewNotFoundError("form", id)
	}
	return nil
}

// Delete 删除表单
func (r *formRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.FormModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete form: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewNotFoundError("form", id)
	}
	return nil
}

// ToFormModel 将表单定义序列化为数据模型
func ToFormModel(form *types.Form, status string) (*model.FormModel, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form: %w", err)
	}
	return &model.FormModel{
		ID:     form.ID,
		Title:  form.Title,
		Status: status,
		Data:   data,
	}, nil
}

// FromFormModel 从数据模型反序列化表单定义
func FromFormModel(fm *model.FormModel) (*types.Form, error) {
	var form types.Form
	if err := json.Unmarshal(fm.Data, &form); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form %s: %w", fm.ID, err)
	}
	return &form, nil
}
