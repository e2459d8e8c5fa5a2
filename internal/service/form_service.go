package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/repository"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/utils"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/scoring"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
	"gorm.io/gorm"
)

// FormService 表单服务接口
type FormService interface {
	Create(ctx context.Context, req *CreateFormRequest) (*types.Form, error)
	Get(id string) (*types.Form, string, error)
	List() ([]*FormSummary, error)
	Update(ctx context.Context, id string, req *UpdateFormRequest) (*types.Form, error)
	Publish(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CreateFormRequest 创建表单请求
type CreateFormRequest struct {
	Title       string             `json:"title" binding:"required"` // 表单标题
	Description string             `json:"description"`              // 表单描述
	Fields      []types.FormField  `json:"fields" binding:"required"` // 字段定义
	Settings    types.FormSettings `json:"settings"`                 // 评分与审批配置
}

// UpdateFormRequest 更新表单请求
type UpdateFormRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	Fields      []types.FormField  `json:"fields" binding:"required"`
	Settings    types.FormSettings `json:"settings"`
}

// FormSummary 表单摘要
type FormSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// formService 表单服务实现
type formService struct {
	db       *gorm.DB
	formRepo repository.FormRepository
}

// NewFormService 创建表单服务
func NewFormService(db *gorm.DB) FormService {
	return &formService{
		db:       db,
		formRepo: repository.NewFormRepository(db),
	}
}

// Create 创建表单,初始状态为草稿
func (s *formService) Create(ctx context.Context, req *CreateFormRequest) (*types.Form, error) {
	form := &types.Form{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Fields:      req.Fields,
		Settings:    req.Settings,
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}

	if err := s.formRepo.Save(form, model.FormStatusDraft); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	return form, nil
}

// Get 获取表单定义和生命周期状态
func (s *formService) Get(id string) (*types.Form, string, error) {
	return s.formRepo.FindByID(id)
}

// List 列出所有表单摘要
func (s *formService) List() ([]*FormSummary, error) {
	models, err := s.formRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	summaries := make([]*FormSummary, 0, len(models))
	for _, fm := range models {
		summaries = append(summaries, &FormSummary{
			ID:        fm.ID,
			Title:     fm.Title,
			Status:    fm.Status,
			CreatedAt: fm.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return summaries, nil
}

// Update 更新表单
// 表单在审核会话中视为不可变,只允许更新草稿状态的表单
func (s *formService) Update(ctx context.Context, id string, req *UpdateFormRequest) (*types.Form, error) {
	existing, status, err := s.formRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if status != model.FormStatusDraft {
		return nil, fmt.Errorf("cannot update form in %s status: only draft forms are editable", status)
	}

	form := &types.Form{
		ID:          existing.ID,
		Title:       req.Title,
		Description: req.Description,
		Fields:      req.Fields,
		Settings:    req.Settings,
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}

	if err := s.formRepo.Save(form, model.FormStatusDraft); err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}
	return form, nil
}

// Publish 发布表单,发布后开始接收提交
func (s *formService) Publish(ctx context.Context, id string) error {
	form, _, err := s.formRepo.FindByID(id)
	if err != nil {
		return err
	}
	// 发布前校验评分配置,避免提交时才发现阈值非法
	if form.Settings.Scoring.Enabled {
		if err := scoring.ValidateThresholds(form.Settings.Scoring.RiskThresholds); err != nil {
			return err
		}
	}
	return s.formRepo.UpdateStatus(id, model.FormStatusPublished)
}

// Archive 归档表单,停止接收新提交
func (s *formService) Archive(ctx context.Context, id string) error {
	return s.formRepo.UpdateStatus(id, model.FormStatusArchived)
}

// Delete 删除表单
func (s *formService) Delete(ctx context.Context, id string) error {
	_, status, err := s.formRepo.FindByID(id)
	if err != nil {
		return err
	}
	if status == model.FormStatusPublished {
		return fmt.Errorf("cannot delete a published form: archive it first")
	}
	return s.formRepo.Delete(id)
}

// validateForm 校验表单定义
func validateForm(form *types.Form) error {
	if err := utils.ValidateFormTitle(form.Title); err != nil {
		return fmt.Errorf("invalid form title: %w", err)
	}

	seen := make(map[string]struct{}, len(form.Fields))
	for i := range form.Fields {
		field := &form.Fields[i]
		if field.ID == "" {
			return fmt.Errorf("field at index %d has no ID", i)
		}
		if _, dup := seen[field.ID]; dup {
			return fmt.Errorf("duplicate field ID %q", field.ID)
		}
		seen[field.ID] = struct{}{}

		if len(field.Options) > 0 && !field.Type.IsChoice() {
			return fmt.Errorf("field %q: options are only valid for choice types", field.ID)
		}
		if field.Scoring != nil && len(field.Scoring.CorrectAnswers) > 0 {
			if !field.Type.IsChoice() {
				return fmt.Errorf("field %q: correct answers require a choice type", field.ID)
			}
			// 标准答案必须是 options 的子集
			options := make(map[string]struct{}, len(field.Options))
			for _, opt := range field.Options {
				options[opt] = struct{}{}
			}
			for _, answer := range field.Scoring.CorrectAnswers {
				if _, ok := options[answer]; !ok {
					return fmt.Errorf("field %q: correct answer %q is not an option", field.ID, answer)
				}
			}
		}
	}

	if form.Settings.Scoring.Enabled {
		if err := scoring.ValidateThresholds(form.Settings.Scoring.RiskThresholds); err != nil {
			return err
		}
	}
	return nil
}
