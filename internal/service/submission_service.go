package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/metrics"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/repository"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/utils"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/bulk"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/scoring"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/statemachine"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
	"gorm.io/gorm"
)

// SubmissionService 提交服务接口
type SubmissionService interface {
	Create(ctx context.Context, req *CreateSubmissionRequest) (*types.Submission, error)
	Get(id string) (*types.Submission, error)
	Transition(ctx context.Context, id string, target types.SubmissionStatus, req *TransitionRequest) (*types.Submission, error)
	Rescore(ctx context.Context, id string) (*types.Submission, error)
	Delete(ctx context.Context, id string) error
	// 批量操作方法
	Bulk(ctx context.Context, req *BulkRequest) (*bulk.Result, error)
}

// CreateSubmissionRequest 创建提交请求
type CreateSubmissionRequest struct {
	FormID         string               `json:"form_id" binding:"required"`         // 表单 ID
	SubmitterEmail string               `json:"submitter_email" binding:"required"` // 提交人邮箱
	SubmitterName  string               `json:"submitter_name"`                     // 提交人姓名
	CompanyName    string               `json:"company_name"`                       // 公司名
	SubmissionType types.SubmissionType `json:"submission_type"`                    // vendor/internal/external
	TimeSpent      *int                 `json:"time_spent"`                         // 填写耗时(分钟)
	Responses      map[string]any       `json:"responses" binding:"required"`       // 字段回答
	Documents      []types.Document     `json:"documents"`                          // 附件引用
}

// TransitionRequest 状态转换请求
type TransitionRequest struct {
	ApprovalType *types.ApprovalType `json:"approval_type"` // 转换到 approved 时必填
	Comments     string              `json:"comments"`      // 审核意见
	ReviewedBy   string              `json:"reviewed_by" binding:"required"` // 审核人
}

// BulkRequest 批量操作请求
type BulkRequest struct {
	Action        bulk.Action             `json:"action" binding:"required"` // 操作类型
	SubmissionIDs []string                `json:"submission_ids" binding:"required"` // 提交 ID 列表
	TargetStatus  *types.SubmissionStatus `json:"target_status"`  // change_status 的目标状态
	ApprovalType  *types.ApprovalType     `json:"approval_type"`  // 审批通过类型
	Comments      string                  `json:"comments"`       // 审核意见
	ReviewedBy    string                  `json:"reviewed_by"`    // 审核人
	EmailSubject  string                  `json:"email_subject"`  // 通知邮件主题
	EmailBody     string                  `json:"email_body"`     // 通知邮件正文
}

// EventPublisher 提交生命周期事件发布接口
// 由 websocket hub 实现,向审核面板推送实时更新
type EventPublisher interface {
	PublishSubmissionEvent(eventType string, sub *types.Submission)
}

// submissionService 提交服务实现
type submissionService struct {
	db          *gorm.DB
	formRepo    repository.FormRepository
	subRepo     repository.SubmissionRepository
	historyRepo repository.ReviewHistoryRepository
	processor   *bulk.Processor
	publisher   EventPublisher
	logger      *logrus.Logger
}

// NewSubmissionService 创建提交服务
// publisher 可以为 nil,此时不推送实时事件
func NewSubmissionService(db *gorm.DB, notifier bulk.Notifier, publisher EventPublisher, logger *logrus.Logger) SubmissionService {
	return &submissionService{
		db:          db,
		formRepo:    repository.NewFormRepository(db),
		subRepo:     repository.NewSubmissionRepository(db),
		historyRepo: repository.NewReviewHistoryRepository(db),
		processor:   bulk.NewProcessor(notifier),
		publisher:   publisher,
		logger:      logger,
	}
}

// Create 接收一次表单提交
// 提交创建时状态固定为 submitted;表单启用评分时立即评分,
// 满足表单审批配置的自动审批条件时直接转换到 approved/fully
func (s *submissionService) Create(ctx context.Context, req *CreateSubmissionRequest) (*types.Submission, error) {
	if err := utils.ValidateEmail(req.SubmitterEmail); err != nil {
		return nil, fmt.Errorf("invalid submitter email: %w", err)
	}

	form, formStatus, err := s.formRepo.FindByID(req.FormID)
	if err != nil {
		return nil, err
	}
	if formStatus != model.FormStatusPublished {
		return nil, fmt.Errorf("form %s is not published", req.FormID)
	}

	sub := &types.Submission{
		ID:             uuid.NewString(),
		FormID:         form.ID,
		SubmitterEmail: req.SubmitterEmail,
		SubmitterName:  req.SubmitterName,
		CompanyName:    req.CompanyName,
		SubmissionType: req.SubmissionType,
		SubmittedAt:    time.Now(),
		TimeSpent:      req.TimeSpent,
		Responses:      req.Responses,
		Documents:      req.Documents,
		Status:         types.StatusSubmitted,
	}

	// 表单启用评分时在提交时刻评分,结果持久化在提交记录上
	score, err := scoring.Score(form, sub)
	if err != nil {
		return nil, err
	}
	sub.Score = score

	// 基于评分的自动审批是显式的策略调用,不在评分引擎内部触发
	if autoApproved, ok, err := statemachine.AutoApprove(form, sub, score); err != nil {
		return nil, err
	} else if ok {
		sub = autoApproved
		metrics.RecordAutoApproval()
	}

	if err := s.persistWithHistory(sub, string(types.StatusSubmitted), sub.Status, "system"); err != nil {
		return nil, err
	}

	metrics.RecordSubmissionCreated()
	s.publish("submission.created", sub)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"submission_id": sub.ID,
			"form_id":       sub.FormID,
			"status":        sub.Status,
		}).Info("Submission created")
	}

	return sub, nil
}

// Get 获取提交详情
func (s *submissionService) Get(id string) (*types.Submission, error) {
	return s.subRepo.FindByID(id)
}

// Transition 执行单条提交的状态转换
// 单条操作快速失败:状态机拒绝时不产生任何变更,错误直接上抛
func (s *submissionService) Transition(ctx context.Context, id string, target types.SubmissionStatus, req *TransitionRequest) (*types.Submission, error) {
	sub, err := s.subRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	from := sub.Status
	updated, err := statemachine.Transition(sub, target, statemachine.Options{
		ApprovalType: req.ApprovalType,
		Comments:     req.Comments,
		ReviewedBy:   req.ReviewedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistWithHistory(updated, string(from), updated.Status, req.ReviewedBy); err != nil {
		return nil, err
	}

	metrics.RecordTransition(string(target))
	s.publish("submission.status_changed", updated)

	return updated, nil
}

// Rescore 重新评分
// 幂等操作,整体替换提交上的评分结果;表单未启用评分时清除评分
func (s *submissionService) Rescore(ctx context.Context, id string) (*types.Submission, error) {
	sub, err := s.subRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	form, _, err := s.formRepo.FindByID(sub.FormID)
	if err != nil {
		return nil, err
	}

	score, err := scoring.Score(form, sub)
	if err != nil {
		return nil, err
	}

	updated := sub.Clone()
	updated.Score = score
	if err := s.subRepo.Save(updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete 删除单条提交
func (s *submissionService) Delete(ctx context.Context, id string) error {
	if _, err := s.subRepo.FindByID(id); err != nil {
		return err
	}

	if _, err := s.subRepo.DeleteByIDs([]string{id}); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.WithField("submission_id", id).Info("Submission deleted")
	}
	return nil
}

// Bulk 执行批量操作
// 逐条隔离失败,始终返回完整的成功/失败结果供调用方展示部分成功;
// delete 操作在处理器上报待删除 ID 后委托仓储执行物理删除
func (s *submissionService) Bulk(ctx context.Context, req *BulkRequest) (*bulk.Result, error) {
	subs, err := s.subRepo.FindByIDs(req.SubmissionIDs)
	if err != nil {
		return nil, err
	}

	result, err := s.processor.Apply(ctx, req.Action, req.SubmissionIDs, subs, bulk.Params{
		TargetStatus: req.TargetStatus,
		ApprovalType: req.ApprovalType,
		Comments:     req.Comments,
		ReviewedBy:   req.ReviewedBy,
		EmailSubject: req.EmailSubject,
		EmailBody:    req.EmailBody,
	})
	if err != nil {
		return nil, err
	}

	// 持久化状态变更成功的条目,持久化失败降级为该条目的失败记录
	persisted := result.Updated[:0]
	for _, updated := range result.Updated {
		from := statusBefore(updated)
		if err := s.persistWithHistory(updated, from, updated.Status, req.ReviewedBy); err != nil {
			result.Failures = append(result.Failures, bulk.Failure{ID: updated.ID, Reason: err})
			continue
		}
		persisted = append(persisted, updated)
		metrics.RecordTransition(string(updated.Status))
		s.publish("submission.status_changed", updated)
	}
	result.Updated = persisted

	if len(result.Deleted) > 0 {
		if _, err := s.subRepo.DeleteByIDs(result.Deleted); err != nil {
			return nil, err
		}
	}

	metrics.RecordBulkAction(string(req.Action))
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"action":   req.Action,
			"total":    len(req.SubmissionIDs),
			"updated":  len(result.Updated),
			"failures": len(result.Failures),
		}).Info("Bulk action processed")
	}

	return result, nil
}

// persistWithHistory 在同一个事务内保存提交并追加一条审核历史
// 保证单条记录的状态、评分和日志变更原子生效
func (s *submissionService) persistWithHistory(sub *types.Submission, fromStatus string, toStatus types.SubmissionStatus, reviewedBy string) error {
	if reviewedBy == "" {
		reviewedBy = "system"
	}
	comments := ""
	if n := len(sub.ActivityLog); n > 0 {
		comments = sub.ActivityLog[n-1].Comments
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.subRepo.SaveTx(tx, sub); err != nil {
			return err
		}
		return s.historyRepo.AppendTx(tx, &model.ReviewHistoryModel{
			ID:           uuid.NewString(),
			SubmissionID: sub.ID,
			FromStatus:   fromStatus,
			ToStatus:     string(toStatus),
			Comments:     comments,
			ReviewedBy:   reviewedBy,
			CreatedAt:    time.Now(),
		})
	})
}

// statusBefore 根据活动日志推导转换前的状态
// 日志只追加,倒数第二条的 action 即为上一个状态
func statusBefore(sub *types.Submission) string {
	if n := len(sub.ActivityLog); n >= 2 {
		return sub.ActivityLog[n-2].Action
	}
	return string(types.StatusSubmitted)
}

// publish 推送提交生命周期事件
func (s *submissionService) publish(eventType string, sub *types.Submission) {
	if s.publisher != nil {
		s.publisher.PublishSubmissionEvent(eventType, sub)
	}
}
