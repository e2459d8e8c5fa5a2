// Package bulk 实现批量操作处理器
// 将一个工作流转换(或导出/删除/通知)应用到选定的提交 ID 集合上,
// 逐条委托给状态机,单条失败不中断其余条目,成功与失败分别累积上报
package bulk

import (
	"context"
	"fmt"

	"github.com/solidrange/solidrange-form-flow-sub000/pkg/statemachine"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// Action 批量操作类型
type Action string

// 支持的批量操作
const (
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionUnderReview  Action = "under_review"
	ActionChangeStatus Action = "change_status"
	ActionSendEmail    Action = "send_email"
	ActionExport       Action = "export"
	ActionDelete       Action = "delete"
)

// Valid 判断操作类型是否合法
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionUnderReview, ActionChangeStatus,
		ActionSendEmail, ActionExport, ActionDelete:
		return true
	}
	return false
}

// Params 批量操作参数
type Params struct {
	// TargetStatus change_status 操作的目标状态,缺失时快速失败
	TargetStatus *types.SubmissionStatus

	// ApprovalType 审批通过类型,目标状态为 approved 时必须提供
	ApprovalType *types.ApprovalType

	Comments   string
	ReviewedBy string

	// 邮件通知参数,仅 send_email 操作使用
	EmailSubject string
	EmailBody    string
}

// Failure 单条失败记录
type Failure struct {
	ID     string
	Reason error
}

// Result 批量操作结果
// 成功与失败分别累积,调用方可以展示部分成功的结果
type Result struct {
	// Updated 状态变更成功的提交(新副本,待调用方持久化)
	Updated []*types.Submission

	// Failures 逐条失败记录
	Failures []Failure

	// Deleted 待外部存储删除的提交 ID,核心自身不执行物理删除
	Deleted []string

	// Notified 通知发送成功的提交 ID
	Notified []string

	// Export 导出操作产出的表格文本
	Export []byte
}

// Notifier 通知协作方
// send_email 操作通过它逐个收件人发送,部分送达是正常结果而非异常
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Processor 批量操作处理器
type Processor struct {
	notifier Notifier
}

// NewProcessor 创建批量操作处理器
// notifier 可以为 nil,此时 send_email 操作会快速失败
func NewProcessor(notifier Notifier) *Processor {
	return &Processor{notifier: notifier}
}

// Apply 对选定的提交 ID 集合执行一个批量操作
// 按 ID 列表顺序逐条处理,条目之间检查 ctx 取消;单条条目内部不会中途
// 让出。参数级错误(非法操作、change_status 缺少目标状态)在处理任何
// 条目之前快速失败;条目级错误累积到 Result.Failures 并继续处理
func (p *Processor) Apply(ctx context.Context, action Action, ids []string, submissions []*types.Submission, params Params) (*Result, error) {
	if !action.Valid() {
		return nil, types.NewConfigurationError("unknown bulk action %q", action)
	}
	if action == ActionChangeStatus && params.TargetStatus == nil {
		return nil, types.NewConfigurationError("change_status requires a target status")
	}
	if action == ActionSendEmail && p.notifier == nil {
		return nil, types.NewConfigurationError("send_email requires a notifier")
	}

	byID := make(map[string]*types.Submission, len(submissions))
	for _, sub := range submissions {
		byID[sub.ID] = sub
	}

	result := &Result{}
	var exported []*types.Submission

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		sub, ok := byID[id]
		if !ok {
			result.Failures = append(result.Failures, Failure{
				ID:     id,
				Reason: types.NewNotFoundError("submission", id),
			})
			continue
		}

		switch action {
		case ActionSendEmail:
			if err := p.notifier.Send(ctx, sub.SubmitterEmail, params.EmailSubject, params.EmailBody); err != nil {
				result.Failures = append(result.Failures, Failure{
					ID:     id,
					Reason: types.NewNotificationError(sub.SubmitterEmail, err),
				})
				continue
			}
			result.Notified = append(result.Notified, id)

		case ActionExport:
			exported = append(exported, sub)

		case ActionDelete:
			// 物理删除委托给外部存储,这里只上报待删除的 ID
			result.Deleted = append(result.Deleted, id)

		default:
			updated, err := p.transition(sub, action, params)
			if err != nil {
				result.Failures = append(result.Failures, Failure{ID: id, Reason: err})
				continue
			}
			result.Updated = append(result.Updated, updated)
		}
	}

	if action == ActionExport {
		blob, err := ExportCSV(exported)
		if err != nil {
			return result, fmt.Errorf("failed to build export: %w", err)
		}
		result.Export = blob
	}

	return result, nil
}

// transition 将状态类批量操作映射为一次状态机转换
func (p *Processor) transition(sub *types.Submission, action Action, params Params) (*types.Submission, error) {
	var target types.SubmissionStatus
	switch action {
	case ActionApprove:
		target = types.StatusApproved
	case ActionReject:
		target = types.StatusRejected
	case ActionUnderReview:
		target = types.StatusUnderReview
	case ActionChangeStatus:
		target = *params.TargetStatus
	default:
		return nil, types.NewConfigurationError("action %q is not a status transition", action)
	}

	comments := params.Comments
	if comments == "" {
		comments = defaultBulkComments(target)
	}

	return statemachine.Transition(sub, target, statemachine.Options{
		ApprovalType: params.ApprovalType,
		Comments:     comments,
		ReviewedBy:   params.ReviewedBy,
	})
}

// defaultBulkComments 批量操作的默认审核意见
func defaultBulkComments(target types.SubmissionStatus) string {
	switch target {
	case types.StatusApproved:
		return "Bulk approved"
	case types.StatusRejected:
		return "Bulk rejected"
	case types.StatusUnderReview:
		return "Bulk moved to review"
	default:
		return fmt.Sprintf("Bulk status change to %s", target)
	}
}
