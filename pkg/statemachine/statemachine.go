// Package statemachine 实现提交状态工作流
// 状态转换表是扁平的,任意状态都可以通过显式动作转换到任意目标状态
// (包括重新进入同一状态),不存在不可达或真正终止的状态
package statemachine

import (
	"fmt"
	"time"

	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// allowedTransitions 状态转换表
// 显式列出完整的转换矩阵,便于整体审阅和测试
// approved -> under_review 等回退转换表示重新打开审核
var allowedTransitions = map[types.SubmissionStatus]map[types.SubmissionStatus]bool{
	types.StatusSubmitted: {
		types.StatusSubmitted:   true,
		types.StatusUnderReview: true,
		types.StatusApproved:    true,
		types.StatusRejected:    true,
	},
	types.StatusUnderReview: {
		types.StatusSubmitted:   true,
		types.StatusUnderReview: true,
		types.StatusApproved:    true,
		types.StatusRejected:    true,
	},
	types.StatusApproved: {
		types.StatusSubmitted:   true,
		types.StatusUnderReview: true,
		types.StatusApproved:    true,
		types.StatusRejected:    true,
	},
	types.StatusRejected: {
		types.StatusSubmitted:   true,
		types.StatusUnderReview: true,
		types.StatusApproved:    true,
		types.StatusRejected:    true,
	},
}

// Options 状态转换参数
type Options struct {
	// ApprovalType 审批通过类型,转换到 approved 时必须提供
	// 不会静默默认为 fully
	ApprovalType *types.ApprovalType

	// Comments 审核意见,为空时使用生成的默认描述
	Comments string

	// ReviewedBy 审核人
	ReviewedBy string

	// At 转换时间,零值时使用当前时间
	At time.Time
}

// CanTransition 判断状态转换是否被允许
func CanTransition(from, to types.SubmissionStatus) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Transition 执行一次状态转换
// 在提交记录的副本上完成整个变更后返回,绝不修改输入;
// 出错时不产生任何变更,保证单条记录的状态、审批类型和日志追加原子生效。
// 每次成功的转换恰好追加一条活动日志;重复执行相同转换得到相同的最终
// 状态,但日志不去重,会追加新的条目
func Transition(sub *types.Submission, target types.SubmissionStatus, opts Options) (*types.Submission, error) {
	if sub == nil {
		return nil, types.NewTransitionError("", target, "submission is nil")
	}
	if !target.Valid() {
		return nil, types.NewTransitionError(sub.Status, target, "unknown target status %q", target)
	}
	if !CanTransition(sub.Status, target) {
		return nil, types.NewTransitionError(sub.Status, target, "transition not allowed")
	}

	if target == types.StatusApproved {
		if opts.ApprovalType == nil {
			return nil, types.NewTransitionError(sub.Status, target, "approval type is required")
		}
		if !opts.ApprovalType.Valid() {
			return nil, types.NewTransitionError(sub.Status, target, "invalid approval type %q", *opts.ApprovalType)
		}
	}

	at := opts.At
	if at.IsZero() {
		at = time.Now()
	}
	comments := opts.Comments
	if comments == "" {
		comments = defaultComments(target)
	}

	updated := sub.Clone()
	updated.Status = target
	if target == types.StatusApproved {
		approvalType := *opts.ApprovalType
		updated.ApprovalType = &approvalType
	} else {
		// approval_type 仅在 approved 状态下有定义
		updated.ApprovalType = nil
	}
	updated.ActivityLog = append(updated.ActivityLog, types.ActivityEntry{
		Action:     string(target),
		Comments:   comments,
		ReviewedBy: opts.ReviewedBy,
		ReviewedAt: at,
	})

	return updated, nil
}

// AutoApprove 基于评分的自动审批策略钩子
// 当表单启用审批且评分百分比达到 auto_approve_score 时,将 submitted
// 状态的提交直接转换为 approved/fully;不满足条件时返回 (nil, false, nil)。
// 策略必须由调用方显式触发,评分引擎内部不会静默执行
func AutoApprove(form *types.Form, sub *types.Submission, score *types.Score) (*types.Submission, bool, error) {
	if form == nil || sub == nil || score == nil {
		return nil, false, nil
	}
	if !form.Settings.Approval.Enabled {
		return nil, false, nil
	}
	if sub.Status != types.StatusSubmitted {
		return nil, false, nil
	}
	if score.Percentage < form.Settings.Approval.AutoApproveScore {
		return nil, false, nil
	}

	approvalType := types.ApprovalFully
	updated, err := Transition(sub, types.StatusApproved, Options{
		ApprovalType: &approvalType,
		Comments:     fmt.Sprintf("Auto-approved with score %d%%", score.Percentage),
		ReviewedBy:   "system",
	})
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// defaultComments 根据目标状态生成默认审核意见
func defaultComments(target types.SubmissionStatus) string {
	switch target {
	case types.StatusSubmitted:
		return "Submission reopened"
	case types.StatusUnderReview:
		return "Moved to review"
	case types.StatusApproved:
		return "Submission approved"
	case types.StatusRejected:
		return "Submission rejected"
	default:
		return fmt.Sprintf("Status changed to %s", target)
	}
}
