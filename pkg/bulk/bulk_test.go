package bulk_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/solidrange/solidrange-form-flow-sub000/pkg/bulk"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier 测试用通知器,按收件人配置失败
type fakeNotifier struct {
	failFor map[string]error
	sent    []string
}

func (n *fakeNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if err, ok := n.failFor[recipient]; ok {
		return err
	}
	n.sent = append(n.sent, recipient)
	return nil
}

// testSubmission 构造测试提交
func testSubmission(id string, status types.SubmissionStatus) *types.Submission {
	return &types.Submission{
		ID:             id,
		FormID:         "form-001",
		SubmitterEmail: id + "@example.com",
		SubmitterName:  "Submitter " + id,
		CompanyName:    "Company " + id,
		SubmittedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:         status,
	}
}

// TestApplyUnknownAction 测试非法操作快速失败
func TestApplyUnknownAction(t *testing.T) {
	p := bulk.NewProcessor(nil)

	result, err := p.Apply(context.Background(), "explode", []string{"a"}, nil, bulk.Params{})
	assert.Nil(t, result)

	var cfgErr *types.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

// TestApplyChangeStatusRequiresTarget 测试 change_status 缺少目标状态时快速失败
func TestApplyChangeStatusRequiresTarget(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{testSubmission("a", types.StatusSubmitted)}

	result, err := p.Apply(context.Background(), bulk.ActionChangeStatus, []string{"a"}, subs, bulk.Params{})
	assert.Nil(t, result)

	var cfgErr *types.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	// 快速失败,没有任何条目被处理
	assert.Equal(t, types.StatusSubmitted, subs[0].Status)
}

// TestApplyApproveWithMissingID 测试缺失 ID 不中断其余条目
func TestApplyApproveWithMissingID(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{
		testSubmission("a", types.StatusSubmitted),
		testSubmission("c", types.StatusUnderReview),
	}
	fully := types.ApprovalFully

	result, err := p.Apply(context.Background(), bulk.ActionApprove, []string{"a", "b", "c"}, subs, bulk.Params{
		ApprovalType: &fully,
		ReviewedBy:   "reviewer-001",
	})
	require.NoError(t, err)

	require.Len(t, result.Updated, 2)
	assert.Equal(t, "a", result.Updated[0].ID)
	assert.Equal(t, "c", result.Updated[1].ID)
	for _, updated := range result.Updated {
		assert.Equal(t, types.StatusApproved, updated.Status)
		require.NotNil(t, updated.ApprovalType)
		assert.Equal(t, types.ApprovalFully, *updated.ApprovalType)
	}

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "b", result.Failures[0].ID)
	var notFound *types.NotFoundError
	assert.ErrorAs(t, result.Failures[0].Reason, &notFound)

	// 原始提交不被修改,更新的是副本
	assert.Equal(t, types.StatusSubmitted, subs[0].Status)
}

// TestApplyApproveWithoutType 测试批量审批缺少审批类型时逐条失败
func TestApplyApproveWithoutType(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{
		testSubmission("a", types.StatusSubmitted),
		testSubmission("b", types.StatusSubmitted),
	}

	result, err := p.Apply(context.Background(), bulk.ActionApprove, []string{"a", "b"}, subs, bulk.Params{})
	require.NoError(t, err)

	assert.Empty(t, result.Updated)
	require.Len(t, result.Failures, 2)
	var transErr *types.TransitionError
	assert.ErrorAs(t, result.Failures[0].Reason, &transErr)
}

// TestApplyReject 测试批量拒绝和默认意见
func TestApplyReject(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{testSubmission("a", types.StatusUnderReview)}

	result, err := p.Apply(context.Background(), bulk.ActionReject, []string{"a"}, subs, bulk.Params{
		ReviewedBy: "reviewer-001",
	})
	require.NoError(t, err)

	require.Len(t, result.Updated, 1)
	updated := result.Updated[0]
	assert.Equal(t, types.StatusRejected, updated.Status)
	require.Len(t, updated.ActivityLog, 1)
	assert.Equal(t, "Bulk rejected", updated.ActivityLog[0].Comments)
}

// TestApplyChangeStatus 测试批量状态变更
func TestApplyChangeStatus(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{
		testSubmission("a", types.StatusApproved),
		testSubmission("b", types.StatusRejected),
	}
	target := types.StatusUnderReview

	result, err := p.Apply(context.Background(), bulk.ActionChangeStatus, []string{"a", "b"}, subs, bulk.Params{
		TargetStatus: &target,
	})
	require.NoError(t, err)

	require.Len(t, result.Updated, 2)
	for _, updated := range result.Updated {
		assert.Equal(t, types.StatusUnderReview, updated.Status)
	}
}

// TestApplySendEmailPartialFailure 测试通知部分失败不中断
func TestApplySendEmailPartialFailure(t *testing.T) {
	notifier := &fakeNotifier{
		failFor: map[string]error{"b@example.com": errors.New("mailbox full")},
	}
	p := bulk.NewProcessor(notifier)
	subs := []*types.Submission{
		testSubmission("a", types.StatusSubmitted),
		testSubmission("b", types.StatusSubmitted),
		testSubmission("c", types.StatusSubmitted),
	}

	result, err := p.Apply(context.Background(), bulk.ActionSendEmail, []string{"a", "b", "c"}, subs, bulk.Params{
		EmailSubject: "审核结果",
		EmailBody:    "您的提交已处理",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, result.Notified)
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, notifier.sent)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "b", result.Failures[0].ID)
	var notifErr *types.NotificationError
	require.ErrorAs(t, result.Failures[0].Reason, &notifErr)
	assert.Equal(t, "b@example.com", notifErr.Recipient)
}

// TestApplySendEmailWithoutNotifier 测试缺少通知器时快速失败
func TestApplySendEmailWithoutNotifier(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{testSubmission("a", types.StatusSubmitted)}

	result, err := p.Apply(context.Background(), bulk.ActionSendEmail, []string{"a"}, subs, bulk.Params{})
	assert.Nil(t, result)

	var cfgErr *types.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

// TestApplyDelete 测试批量删除只上报待删除 ID
func TestApplyDelete(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{
		testSubmission("a", types.StatusRejected),
		testSubmission("b", types.StatusRejected),
	}

	result, err := p.Apply(context.Background(), bulk.ActionDelete, []string{"a", "missing", "b"}, subs, bulk.Params{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, result.Deleted)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "missing", result.Failures[0].ID)
}

// TestApplyExport 测试批量导出 CSV
func TestApplyExport(t *testing.T) {
	p := bulk.NewProcessor(nil)
	scored := testSubmission("a", types.StatusApproved)
	scored.Score = &types.Score{Percentage: 85, RiskLevel: types.RiskLow}
	subs := []*types.Submission{
		scored,
		testSubmission("b", types.StatusSubmitted), // 未评分
	}

	result, err := p.Apply(context.Background(), bulk.ActionExport, []string{"a", "b"}, subs, bulk.Params{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Export)

	lines := strings.Split(strings.TrimSpace(string(result.Export)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,company,submitter,email,status,score,risk_level,submitted_at", lines[0])
	assert.Equal(t, "a,Company a,Submitter a,a@example.com,approved,85,low,2025-06-01T12:00:00Z", lines[1])
	assert.Equal(t, "b,Company b,Submitter b,b@example.com,submitted,,,2025-06-01T12:00:00Z", lines[2])
}

// TestApplyContextCanceled 测试条目之间响应取消
func TestApplyContextCanceled(t *testing.T) {
	p := bulk.NewProcessor(nil)
	subs := []*types.Submission{testSubmission("a", types.StatusRejected)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Apply(ctx, bulk.ActionDelete, []string{"a"}, subs, bulk.Params{})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestExportCSVEmpty 测试空集合导出只有表头
func TestExportCSVEmpty(t *testing.T) {
	blob, err := bulk.ExportCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "id,company,submitter,email,status,score,risk_level,submitted_at\n", string(blob))
}
