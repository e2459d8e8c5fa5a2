package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/config"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/service"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/bulk"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/query"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testLogger 测试用日志记录器
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// newSubmissionService 构造提交服务,通知走禁用 SMTP 的日志降级路径
func newSubmissionService(db *gorm.DB) service.SubmissionService {
	notifier := service.NewNotificationService(config.SMTPConfig{Enabled: false}, testLogger())
	return service.NewSubmissionService(db, notifier, nil, testLogger())
}

// publishScoringForm 创建并发布启用评分和自动审批的表单
func publishScoringForm(t *testing.T, db *gorm.DB, autoApproveScore int) *types.Form {
	t.Helper()

	formSvc := service.NewFormService(db)
	req := validFormRequest()
	req.Settings.Approval = types.ApprovalSettings{
		Enabled:          autoApproveScore > 0,
		AutoApproveScore: autoApproveScore,
	}

	form, err := formSvc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, formSvc.Publish(context.Background(), form.ID))
	return form
}

// createSubmission 通过服务创建提交
func createSubmission(t *testing.T, svc service.SubmissionService, formID, email string, responses map[string]any) *types.Submission {
	t.Helper()

	sub, err := svc.Create(context.Background(), &service.CreateSubmissionRequest{
		FormID:         formID,
		SubmitterEmail: email,
		Responses:      responses,
	})
	require.NoError(t, err)
	return sub
}

// TestSubmissionServiceCreateScores 测试提交创建即评分
func TestSubmissionServiceCreateScores(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	sub := createSubmission(t, svc, form.ID, "vendor@example.com", map[string]any{"q1": "yes"})

	assert.Equal(t, types.StatusSubmitted, sub.Status)
	require.NotNil(t, sub.Score)
	assert.Equal(t, 100, sub.Score.Percentage)
	assert.Equal(t, types.RiskLow, sub.Score.RiskLevel)

	// 持久化后可读回
	loaded, err := svc.Get(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, loaded.ID)
	require.NotNil(t, loaded.Score)
	assert.Equal(t, 100, loaded.Score.Percentage)
}

// TestSubmissionServiceAutoApprove 测试达到阈值时自动审批
func TestSubmissionServiceAutoApprove(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 80)
	svc := newSubmissionService(db)

	sub := createSubmission(t, svc, form.ID, "vendor@example.com", map[string]any{"q1": "yes"})

	assert.Equal(t, types.StatusApproved, sub.Status)
	require.NotNil(t, sub.ApprovalType)
	assert.Equal(t, types.ApprovalFully, *sub.ApprovalType)
	require.Len(t, sub.ActivityLog, 1)
	assert.Equal(t, "system", sub.ActivityLog[0].ReviewedBy)

	// 未达到阈值的提交保持 submitted
	low := createSubmission(t, svc, form.ID, "other@example.com", map[string]any{"q1": "no"})
	assert.Equal(t, types.StatusSubmitted, low.Status)
}

// TestSubmissionServiceCreateRejectsUnpublished 测试未发布表单拒收提交
func TestSubmissionServiceCreateRejectsUnpublished(t *testing.T) {
	db := setupTestDB(t)
	formSvc := service.NewFormService(db)
	form, err := formSvc.Create(context.Background(), validFormRequest())
	require.NoError(t, err)

	svc := newSubmissionService(db)
	_, err = svc.Create(context.Background(), &service.CreateSubmissionRequest{
		FormID:         form.ID,
		SubmitterEmail: "vendor@example.com",
		Responses:      map[string]any{"q1": "yes"},
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not published"))
}

// TestSubmissionServiceCreateInvalidEmail 测试非法邮箱快速失败
func TestSubmissionServiceCreateInvalidEmail(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	_, err := svc.Create(context.Background(), &service.CreateSubmissionRequest{
		FormID:         form.ID,
		SubmitterEmail: "not-an-email",
		Responses:      map[string]any{"q1": "yes"},
	})
	assert.Error(t, err)
}

// TestSubmissionServiceTransition 测试单条状态转换和审核历史
func TestSubmissionServiceTransition(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)
	ctx := context.Background()

	sub := createSubmission(t, svc, form.ID, "vendor@example.com", map[string]any{"q1": "no"})

	// 转入人工审核
	updated, err := svc.Transition(ctx, sub.ID, types.StatusUnderReview, &service.TransitionRequest{
		Comments:   "需要补充材料",
		ReviewedBy: "reviewer-001",
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnderReview, updated.Status)

	// 审批通过必须提供审批类型
	_, err = svc.Transition(ctx, sub.ID, types.StatusApproved, &service.TransitionRequest{
		ReviewedBy: "reviewer-001",
	})
	var transErr *types.TransitionError
	require.ErrorAs(t, err, &transErr)

	// 带类型的审批通过
	partially := types.ApprovalPartially
	updated, err = svc.Transition(ctx, sub.ID, types.StatusApproved, &service.TransitionRequest{
		ApprovalType: &partially,
		ReviewedBy:   "reviewer-001",
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, updated.Status)

	// 审核历史逐条追加
	querySvc := service.NewQueryService(db)
	history, err := querySvc.GetHistory(sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 3) // 创建 + 两次成功转换
	assert.Equal(t, "submitted", history[0].ToStatus)
	assert.Equal(t, "under_review", history[1].ToStatus)
	assert.Equal(t, "approved", history[2].ToStatus)
}

// TestSubmissionServiceRescore 测试重新评分
func TestSubmissionServiceRescore(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	sub := createSubmission(t, svc, form.ID, "vendor@example.com", map[string]any{"q1": "yes"})
	require.NotNil(t, sub.Score)

	rescored, err := svc.Rescore(context.Background(), sub.ID)
	require.NoError(t, err)

	// 表单未变时重新评分结果一致,状态不变
	assert.Equal(t, sub.Score, rescored.Score)
	assert.Equal(t, sub.Status, rescored.Status)
}

// TestSubmissionServiceDelete 测试删除单条提交
func TestSubmissionServiceDelete(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	sub := createSubmission(t, svc, form.ID, "vendor@example.com", map[string]any{"q1": "yes"})
	require.NoError(t, svc.Delete(context.Background(), sub.ID))

	_, err := svc.Get(sub.ID)
	var notFound *types.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	// 删除不存在的提交返回 NotFoundError
	err = svc.Delete(context.Background(), "missing")
	assert.ErrorAs(t, err, &notFound)
}

// TestSubmissionServiceBulkApprove 测试批量审批的部分成功
func TestSubmissionServiceBulkApprove(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	a := createSubmission(t, svc, form.ID, "a@example.com", map[string]any{"q1": "yes"})
	c := createSubmission(t, svc, form.ID, "c@example.com", map[string]any{"q1": "no"})

	fully := types.ApprovalFully
	result, err := svc.Bulk(context.Background(), &service.BulkRequest{
		Action:        bulk.ActionApprove,
		SubmissionIDs: []string{a.ID, "missing", c.ID},
		ApprovalType:  &fully,
		ReviewedBy:    "reviewer-001",
	})
	require.NoError(t, err)

	require.Len(t, result.Updated, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "missing", result.Failures[0].ID)

	// 状态变更已持久化
	loaded, err := svc.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, loaded.Status)
}

// TestSubmissionServiceBulkChangeStatusFailFast 测试配置级错误快速失败
func TestSubmissionServiceBulkChangeStatusFailFast(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	sub := createSubmission(t, svc, form.ID, "a@example.com", map[string]any{"q1": "yes"})

	_, err := svc.Bulk(context.Background(), &service.BulkRequest{
		Action:        bulk.ActionChangeStatus,
		SubmissionIDs: []string{sub.ID},
	})
	var cfgErr *types.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	// 没有任何条目被修改
	loaded, err := svc.Get(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, loaded.Status)
}

// TestSubmissionServiceBulkDelete 测试批量删除
func TestSubmissionServiceBulkDelete(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	a := createSubmission(t, svc, form.ID, "a@example.com", map[string]any{"q1": "yes"})
	b := createSubmission(t, svc, form.ID, "b@example.com", map[string]any{"q1": "no"})

	result, err := svc.Bulk(context.Background(), &service.BulkRequest{
		Action:        bulk.ActionDelete,
		SubmissionIDs: []string{a.ID, b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, result.Deleted)

	_, err = svc.Get(a.ID)
	var notFound *types.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestSubmissionServiceBulkSendEmail 测试批量通知(SMTP 禁用时降级为日志)
func TestSubmissionServiceBulkSendEmail(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	a := createSubmission(t, svc, form.ID, "a@example.com", map[string]any{"q1": "yes"})

	result, err := svc.Bulk(context.Background(), &service.BulkRequest{
		Action:        bulk.ActionSendEmail,
		SubmissionIDs: []string{a.ID},
		EmailSubject:  "审核结果",
		EmailBody:     "您的提交已收到",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, result.Notified)
	assert.Empty(t, result.Failures)
}

// TestSubmissionServiceBulkExport 测试批量导出
func TestSubmissionServiceBulkExport(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	a := createSubmission(t, svc, form.ID, "a@example.com", map[string]any{"q1": "yes"})

	result, err := svc.Bulk(context.Background(), &service.BulkRequest{
		Action:        bulk.ActionExport,
		SubmissionIDs: []string{a.ID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Export)

	lines := strings.Split(strings.TrimSpace(string(result.Export)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,company,submitter,email,status,score,risk_level,submitted_at", lines[0])
	assert.Contains(t, lines[1], a.ID)
}

// TestQueryServiceListSubmissions 测试提交列表的过滤与分页
func TestQueryServiceListSubmissions(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)

	high := createSubmission(t, svc, form.ID, "high@example.com", map[string]any{"q1": "yes"})
	low := createSubmission(t, svc, form.ID, "low@example.com", map[string]any{"q1": "no"})

	querySvc := service.NewQueryService(db)

	// 不过滤时返回全部
	subs, total, err := querySvc.ListSubmissions(form.ID, query.Spec{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, subs, 2)

	// 按风险等级过滤
	subs, total, err = querySvc.ListSubmissions(form.ID, query.Spec{
		RiskLevel: []types.RiskLevel{types.RiskLow},
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, subs, 1)
	assert.Equal(t, high.ID, subs[0].ID)

	// 按搜索词过滤
	subs, _, err = querySvc.ListSubmissions(form.ID, query.Spec{SearchTerm: "low@"}, 1, 20)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, low.ID, subs[0].ID)

	// 分页超出范围返回空页,总数不变
	subs, total, err = querySvc.ListSubmissions(form.ID, query.Spec{}, 5, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, subs)
}

// TestStatisticsService 测试统计服务
func TestStatisticsService(t *testing.T) {
	db := setupTestDB(t)
	form := publishScoringForm(t, db, 0)
	svc := newSubmissionService(db)
	ctx := context.Background()

	a := createSubmission(t, svc, form.ID, "a@example.com", map[string]any{"q1": "yes"})
	createSubmission(t, svc, form.ID, "b@example.com", map[string]any{"q1": "no"})

	fully := types.ApprovalFully
	_, err := svc.Transition(ctx, a.ID, types.StatusApproved, &service.TransitionRequest{
		ApprovalType: &fully,
		ReviewedBy:   "reviewer-001",
	})
	require.NoError(t, err)

	statsSvc := service.NewStatisticsService(db)

	byStatus, err := statsSvc.GetSubmissionStatisticsByStatus()
	require.NoError(t, err)
	counts := make(map[string]int64)
	for _, s := range byStatus {
		counts[s.Status] = s.Count
	}
	assert.Equal(t, int64(1), counts["approved"])
	assert.Equal(t, int64(1), counts["submitted"])

	byRisk, err := statsSvc.GetSubmissionStatisticsByRisk()
	require.NoError(t, err)
	assert.NotEmpty(t, byRisk)

	review, err := statsSvc.GetReviewStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(2), review.TotalSubmissions)
	assert.Equal(t, int64(1), review.ApprovedCount)
	assert.Equal(t, int64(0), review.RejectedCount)
	assert.Equal(t, 100.0, review.ApprovalRate)
}
