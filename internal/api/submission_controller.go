package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/service"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/utils"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/bulk"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// SubmissionController 提交控制器
type SubmissionController struct {
	submissionService service.SubmissionService
}

// NewSubmissionController 创建提交控制器
func NewSubmissionController(submissionService service.SubmissionService) *SubmissionController {
	return &SubmissionController{
		submissionService: submissionService,
	}
}

// validateSubmissionID 验证提交 ID 并返回错误响应（如果无效）
func (c *SubmissionController) validateSubmissionID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid submission ID", err.Error())
		return false
	}
	return true
}

// BulkFailure 批量操作的单条失败记录
type BulkFailure struct {
	ID     string `json:"id"`     // 提交 ID
	Reason string `json:"reason"` // 失败原因
}

// BulkResult 批量操作结果
type BulkResult struct {
	UpdatedIDs []string      `json:"updated_ids"` // 状态变更成功的提交 ID
	Failures   []BulkFailure `json:"failures"`    // 逐条失败记录
	DeletedIDs []string      `json:"deleted_ids"` // 删除成功的提交 ID
	Notified   []string      `json:"notified"`    // 通知发送成功的提交 ID
}

// Create 接收表单提交
// 表单启用评分时立即评分,满足自动审批条件时直接进入 approved
func (c *SubmissionController) Create(ctx *gin.Context) {
	var req service.CreateSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	sub, err := c.submissionService.Create(ctx.Request.Context(), &req)
	if err != nil {
		ServiceError(ctx, err, "create submission")
		return
	}

	Success(ctx, sub)
}

// Get 获取提交详情
func (c *SubmissionController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSubmissionID(ctx, id) {
		return
	}

	sub, err := c.submissionService.Get(id)
	if err != nil {
		ServiceError(ctx, err, "get submission")
		return
	}

	Success(ctx, sub)
}

// Review 将提交转入人工审核
func (c *SubmissionController) Review(ctx *gin.Context) {
	c.transition(ctx, types.StatusUnderReview)
}

// Approve 审核通过提交
// 必须提供 approval_type(fully/partially)
func (c *SubmissionController) Approve(ctx *gin.Context) {
	c.transition(ctx, types.StatusApproved)
}

// Reject 审核拒绝提交
func (c *SubmissionController) Reject(ctx *gin.Context) {
	c.transition(ctx, types.StatusRejected)
}

// ChangeStatus 转换提交到任意目标状态
func (c *SubmissionController) ChangeStatus(ctx *gin.Context) {
	target := types.SubmissionStatus(ctx.Param("status"))
	if !target.Valid() {
		Error(ctx, http.StatusBadRequest, "invalid target status", string(target))
		return
	}
	c.transition(ctx, target)
}

// transition 执行单条状态转换
func (c *SubmissionController) transition(ctx *gin.Context, target types.SubmissionStatus) {
	id := ctx.Param("id")
	if !c.validateSubmissionID(ctx, id) {
		return
	}

	var req service.TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	sub, err := c.submissionService.Transition(ctx.Request.Context(), id, target, &req)
	if err != nil {
		ServiceError(ctx, err, "transition submission")
		return
	}

	Success(ctx, sub)
}

// Delete 删除单条提交
func (c *SubmissionController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSubmissionID(ctx, id) {
		return
	}

	if err := c.submissionService.Delete(ctx.Request.Context(), id); err != nil {
		ServiceError(ctx, err, "delete submission")
		return
	}

	Success(ctx, nil)
}

// Rescore 对提交重新评分
// 表单阈值或评分配置调整后使用,不改变提交状态
func (c *SubmissionController) Rescore(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateSubmissionID(ctx, id) {
		return
	}

	sub, err := c.submissionService.Rescore(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "rescore submission")
		return
	}

	Success(ctx, sub)
}

// Bulk 批量操作提交
// 单条失败不中断其余条目;配置级错误(非法操作、缺少目标状态)整体快速失败。
// export 操作直接返回 CSV 附件
func (c *SubmissionController) Bulk(ctx *gin.Context) {
	var req service.BulkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.submissionService.Bulk(ctx.Request.Context(), &req)
	if err != nil {
		ServiceError(ctx, err, "apply bulk action")
		return
	}

	if req.Action == bulk.ActionExport {
		ctx.Header("Content-Disposition", `attachment; filename="submissions.csv"`)
		ctx.Data(http.StatusOK, "text/csv; charset=utf-8", result.Export)
		return
	}

	Success(ctx, toBulkResult(result))
}

// toBulkResult 转换批量操作结果为响应格式
func toBulkResult(result *bulk.Result) *BulkResult {
	out := &BulkResult{
		UpdatedIDs: make([]string, 0, len(result.Updated)),
		Failures:   make([]BulkFailure, 0, len(result.Failures)),
		DeletedIDs: result.Deleted,
		Notified:   result.Notified,
	}
	if out.DeletedIDs == nil {
		out.DeletedIDs = []string{}
	}
	if out.Notified == nil {
		out.Notified = []string{}
	}

	for _, sub := range result.Updated {
		out.UpdatedIDs = append(out.UpdatedIDs, sub.ID)
	}
	for _, failure := range result.Failures {
		out.Failures = append(out.Failures, BulkFailure{
			ID:     failure.ID,
			Reason: failure.Reason.Error(),
		})
	}

	return out
}
