package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/service"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/utils"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/query"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// 分页默认值
const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 200
)

// QueryController 提交查询控制器
// 审核面板的列表、过滤、排序和历史查询都走这里
type QueryController struct {
	queryService service.QueryService
}

// NewQueryController 创建查询控制器
func NewQueryController(queryService service.QueryService) *QueryController {
	return &QueryController{
		queryService: queryService,
	}
}

// List 查询表单下的提交列表
// 过滤维度之间为 AND,集合类维度内部为 OR,排序保持稳定
func (c *QueryController) List(ctx *gin.Context) {
	formID := ctx.Param("id")
	if err := utils.ValidateID(formID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid form ID", err.Error())
		return
	}

	spec, err := parseQuerySpec(ctx)
	if err != nil {
		Error(ctx, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	page := intQuery(ctx, "page", defaultPage)
	if page < 1 {
		page = defaultPage
	}
	pageSize := intQuery(ctx, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	subs, total, err := c.queryService.ListSubmissions(formID, spec, page, pageSize)
	if err != nil {
		ServiceError(ctx, err, "list submissions")
		return
	}

	Paginated(ctx, subs, NewPagination(page, pageSize, total))
}

// Activity 获取提交的活动日志
func (c *QueryController) Activity(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid submission ID", err.Error())
		return
	}

	entries, err := c.queryService.GetActivity(id)
	if err != nil {
		ServiceError(ctx, err, "get activity")
		return
	}

	Success(ctx, entries)
}

// History 获取提交的审核历史
func (c *QueryController) History(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid submission ID", err.Error())
		return
	}

	history, err := c.queryService.GetHistory(id)
	if err != nil {
		ServiceError(ctx, err, "get history")
		return
	}

	Success(ctx, history)
}

// parseQuerySpec 从查询参数构建过滤与排序规格
func parseQuerySpec(ctx *gin.Context) (query.Spec, error) {
	spec := query.Spec{
		SearchTerm: ctx.Query("search"),
		Company:    ctx.Query("company"),
		Submitter:  ctx.Query("submitter"),
		SortBy:     query.SortField(ctx.DefaultQuery("sort_by", string(query.SortByDate))),
		SortOrder:  query.SortOrder(ctx.DefaultQuery("sort_order", string(query.OrderDesc))),
	}

	for _, s := range splitQuery(ctx, "status") {
		status := types.SubmissionStatus(s)
		if !status.Valid() {
			return spec, &types.ConfigurationError{Reason: "unknown status: " + s}
		}
		spec.Status = append(spec.Status, status)
	}
	for _, s := range splitQuery(ctx, "approval_type") {
		spec.ApprovalType = append(spec.ApprovalType, types.ApprovalType(s))
	}
	for _, s := range splitQuery(ctx, "risk_level") {
		spec.RiskLevel = append(spec.RiskLevel, types.RiskLevel(s))
	}
	for _, s := range splitQuery(ctx, "submission_type") {
		spec.SubmissionType = append(spec.SubmissionType, types.SubmissionType(s))
	}

	var err error
	if spec.DateRange.Start, err = timeQuery(ctx, "date_from"); err != nil {
		return spec, err
	}
	if spec.DateRange.End, err = timeQuery(ctx, "date_to"); err != nil {
		return spec, err
	}

	if spec.ScoreRange.Min, err = intPtrQuery(ctx, "score_min"); err != nil {
		return spec, err
	}
	if spec.ScoreRange.Max, err = intPtrQuery(ctx, "score_max"); err != nil {
		return spec, err
	}
	if spec.TimeSpentRange.Min, err = intPtrQuery(ctx, "time_spent_min"); err != nil {
		return spec, err
	}
	if spec.TimeSpentRange.Max, err = intPtrQuery(ctx, "time_spent_max"); err != nil {
		return spec, err
	}

	if raw := ctx.Query("has_documents"); raw != "" {
		hasDocs, err := strconv.ParseBool(raw)
		if err != nil {
			return spec, &types.ConfigurationError{Reason: "invalid has_documents: " + raw}
		}
		spec.HasDocuments = &hasDocs
	}

	return spec, nil
}

// splitQuery 解析逗号分隔的查询参数
func splitQuery(ctx *gin.Context, key string) []string {
	raw := ctx.Query(key)
	if raw == "" {
		return nil
	}

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// intQuery 解析整数查询参数,解析失败时使用默认值
func intQuery(ctx *gin.Context, key string, fallback int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// intPtrQuery 解析可选整数查询参数
func intPtrQuery(ctx *gin.Context, key string) (*int, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &types.ConfigurationError{Reason: "invalid " + key + ": " + raw}
	}
	return &value, nil
}

// timeQuery 解析可选时间查询参数,支持 RFC3339 和日期格式
func timeQuery(ctx *gin.Context, key string) (*time.Time, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, &types.ConfigurationError{Reason: "invalid " + key + ": " + raw}
}
