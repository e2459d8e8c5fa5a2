package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/api"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/config"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/database"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRouter 构建测试路由
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api.SetLoggerLevel(logrus.PanicLevel)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	testLogger := logrus.New()
	testLogger.SetLevel(logrus.PanicLevel)

	notifier := service.NewNotificationService(config.SMTPConfig{Enabled: false}, testLogger)
	submissionSvc := service.NewSubmissionService(db, notifier, nil, testLogger)

	cfg := config.Default()
	cfg.RateLimit.Enabled = false

	controllers := api.Controllers{
		Form:       api.NewFormController(service.NewFormService(db)),
		Submission: api.NewSubmissionController(submissionSvc),
		Query:      api.NewQueryController(service.NewQueryService(db)),
		Statistics: api.NewStatisticsController(service.NewStatisticsService(db)),
	}
	return api.SetupRoutes(cfg, db, nil, controllers)
}

// doJSON 发送 JSON 请求
func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// responseData 解析统一响应中的 data 字段
func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code)

	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

// createPublishedForm 通过 HTTP 创建并发布表单,返回表单 ID
func createPublishedForm(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/api/v1/forms", map[string]any{
		"title": "供应商评估表",
		"fields": []map[string]any{
			{
				"id":      "q1",
				"type":    "select",
				"label":   "是否有安全认证",
				"options": []string{"yes", "no"},
				"scoring": map[string]any{
					"enabled":         true,
					"max_points":      10,
					"correct_answers": []string{"yes"},
				},
			},
		},
		"settings": map[string]any{
			"scoring": map[string]any{
				"enabled":         true,
				"risk_thresholds": map[string]any{"low": 80, "medium": 60, "high": 40},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	formID := responseData(t, w)["id"].(string)

	w = doJSON(router, http.MethodPost, "/api/v1/forms/"+formID+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return formID
}

// createTestSubmission 通过 HTTP 创建提交,返回提交 ID
func createTestSubmission(t *testing.T, router *gin.Engine, formID, email, answer string) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/api/v1/submissions", map[string]any{
		"form_id":         formID,
		"submitter_email": email,
		"responses":       map[string]any{"q1": answer},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return responseData(t, w)["id"].(string)
}

// TestHealthEndpoint 测试健康检查
func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

// TestNoRouteReturnsJSON 测试未匹配路由返回 JSON 404
func TestNoRouteReturnsJSON(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

// TestRequestIDHeader 测试请求 ID 透传
func TestRequestIDHeader(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-12345")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-12345", w.Header().Get("X-Request-ID"))

	// 未提供时自动生成
	w = doJSON(router, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

// TestSubmissionLifecycle 测试提交的完整生命周期
func TestSubmissionLifecycle(t *testing.T) {
	router := setupRouter(t)
	formID := createPublishedForm(t, router)
	subID := createTestSubmission(t, router, formID, "vendor@example.com", "yes")

	// 获取提交,创建即评分
	w := doJSON(router, http.MethodGet, "/api/v1/submissions/"+subID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "submitted", data["status"])
	require.NotNil(t, data["score"])

	// 审批通过缺少审批类型 -> 409
	w = doJSON(router, http.MethodPost, "/api/v1/submissions/"+subID+"/approve", map[string]any{
		"reviewed_by": "reviewer-001",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// 带类型的审批通过
	w = doJSON(router, http.MethodPost, "/api/v1/submissions/"+subID+"/approve", map[string]any{
		"approval_type": "fully",
		"reviewed_by":   "reviewer-001",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = responseData(t, w)
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, "fully", data["approval_type"])

	// 审核历史可查询
	w = doJSON(router, http.MethodGet, "/api/v1/submissions/"+subID+"/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestSubmissionNotFound 测试提交不存在时返回 404
func TestSubmissionNotFound(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/submissions/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestSubmissionInvalidID 测试非法 ID 格式返回 400
func TestSubmissionInvalidID(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/submissions/bad%20id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestListSubmissionsFilter 测试列表过滤
func TestListSubmissionsFilter(t *testing.T) {
	router := setupRouter(t)
	formID := createPublishedForm(t, router)
	createTestSubmission(t, router, formID, "a@example.com", "yes")
	subID := createTestSubmission(t, router, formID, "b@example.com", "no")

	// 将 b 转入人工审核
	w := doJSON(router, http.MethodPost, "/api/v1/submissions/"+subID+"/review", map[string]any{
		"reviewed_by": "reviewer-001",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 按状态过滤
	path := fmt.Sprintf("/api/v1/forms/%s/submissions?status=under_review", formID)
	w = doJSON(router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []map[string]any  `json:"data"`
		Pagination api.PaginationInfo `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Pagination.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, subID, resp.Data[0]["id"])

	// 非法状态值返回 400
	w = doJSON(router, http.MethodGet, "/api/v1/forms/"+formID+"/submissions?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestBulkExportCSV 测试批量导出返回 CSV 附件
func TestBulkExportCSV(t *testing.T) {
	router := setupRouter(t)
	formID := createPublishedForm(t, router)
	subID := createTestSubmission(t, router, formID, "vendor@example.com", "yes")

	w := doJSON(router, http.MethodPost, "/api/v1/submissions/bulk", map[string]any{
		"action":         "export",
		"submission_ids": []string{subID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "submissions.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,company,submitter,email,status,score,risk_level,submitted_at", lines[0])
	assert.Contains(t, lines[1], subID)
}

// TestBulkApprovePartialSuccess 测试批量审批的部分成功响应
func TestBulkApprovePartialSuccess(t *testing.T) {
	router := setupRouter(t)
	formID := createPublishedForm(t, router)
	subID := createTestSubmission(t, router, formID, "vendor@example.com", "yes")

	w := doJSON(router, http.MethodPost, "/api/v1/submissions/bulk", map[string]any{
		"action":         "approve",
		"submission_ids": []string{subID, "missing-id"},
		"approval_type":  "fully",
		"reviewed_by":    "reviewer-001",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := responseData(t, w)
	updated := data["updated_ids"].([]any)
	require.Len(t, updated, 1)
	assert.Equal(t, subID, updated[0])

	failures := data["failures"].([]any)
	require.Len(t, failures, 1)
	failure := failures[0].(map[string]any)
	assert.Equal(t, "missing-id", failure["id"])
}

// TestBulkUnknownActionFailsFast 测试非法批量操作返回 400
func TestBulkUnknownActionFailsFast(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/submissions/bulk", map[string]any{
		"action":         "explode",
		"submission_ids": []string{"a"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestStatisticsEndpoints 测试统计端点
func TestStatisticsEndpoints(t *testing.T) {
	router := setupRouter(t)
	formID := createPublishedForm(t, router)
	createTestSubmission(t, router, formID, "vendor@example.com", "yes")

	for _, path := range []string{
		"/api/v1/statistics/status",
		"/api/v1/statistics/risk",
		"/api/v1/statistics/time",
		"/api/v1/statistics/review",
	} {
		w := doJSON(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

// TestMetricsEndpoint 测试 Prometheus 指标端点
func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_requests_total")
}
