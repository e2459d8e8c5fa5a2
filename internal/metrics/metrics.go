package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 提交创建数
	submissionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Total number of submissions received",
		},
	)

	// 状态转换操作数
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_transitions_total",
			Help: "Total number of submission status transitions",
		},
		[]string{"action"}, // approved, rejected, under_review, submitted
	)

	// 批量操作数
	bulkActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_actions_total",
			Help: "Total number of bulk actions processed",
		},
		[]string{"action"},
	)

	// 自动审批数
	autoApprovalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auto_approvals_total",
			Help: "Total number of score-based auto approvals",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 提交状态分布
	submissionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "submissions_by_status",
			Help: "Number of submissions by status",
		},
		[]string{"status"},
	)

	// 提交风险等级分布
	submissionsByRisk = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "submissions_by_risk_level",
			Help: "Number of scored submissions by risk level",
		},
		[]string{"risk_level"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(submissionsCreatedTotal)
	prometheus.MustRegister(transitionsTotal)
	prometheus.MustRegister(bulkActionsTotal)
	prometheus.MustRegister(autoApprovalsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(submissionsByStatus)
	prometheus.MustRegister(submissionsByRisk)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		// 尝试注册 Go 运行时指标，如果已注册则忽略错误
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordSubmissionCreated 记录提交创建
func RecordSubmissionCreated() {
	submissionsCreatedTotal.Inc()
}

// RecordTransition 记录状态转换
func RecordTransition(action string) {
	transitionsTotal.WithLabelValues(action).Inc()
}

// RecordBulkAction 记录批量操作
func RecordBulkAction(action string) {
	bulkActionsTotal.WithLabelValues(action).Inc()
}

// RecordAutoApproval 记录自动审批
func RecordAutoApproval() {
	autoApprovalsTotal.Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateSubmissionsByStatus 更新提交状态分布指标
func UpdateSubmissionsByStatus(status string, count float64) {
	submissionsByStatus.WithLabelValues(status).Set(count)
}

// UpdateSubmissionsByRisk 更新提交风险等级分布指标
func UpdateSubmissionsByRisk(riskLevel string, count float64) {
	submissionsByRisk.WithLabelValues(riskLevel).Set(count)
}
