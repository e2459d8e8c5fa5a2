package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/config"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/websocket"
	"gorm.io/gorm"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Form       *FormController
	Submission *SubmissionController
	Query      *QueryController
	Statistics *StatisticsController
}

// SetupRoutes 配置路由
func SetupRoutes(cfg *config.Config, db *gorm.DB, hub *websocket.Hub, controllers Controllers) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 中间件
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(&cfg.CORS))
	if cfg.RateLimit.Enabled {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 路由,审核面板订阅提交生命周期事件
	if hub != nil {
		router.GET("/ws/forms/:id", websocket.Handler(hub))
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 表单管理路由
		forms := v1.Group("/forms")
		{
			forms.POST("", controllers.Form.Create)
			forms.GET("", controllers.Form.List)
			forms.GET("/:id", controllers.Form.Get)
			forms.PUT("/:id", controllers.Form.Update)
			forms.DELETE("/:id", controllers.Form.Delete)
			forms.POST("/:id/publish", controllers.Form.Publish)
			forms.POST("/:id/archive", controllers.Form.Archive)

			// 表单下的提交列表,支持过滤、排序与分页
			forms.GET("/:id/submissions", controllers.Query.List)
		}

		// 提交管理路由
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", controllers.Submission.Create)
			submissions.GET("/:id", controllers.Submission.Get)
			submissions.DELETE("/:id", controllers.Submission.Delete)
			submissions.POST("/:id/review", controllers.Submission.Review)
			submissions.POST("/:id/approve", controllers.Submission.Approve)
			submissions.POST("/:id/reject", controllers.Submission.Reject)
			submissions.POST("/:id/status/:status", controllers.Submission.ChangeStatus)
			submissions.POST("/:id/rescore", controllers.Submission.Rescore)
			submissions.GET("/:id/activity", controllers.Query.Activity)
			submissions.GET("/:id/history", controllers.Query.History)

			// 批量操作
			submissions.POST("/bulk", controllers.Submission.Bulk)
		}

		// 统计路由
		statistics := v1.Group("/statistics")
		{
			statistics.GET("/status", controllers.Statistics.ByStatus)
			statistics.GET("/risk", controllers.Statistics.ByRisk)
			statistics.GET("/time", controllers.Statistics.ByTime)
			statistics.GET("/review", controllers.Statistics.Review)
		}
	}

	// 未匹配路由统一返回 JSON 404
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", c.Request.URL.Path)
	})

	return router
}
