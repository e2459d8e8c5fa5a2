package container

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/config"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/database"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/metrics"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/service"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/websocket"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理数据库连接、WebSocket hub 和所有应用服务
type Container struct {
	db        *gorm.DB
	hub       *websocket.Hub
	collector *metrics.Collector

	formService       service.FormService
	submissionService service.SubmissionService
	queryService      service.QueryService
	statisticsService service.StatisticsService
	notifier          service.NotificationService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化 WebSocket hub 和事件发布器
	hub := websocket.NewHub()
	publisher := websocket.NewPublisher(hub)

	// 3. 初始化通知服务
	// SMTP 未启用时 send_email 批量操作降级为仅记录日志
	notifier := service.NewNotificationService(cfg.SMTP, logger)

	// 4. 初始化应用服务
	submissionService := service.NewSubmissionService(db, notifier, publisher, logger)
	formService := service.NewFormService(db)
	queryService := service.NewQueryService(db)
	statisticsService := service.NewStatisticsService(db)

	// 5. 初始化指标采集器,周期刷新状态/风险分布
	collector := metrics.NewCollector(db, 30*time.Second)

	return &Container{
		db:                db,
		hub:               hub,
		collector:         collector,
		formService:       formService,
		submissionService: submissionService,
		queryService:      queryService,
		statisticsService: statisticsService,
		notifier:          notifier,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Hub 获取 WebSocket hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Collector 获取指标采集器
func (c *Container) Collector() *metrics.Collector {
	return c.collector
}

// FormService 获取表单服务
func (c *Container) FormService() service.FormService {
	return c.formService
}

// SubmissionService 获取提交服务
func (c *Container) SubmissionService() service.SubmissionService {
	return c.submissionService
}

// QueryService 获取查询服务
func (c *Container) QueryService() service.QueryService {
	return c.queryService
}

// StatisticsService 获取统计服务
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statisticsService
}

// NotificationService 获取通知服务
func (c *Container) NotificationService() service.NotificationService {
	return c.notifier
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.collector != nil {
		c.collector.Stop()
	}

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
