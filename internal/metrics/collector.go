package metrics

import (
	"context"
	"time"

	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"gorm.io/gorm"
)

// Collector 指标收集器
// 定期从数据库刷新连接池指标和提交状态/风险分布指标
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.refreshDistributions()
		}
	}
}

// refreshDistributions 刷新提交状态与风险等级分布
func (c *Collector) refreshDistributions() {
	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := c.db.Model(&model.SubmissionModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err == nil {
		for _, row := range byStatus {
			UpdateSubmissionsByStatus(row.Status, float64(row.Count))
		}
	}

	var byRisk []struct {
		RiskLevel string
		Count     int64
	}
	if err := c.db.Model(&model.SubmissionModel{}).
		Select("risk_level, COUNT(*) as count").
		Where("risk_level <> ''").
		Group("risk_level").
		Scan(&byRisk).Error; err == nil {
		for _, row := range byRisk {
			UpdateSubmissionsByRisk(row.RiskLevel, float64(row.Count))
		}
	}
}
