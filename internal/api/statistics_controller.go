package api

import (
	"github.com/gin-gonic/gin"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/service"
)

// StatisticsController 统计控制器
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController 创建统计控制器
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{
		statisticsService: statisticsService,
	}
}

// ByStatus 按状态统计提交
func (c *StatisticsController) ByStatus(ctx *gin.Context) {
	stats, err := c.statisticsService.GetSubmissionStatisticsByStatus()
	if err != nil {
		ServiceError(ctx, err, "get statistics by status")
		return
	}

	Success(ctx, stats)
}

// ByRisk 按风险等级统计提交
func (c *StatisticsController) ByRisk(ctx *gin.Context) {
	stats, err := c.statisticsService.GetSubmissionStatisticsByRisk()
	if err != nil {
		ServiceError(ctx, err, "get statistics by risk")
		return
	}

	Success(ctx, stats)
}

// ByTime 按时间统计提交
func (c *StatisticsController) ByTime(ctx *gin.Context) {
	stats, err := c.statisticsService.GetSubmissionStatisticsByTime()
	if err != nil {
		ServiceError(ctx, err, "get statistics by time")
		return
	}

	Success(ctx, stats)
}

// Review 获取审核统计
func (c *StatisticsController) Review(ctx *gin.Context) {
	stats, err := c.statisticsService.GetReviewStatistics()
	if err != nil {
		ServiceError(ctx, err, "get review statistics")
		return
	}

	Success(ctx, stats)
}
