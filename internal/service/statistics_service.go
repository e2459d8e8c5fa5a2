package service

import (
	"fmt"

	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	GetSubmissionStatisticsByStatus() ([]*SubmissionStatisticsByStatus, error)
	GetSubmissionStatisticsByRisk() ([]*SubmissionStatisticsByRisk, error)
	GetSubmissionStatisticsByTime() ([]*SubmissionStatisticsByTime, error)
	GetReviewStatistics() (*ReviewStatistics, error)
}

// SubmissionStatisticsByStatus 按状态统计
type SubmissionStatisticsByStatus struct {
	Status string
	Count  int64
}

// SubmissionStatisticsByRisk 按风险等级统计
type SubmissionStatisticsByRisk struct {
	RiskLevel string
	Count     int64
}

// SubmissionStatisticsByTime 按时间统计
type SubmissionStatisticsByTime struct {
	Date  string
	Count int64
}

// ReviewStatistics 审核统计
type ReviewStatistics struct {
	TotalSubmissions int64
	ApprovedCount    int64
	RejectedCount    int64
	PendingCount     int64
	ApprovalRate     float64
	AverageScore     float64 // 已评分提交的平均百分比
}

// statisticsService 统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetSubmissionStatisticsByStatus 按状态统计提交
func (s *statisticsService) GetSubmissionStatisticsByStatus() ([]*SubmissionStatisticsByStatus, error) {
	var results []struct {
		Status string
		Count  int64
	}

	err := s.db.Model(&model.SubmissionModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get submission statistics by status: %w", err)
	}

	stats := make([]*SubmissionStatisticsByStatus, 0, len(results))
	for _, r := range results {
		stats = append(stats, &SubmissionStatisticsByStatus{
			Status: r.Status,
			Count:  r.Count,
		})
	}

	return stats, nil
}

// GetSubmissionStatisticsByRisk 按风险等级统计提交
// 只统计已评分的提交
func (s *statisticsService) GetSubmissionStatisticsByRisk() ([]*SubmissionStatisticsByRisk, error) {
	var results []struct {
		RiskLevel string
		Count     int64
	}

	err := s.db.Model(&model.SubmissionModel{}).
		Select("risk_level, COUNT(*) as count").
		Where("risk_level <> ''").
		Group("risk_level").
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get submission statistics by risk: %w", err)
	}

	stats := make([]*SubmissionStatisticsByRisk, 0, len(results))
	for _, r := range results {
		stats = append(stats, &SubmissionStatisticsByRisk{
			RiskLevel: r.RiskLevel,
			Count:     r.Count,
		})
	}

	return stats, nil
}

// GetSubmissionStatisticsByTime 按时间统计提交
func (s *statisticsService) GetSubmissionStatisticsByTime() ([]*SubmissionStatisticsByTime, error) {
	var results []struct {
		Date  string
		Count int64
	}

	err := s.db.Model(&model.SubmissionModel{}).
		Select("DATE(submitted_at) as date, COUNT(*) as count").
		Group("DATE(submitted_at)").
		Order("date DESC").
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get submission statistics by time: %w", err)
	}

	stats := make([]*SubmissionStatisticsByTime, 0, len(results))
	for _, r := range results {
		stats = append(stats, &SubmissionStatisticsByTime{
			Date:  r.Date,
			Count: r.Count,
		})
	}

	return stats, nil
}

// GetReviewStatistics 获取审核统计
func (s *statisticsService) GetReviewStatistics() (*ReviewStatistics, error) {
	var totalCount int64
	err := s.db.Model(&model.SubmissionModel{}).Count(&totalCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	var approvedCount int64
	err = s.db.Model(&model.SubmissionModel{}).
		Where("status = ?", "approved").
		Count(&approvedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count approved submissions: %w", err)
	}

	var rejectedCount int64
	err = s.db.Model(&model.SubmissionModel{}).
		Where("status = ?", "rejected").
		Count(&rejectedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count rejected submissions: %w", err)
	}

	approvalRate := 0.0
	reviewed := approvedCount + rejectedCount
	if reviewed > 0 {
		approvalRate = float64(approvedCount) / float64(reviewed) * 100
	}

	var averageScore float64
	err = s.db.Model(&model.SubmissionModel{}).
		Where("score_percentage IS NOT NULL").
		Select("COALESCE(AVG(score_percentage), 0)").
		Scan(&averageScore).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute average score: %w", err)
	}

	return &ReviewStatistics{
		TotalSubmissions: totalCount,
		ApprovedCount:    approvedCount,
		RejectedCount:    rejectedCount,
		PendingCount:     totalCount - reviewed,
		ApprovalRate:     approvalRate,
		AverageScore:     averageScore,
	}, nil
}
