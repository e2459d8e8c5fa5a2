package service

import (
	"fmt"

	"github.com/solidrange/solidrange-form-flow-sub000/internal/model"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/repository"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/query"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
	"gorm.io/gorm"
)

// QueryService 查询服务接口
type QueryService interface {
	ListSubmissions(formID string, spec query.Spec, page, pageSize int) ([]*types.Submission, int64, error)
	GetActivity(submissionID string) ([]types.ActivityEntry, error)
	GetHistory(submissionID string) ([]*ReviewHistory, error)
}

// ReviewHistory 审核历史
type ReviewHistory struct {
	ID           string `json:"id"`
	SubmissionID string `json:"submission_id"`
	FromStatus   string `json:"from_status"`
	ToStatus     string `json:"to_status"`
	Comments     string `json:"comments"`
	ReviewedBy   string `json:"reviewed_by"`
	CreatedAt    string `json:"created_at"`
}

// queryService 查询服务实现
type queryService struct {
	db          *gorm.DB
	subRepo     repository.SubmissionRepository
	historyRepo repository.ReviewHistoryRepository
}

// NewQueryService 创建查询服务
func NewQueryService(db *gorm.DB) QueryService {
	return &queryService{
		db:          db,
		subRepo:     repository.NewSubmissionRepository(db),
		historyRepo: repository.NewReviewHistoryRepository(db),
	}
}

// ListSubmissions 列出提交
// 加载工作集后在内存中应用过滤/排序引擎,再分页;
// 引擎的稳定排序保证相同请求的分页结果可预期
func (s *queryService) ListSubmissions(formID string, spec query.Spec, page, pageSize int) ([]*types.Submission, int64, error) {
	var subs []*types.Submission
	var err error
	if formID != "" {
		subs, err = s.subRepo.FindByForm(formID)
	} else {
		subs, err = s.subRepo.FindAll()
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load submissions: %w", err)
	}

	filtered := query.Apply(subs, spec)
	total := int64(len(filtered))

	// 应用分页
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []*types.Submission{}, total, nil
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], total, nil
}

// GetActivity 获取提交的活动日志
func (s *queryService) GetActivity(submissionID string) ([]types.ActivityEntry, error) {
	sub, err := s.subRepo.FindByID(submissionID)
	if err != nil {
		return nil, err
	}
	return sub.ActivityLog, nil
}

// GetHistory 获取提交的审核历史
func (s *queryService) GetHistory(submissionID string) ([]*ReviewHistory, error) {
	models, err := s.historyRepo.FindBySubmissionID(submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	histories := make([]*ReviewHistory, 0, len(models))
	for _, m := range models {
		histories = append(histories, fromHistoryModel(m))
	}
	return histories, nil
}

// fromHistoryModel 转换审核历史数据模型
func fromHistoryModel(m *model.ReviewHistoryModel) *ReviewHistory {
	return &ReviewHistory{
		ID:           m.ID,
		SubmissionID: m.SubmissionID,
		FromStatus:   m.FromStatus,
		ToStatus:     m.ToStatus,
		Comments:     m.Comments,
		ReviewedBy:   m.ReviewedBy,
		CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
